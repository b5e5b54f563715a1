package provider

import (
	"context"
	"sync"
	"time"
)

// Router dispatches Client calls by Name to the matching carrier client and
// caches Balance results for up to balanceCacheTTL (spec §4.3: "may be
// cached for ≤60s").
type Router struct {
	taecel Client
	mst    Client

	mu          sync.Mutex
	balanceAt   map[Name]time.Time
	balanceVal  map[Name]float64
	now         func() time.Time
}

const balanceCacheTTL = 60 * time.Second

// NewRouter builds a Router over the two carrier clients.
func NewRouter(taecel, mst Client) *Router {
	return &Router{
		taecel:     taecel,
		mst:        mst,
		balanceAt:  make(map[Name]time.Time),
		balanceVal: make(map[Name]float64),
		now:        time.Now,
	}
}

func (r *Router) clientFor(p Name) (Client, error) {
	switch p {
	case TAECEL:
		return r.taecel, nil
	case MST:
		return r.mst, nil
	default:
		return nil, ErrUnknownProvider
	}
}

func (r *Router) Balance(ctx context.Context, p Name) (float64, error) {
	r.mu.Lock()
	if at, ok := r.balanceAt[p]; ok && r.now().Sub(at) < balanceCacheTTL {
		v := r.balanceVal[p]
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	client, err := r.clientFor(p)
	if err != nil {
		return 0, err
	}
	bal, err := client.Balance(ctx, p)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.balanceAt[p] = r.now()
	r.balanceVal[p] = bal
	r.mu.Unlock()
	return bal, nil
}

func (r *Router) Purchase(ctx context.Context, p Name, req PurchaseRequest) (PurchaseResult, error) {
	client, err := r.clientFor(p)
	if err != nil {
		return PurchaseResult{}, err
	}
	return client.Purchase(ctx, p, req)
}
