package provider

import (
	"context"
	"testing"
	"time"
)

type fakeClient struct {
	balance     float64
	balanceErr  error
	balanceCalls int
	purchaseResult PurchaseResult
	purchaseErr error
}

func (f *fakeClient) Balance(ctx context.Context, p Name) (float64, error) {
	f.balanceCalls++
	return f.balance, f.balanceErr
}

func (f *fakeClient) Purchase(ctx context.Context, p Name, req PurchaseRequest) (PurchaseResult, error) {
	return f.purchaseResult, f.purchaseErr
}

func TestRouter_DispatchesByName(t *testing.T) {
	taecel := &fakeClient{balance: 100}
	mst := &fakeClient{balance: 200}
	r := NewRouter(taecel, mst)

	bal, err := r.Balance(context.Background(), TAECEL)
	if err != nil || bal != 100 {
		t.Fatalf("Balance(TAECEL) = %v, %v", bal, err)
	}
	bal, err = r.Balance(context.Background(), MST)
	if err != nil || bal != 200 {
		t.Fatalf("Balance(MST) = %v, %v", bal, err)
	}
}

func TestRouter_UnknownProvider(t *testing.T) {
	r := NewRouter(&fakeClient{}, &fakeClient{})
	if _, err := r.Balance(context.Background(), Name("unknown")); err != ErrUnknownProvider {
		t.Errorf("Balance(unknown) error = %v, want ErrUnknownProvider", err)
	}
}

func TestRouter_CachesBalanceWithinTTL(t *testing.T) {
	taecel := &fakeClient{balance: 100}
	r := NewRouter(taecel, &fakeClient{})
	now := time.Now()
	r.now = func() time.Time { return now }

	if _, err := r.Balance(context.Background(), TAECEL); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Balance(context.Background(), TAECEL); err != nil {
		t.Fatal(err)
	}
	if taecel.balanceCalls != 1 {
		t.Errorf("balanceCalls = %d, want 1 (second call should hit cache)", taecel.balanceCalls)
	}

	r.now = func() time.Time { return now.Add(balanceCacheTTL + time.Second) }
	if _, err := r.Balance(context.Background(), TAECEL); err != nil {
		t.Fatal(err)
	}
	if taecel.balanceCalls != 2 {
		t.Errorf("balanceCalls = %d, want 2 (cache should expire after TTL)", taecel.balanceCalls)
	}
}
