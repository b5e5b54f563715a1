// Package lock implements the distributed lock manager (spec §4.2): a
// single-writer guarantee per service, backed by Redis, with fencing tokens
// so a lost lock can never be mistaken for a held one.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrBusy is returned by Acquire when another owner currently holds the lock.
var ErrBusy = errors.New("lock: busy")

const keyPrefix = "recharge_lock:"

// releaseScript deletes the key only if its value still matches the token
// presented — the fencing check that makes Release safe to call even after
// the lock's TTL has already expired and a new owner has acquired it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// Manager acquires and releases per-service locks (spec §4.2's
// acquire(service, ttl) / release(service, token) contract).
type Manager struct {
	rdb *redis.Client
}

// NewManager creates a lock Manager backed by rdb.
func NewManager(rdb *redis.Client) *Manager {
	return &Manager{rdb: rdb}
}

// Token is the fencing token returned by Acquire. It must be presented to
// Release, and any side-effecting call made after the lock's TTL might have
// expired MUST first re-validate via Held.
type Token string

// Acquire attempts to take the lock for service with the given TTL. It
// returns ErrBusy if another owner currently holds it — a normal outcome
// during cycle overlap (spec §4.1), not an error worth logging loudly.
func (m *Manager) Acquire(ctx context.Context, service string, ttl time.Duration) (Token, error) {
	token := Token(uuid.NewString())
	key := keyPrefix + service

	ok, err := m.rdb.SetNX(ctx, key, string(token), ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquiring lock for %s: %w", service, err)
	}
	if !ok {
		return "", ErrBusy
	}
	return token, nil
}

// Release drops the lock for service if and only if token still matches the
// current holder (idempotent, fencing-safe — spec §4.2). Releasing a lock
// whose TTL already expired and was reacquired by someone else is a no-op,
// never a forced takeover.
func (m *Manager) Release(ctx context.Context, service string, token Token) error {
	key := keyPrefix + service
	if err := releaseScript.Run(ctx, m.rdb, []string{key}, string(token)).Err(); err != nil {
		return fmt.Errorf("releasing lock for %s: %w", service, err)
	}
	return nil
}

// Held reports whether token is still the current holder of service's lock.
// Callers on the post-purchase-pre-stage critical path check this before
// treating a delayed operation as still authorized to act (spec §4.2: "a
// lost lock MUST cause the owner to treat all subsequent external side
// effects as forbidden for the remainder of that cycle").
func (m *Manager) Held(ctx context.Context, service string, token Token) (bool, error) {
	key := keyPrefix + service
	val, err := m.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking lock for %s: %w", service, err)
	}
	return val == string(token), nil
}
