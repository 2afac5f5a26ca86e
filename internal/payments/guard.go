package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farzana24/RideN-Bite-sub001/pkg/redis"
)

const guardScope = "payment-finalize"

// Guard absorbs duplicate gateway callbacks before they reach the reconciler.
// It is an optimization only; the conditional status update remains the
// load-bearing invariant.
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewGuard(store redis.IdempotencyStore, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Guard{store: store, ttl: ttl}, nil
}

// CheckAndMark reports whether this order/transaction pair was already seen.
// The first caller marks the pair and proceeds.
func (g *Guard) CheckAndMark(ctx context.Context, orderID int64, tranID string) (bool, error) {
	if tranID == "" {
		return false, errors.New("transaction id is required")
	}
	key := g.store.IdempotencyKey(guardScope, fmt.Sprintf("%d:%s", orderID, tranID))
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Release clears the mark so the gateway's own retry can attempt the
// finalize again after a downstream failure.
func (g *Guard) Release(ctx context.Context, orderID int64, tranID string) error {
	if tranID == "" {
		return errors.New("transaction id is required")
	}
	key := g.store.IdempotencyKey(guardScope, fmt.Sprintf("%d:%s", orderID, tranID))
	return g.store.Del(ctx, key)
}
