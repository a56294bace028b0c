package order

import (
	"context"
	"fmt"
	"math/rand"
)

// CounterStore durably persists the monotonic base used for order ids.
// Next must atomically advance the base and return its new value; if
// the write does not confirm, no id may be handed out.
type CounterStore interface {
	Next(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}

// IDGen produces order ids of the form "base_fraction".  The durably
// incremented base keeps ids unique across process restarts; the random
// fraction makes them hard to guess.
type IDGen struct {
	store CounterStore
}

// NewIDGen creates an id generator backed by the given counter store.
func NewIDGen(store CounterStore) *IDGen {
	return &IDGen{store: store}
}

// NextID advances the persisted base and returns a fresh order id.
func (g *IDGen) NextID(ctx context.Context) (string, error) {
	base, err := g.store.Next(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to advance id base: %w", err)
	}
	return fmt.Sprintf("%d_%02d", base, rand.Intn(100)), nil
}

// Reset sets the persisted base back to 0.  Administrative operation,
// used when clearing all orders.
func (g *IDGen) Reset(ctx context.Context) error {
	return g.store.Reset(ctx)
}
