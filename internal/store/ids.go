package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces session ids.
type IDGenerator interface {
	NewID() (string, error)
}

// UUIDv7Generator generates time-sortable UUIDv7 session ids.
//
// UUIDv7 embeds a timestamp in the most significant bits, so ids recorded
// later sort after earlier ones even across processes.
type UUIDv7Generator struct{}

// NewID returns a new hyphenated UUIDv7.
func (UUIDv7Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// FixedGenerator returns predetermined ids in order, for deterministic
// tests and golden comparisons. Safe for concurrent use.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// NewID returns the next id, or an error once all ids are used.
func (g *FixedGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		return "", fmt.Errorf("fixed generator: all %d ids used", len(g.ids))
	}
	id := g.ids[g.idx]
	g.idx++
	return id, nil
}
