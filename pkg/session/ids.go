package session

import (
	"sync"
	"time"

	"github.com/menta2k/product-booth/pkg/types"
)

// IDGenerator derives photo IDs from capture times in unix milliseconds,
// bumping by one when two captures land in the same millisecond.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

// Next returns an ID for a capture at t, strictly greater than any
// previously returned one.
func (g *IDGenerator) Next(t time.Time) types.PhotoID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := t.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return types.PhotoID(id)
}
