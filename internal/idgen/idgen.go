// Package idgen hands out correlation ids for outbound requests.
package idgen

import "sync"

// DefaultCeiling is the largest id handed out before the counter wraps.
const DefaultCeiling int64 = 0x7FFFFFF0

// Generator creates monotonically increasing ids that wrap back to 1 once
// the ceiling is passed. It never returns 0.
type Generator struct {
	mu      sync.Mutex
	next    int64
	ceiling int64
}

// New returns a generator using DefaultCeiling.
func New() *Generator {
	return NewWithCeiling(DefaultCeiling)
}

// NewWithCeiling returns a generator that wraps after ceiling.
func NewWithCeiling(ceiling int64) *Generator {
	if ceiling < 1 {
		ceiling = DefaultCeiling
	}
	return &Generator{ceiling: ceiling}
}

// Next returns the next id.
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.next++
	if g.next > g.ceiling {
		g.next = 1
	}
	return g.next
}
