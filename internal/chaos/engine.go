// Package chaos injects delivery faults (drops, duplicates, reordering and
// delay) into a stream of messages so the harness can be exercised against
// an unreliable venue.
package chaos

import (
	"math/rand"
	"sync"
	"time"

	"fixharness/pkg/exception"

	"github.com/yanun0323/errors"
)

// Config controls chaos injection behavior. The zero value injects nothing.
type Config struct {
	Seed          int64
	DropRate      float64
	DuplicateRate float64
	ReorderWindow int
	MaxDelay      time.Duration
}

// Enabled reports whether any fault is configured.
func (c Config) Enabled() bool {
	return c.DropRate > 0 || c.DuplicateRate > 0 || c.ReorderWindow > 1 || c.MaxDelay > 0
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.DropRate < 0 || c.DropRate > 1 {
		return errors.Wrap(exception.ErrInvalidArgument, "dropRate must be between 0 and 1")
	}
	if c.DuplicateRate < 0 || c.DuplicateRate > 1 {
		return errors.Wrap(exception.ErrInvalidArgument, "duplicateRate must be between 0 and 1")
	}
	if c.ReorderWindow < 0 {
		return errors.Wrap(exception.ErrInvalidArgument, "reorderWindow must be >= 0")
	}
	if c.MaxDelay < 0 {
		return errors.Wrap(exception.ErrInvalidArgument, "maxDelay must be >= 0")
	}
	return nil
}

// Engine applies chaos rules to items of type T. It is safe for concurrent use.
type Engine[T any] struct {
	cfg Config

	mu      sync.Mutex
	rng     *rand.Rand
	pending []T
}

// NewEngine creates a chaos engine with validation. A zero seed is replaced
// by the current time.
func NewEngine[T any](cfg Config) (*Engine[T], error) {
	if cfg.ReorderWindow <= 0 {
		cfg.ReorderWindow = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	return &Engine[T]{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Process applies chaos to a single item and returns what should be
// delivered now, possibly nothing. A nil engine passes items through.
func (e *Engine[T]) Process(item T) []T {
	if e == nil {
		return []T{item}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cfg.DropRate > 0 && e.rng.Float64() < e.cfg.DropRate {
		return nil
	}
	if e.cfg.ReorderWindow <= 1 {
		return e.duplicate(item)
	}
	e.pending = append(e.pending, item)
	if len(e.pending) < e.cfg.ReorderWindow {
		return nil
	}
	return e.duplicate(e.take())
}

// Flush returns the items held back for reordering.
func (e *Engine[T]) Flush() []T {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]T, 0, len(e.pending))
	for len(e.pending) > 0 {
		out = append(out, e.duplicate(e.take())...)
	}
	return out
}

// Delay returns how long to hold the next delivery.
func (e *Engine[T]) Delay() time.Duration {
	if e == nil || e.cfg.MaxDelay <= 0 {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.Duration(e.rng.Int63n(e.cfg.MaxDelay.Nanoseconds() + 1))
}

// take removes a random pending item. Caller holds e.mu.
func (e *Engine[T]) take() T {
	idx := e.rng.Intn(len(e.pending))
	item := e.pending[idx]
	e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
	return item
}

func (e *Engine[T]) duplicate(item T) []T {
	if e.cfg.DuplicateRate > 0 && e.rng.Float64() < e.cfg.DuplicateRate {
		return []T{item, item}
	}
	return []T{item}
}
