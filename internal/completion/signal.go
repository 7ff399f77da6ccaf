// Package completion tracks whether the last batch of venue requests has
// been answered.
package completion

import (
	"context"
	"sync"
	"time"

	"fixharness/pkg/exception"

	"github.com/yanun0323/errors"
)

// Signal is true (idle) when no request is outstanding. Begin flips it to
// pending, Complete flips it back and wakes every waiter.
type Signal struct {
	mu   sync.Mutex
	idle bool
	wake chan struct{}
}

// New returns a pending signal. The first Complete releases the waiters.
func New() *Signal {
	return &Signal{wake: make(chan struct{})}
}

// NewIdle returns a signal with no outstanding request.
func NewIdle() *Signal {
	s := &Signal{idle: true, wake: make(chan struct{})}
	close(s.wake)
	return s
}

// Begin marks a request as outstanding.
func (s *Signal) Begin() {
	s.mu.Lock()
	if s.idle {
		s.idle = false
		s.wake = make(chan struct{})
	}
	s.mu.Unlock()
}

// Complete marks the outstanding request as answered.
func (s *Signal) Complete() {
	s.mu.Lock()
	if !s.idle {
		s.idle = true
		close(s.wake)
	}
	s.mu.Unlock()
}

// Idle reports whether no request is outstanding.
func (s *Signal) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle
}

// Done returns a channel closed once the signal is idle.
func (s *Signal) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wake
}

// Wait blocks until the signal is idle or ctx ends.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return errors.Wrapf(exception.ErrRequestTimeout, "wait for completion, cause: %v", ctx.Err())
	}
}

// WaitTick is Wait calling tick every interval while still pending.
func (s *Signal) WaitTick(ctx context.Context, interval time.Duration, tick func()) error {
	if interval <= 0 || tick == nil {
		return s.Wait(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	done := s.Done()
	for {
		select {
		case <-done:
			return nil
		case <-ticker.C:
			tick()
		case <-ctx.Done():
			return errors.Wrapf(exception.ErrRequestTimeout, "wait for completion, cause: %v", ctx.Err())
		}
	}
}
