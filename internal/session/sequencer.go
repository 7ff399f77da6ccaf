package session

import (
	"sync"

	"fixharness/pkg/exception"

	"github.com/yanun0323/errors"
)

// Phase is a step of the login and discovery sequence.
type Phase uint8

const (
	PhaseSessionCreated Phase = iota
	PhaseAuthenticating
	PhaseSessionActive
	PhaseAccountsDiscovered
	PhaseMarketDataSubscribed
)

func (p Phase) String() string {
	switch p {
	case PhaseSessionCreated:
		return "session_created"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseSessionActive:
		return "session_active"
	case PhaseAccountsDiscovered:
		return "accounts_discovered"
	case PhaseMarketDataSubscribed:
		return "market_data_subscribed"
	default:
		return "unknown"
	}
}

var transitions = map[Phase][]Phase{
	PhaseSessionCreated:       {PhaseAuthenticating},
	PhaseAuthenticating:       {PhaseSessionActive},
	PhaseSessionActive:        {PhaseAccountsDiscovered},
	PhaseAccountsDiscovered:   {PhaseMarketDataSubscribed},
	PhaseMarketDataSubscribed: {PhaseAccountsDiscovered},
}

// Sequencer tracks the login and discovery sequence driven by engine callbacks.
type Sequencer struct {
	mu    sync.RWMutex
	phase Phase
}

// NewSequencer starts in PhaseSessionCreated.
func NewSequencer() *Sequencer {
	return &Sequencer{phase: PhaseSessionCreated}
}

// Phase returns the current phase.
func (s *Sequencer) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Advance moves to next when the transition is allowed. A rejected transition
// still moves the sequencer so that it follows what the venue actually sent.
func (s *Sequencer) Advance(next Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.phase
	s.phase = next
	for _, allowed := range transitions[prev] {
		if allowed == next {
			return nil
		}
	}
	return errors.Wrapf(exception.ErrInvalidTransition, "from %s to %s", prev, next)
}

// Reset returns to PhaseSessionCreated.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	s.phase = PhaseSessionCreated
	s.mu.Unlock()
}
