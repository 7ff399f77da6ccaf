package store

import "fixharness/internal/model"

// Store groups the four collections reduced from venue messages.
type Store struct {
	Accounts    *Collection[string, model.Account]
	Orders      *Collection[string, model.ExecutionReport]
	Positions   *Collection[string, model.PositionReport]
	Instruments *Collection[string, model.Instrument]
}

// New returns an empty store.
func New() *Store {
	return &Store{
		Accounts:    NewCollection[string, model.Account](),
		Orders:      NewCollection[string, model.ExecutionReport](),
		Positions:   NewCollection[string, model.PositionReport](),
		Instruments: NewCollection[string, model.Instrument](),
	}
}

// ResetPositions clears every tracked ticket.
func (s *Store) ResetPositions() {
	s.Positions.Reset()
}
