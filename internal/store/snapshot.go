package store

import (
	"os"
	"path/filepath"
	"time"

	"fixharness/internal/model"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
)

// Snapshot captures the store at a point in time.
type Snapshot struct {
	Timestamp   int64                   `json:"timestamp"`
	Accounts    []model.Account         `json:"accounts"`
	Orders      []model.ExecutionReport `json:"orders"`
	Positions   []model.PositionReport  `json:"positions"`
	Instruments []model.Instrument      `json:"instruments"`
}

// Snapshot builds a snapshot with every collection ordered by key.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:   time.Now().UTC().UnixNano(),
		Accounts:    s.Accounts.Values(),
		Orders:      s.Orders.Values(),
		Positions:   s.Positions.Values(),
		Instruments: s.Instruments.Values(),
	}
}

// WriteSnapshot writes a snapshot to disk as JSON.
func WriteSnapshot(path string, snapshot Snapshot) error {
	data, err := sonic.ConfigStd.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create snapshot dir")
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a snapshot from disk.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := sonic.ConfigStd.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, errors.Wrap(err, "unmarshal snapshot")
	}
	return snap, nil
}

// Tickets returns the position tickets in the snapshot.
func (s Snapshot) Tickets() []string {
	tickets := make([]string, 0, len(s.Positions))
	for _, p := range s.Positions {
		tickets = append(tickets, p.Ticket)
	}
	return tickets
}
