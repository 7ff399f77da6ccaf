// Package reconcile keeps trading cycle reports in PostgreSQL so offsets can
// be checked against the venue afterwards.
package reconcile

import (
	"time"

	"fixharness/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CycleRecord is one trading cycle.
type CycleRecord struct {
	ID           string    `gorm:"primaryKey;type:uuid"`
	StartedAt    time.Time `gorm:"index"`
	FinishedAt   time.Time
	Accounts     int
	Instruments  int
	OrdersSent   int
	OrdersDenied int
	Tickets      int
	Err          string
	Offsets      []OffsetRecord `gorm:"foreignKey:CycleID;constraint:OnDelete:CASCADE"`
}

func (CycleRecord) TableName() string { return "harness_cycles" }

// OffsetRecord is a buy sent to close a harness position.
type OffsetRecord struct {
	ID      uint   `gorm:"primaryKey"`
	CycleID string `gorm:"type:uuid;index"`
	Ticket  string `gorm:"index"`
	Account string `gorm:"index"`
	Symbol  string
	ClOrdID string          `gorm:"uniqueIndex"`
	Qty     decimal.Decimal `gorm:"type:numeric(24,8)"`
}

func (OffsetRecord) TableName() string { return "harness_offsets" }

func toRecord(r workflow.Report) CycleRecord {
	rec := CycleRecord{
		ID:           r.ID.String(),
		StartedAt:    r.StartedAt.UTC(),
		FinishedAt:   r.FinishedAt.UTC(),
		Accounts:     r.Accounts,
		Instruments:  r.Instruments,
		OrdersSent:   r.OrdersSent,
		OrdersDenied: r.OrdersDenied,
		Tickets:      r.Tickets,
		Err:          r.Err,
		Offsets:      make([]OffsetRecord, 0, len(r.Offsets)),
	}
	for _, o := range r.Offsets {
		rec.Offsets = append(rec.Offsets, OffsetRecord{
			CycleID: rec.ID,
			Ticket:  o.Ticket,
			Account: o.Account,
			Symbol:  o.Symbol,
			ClOrdID: o.ClOrdID,
			Qty:     o.Qty,
		})
	}
	return rec
}

func fromRecord(rec CycleRecord) (workflow.Report, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return workflow.Report{}, err
	}
	r := workflow.Report{
		ID:           id,
		StartedAt:    rec.StartedAt,
		FinishedAt:   rec.FinishedAt,
		Accounts:     rec.Accounts,
		Instruments:  rec.Instruments,
		OrdersSent:   rec.OrdersSent,
		OrdersDenied: rec.OrdersDenied,
		Tickets:      rec.Tickets,
		Err:          rec.Err,
	}
	for _, o := range rec.Offsets {
		r.Offsets = append(r.Offsets, workflow.Offset{
			Ticket:  o.Ticket,
			Account: o.Account,
			Symbol:  o.Symbol,
			ClOrdID: o.ClOrdID,
			Qty:     o.Qty,
		})
	}
	return r, nil
}
