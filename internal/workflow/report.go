package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Offset is a buy sent to close a position opened by the harness.
type Offset struct {
	Ticket  string          `json:"ticket"`
	Account string          `json:"account"`
	Symbol  string          `json:"symbol"`
	ClOrdID string          `json:"clOrdId"`
	Qty     decimal.Decimal `json:"qty"`
}

// Report summarizes one trading cycle.
type Report struct {
	ID           uuid.UUID `json:"id"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
	Accounts     int       `json:"accounts"`
	Instruments  int       `json:"instruments"`
	OrdersSent   int       `json:"ordersSent"`
	OrdersDenied int       `json:"ordersDenied"`
	Tickets      int       `json:"tickets"`
	Offsets      []Offset  `json:"offsets"`
	Err          string    `json:"err,omitempty"`
}

// Failed reports whether the cycle was abandoned.
func (r Report) Failed() bool {
	return r.Err != ""
}

// Reporter receives the report of every finished cycle.
type Reporter interface {
	Report(ctx context.Context, report Report) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, report Report) error

func (f ReporterFunc) Report(ctx context.Context, report Report) error {
	return f(ctx, report)
}
