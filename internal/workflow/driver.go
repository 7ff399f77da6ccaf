// Package workflow drives one trading cycle against a logged in venue:
// sell the minimum size of every instrument on every account, then buy back
// what the cycle opened.
package workflow

import (
	"context"
	"fmt"
	"time"

	"fixharness/internal/completion"
	"fixharness/internal/model"
	"fixharness/internal/model/enum"
	"fixharness/internal/obs"
	"fixharness/internal/og"
	"fixharness/internal/risk"
	"fixharness/pkg/exception"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Venue is what the driver needs from the session application.
type Venue interface {
	ResetPositions()
	Positions() []string
	PositionReport(ticket string) (model.PositionReport, bool)
	RefreshPositions(account string) error

	Accounts() []string
	Instruments() []string
	Instrument(symbol string) (model.Instrument, bool)
	OrderQuantity(symbol string) (decimal.Decimal, error)

	PlaceMarketOrder(account string, side enum.Side, symbol string) (*og.Ticket, error)
	Signal() *completion.Signal
}

// Config tunes the cycle. Zero values fall back to defaults.
type Config struct {
	Marker           string
	SettleInterval   time.Duration
	StepTimeout      time.Duration
	ProgressInterval time.Duration
}

const (
	DefaultSettleInterval   = 5 * time.Second
	DefaultStepTimeout      = 30 * time.Second
	DefaultProgressInterval = 500 * time.Millisecond
)

// Driver runs trading cycles. A Driver is not safe for concurrent Run calls.
type Driver struct {
	cfg       Config
	venue     Venue
	risk      *risk.Engine
	metrics   *obs.Metrics
	reporters []Reporter
	now       func() time.Time
}

// Option customizes a Driver.
type Option func(*Driver)

// WithRisk evaluates every order against engine before it is sent.
func WithRisk(engine *risk.Engine) Option {
	return func(d *Driver) { d.risk = engine }
}

// WithMetrics records wait latencies and risk denials.
func WithMetrics(m *obs.Metrics) Option {
	return func(d *Driver) { d.metrics = m }
}

// WithReporter hands every cycle report to r.
func WithReporter(r Reporter) Option {
	return func(d *Driver) { d.reporters = append(d.reporters, r) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// NewDriver creates a driver trading through venue.
func NewDriver(venue Venue, cfg Config, opts ...Option) *Driver {
	if cfg.SettleInterval < 0 {
		cfg.SettleInterval = 0
	} else if cfg.SettleInterval == 0 {
		cfg.SettleInterval = DefaultSettleInterval
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultStepTimeout
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	d := &Driver{cfg: cfg, venue: venue, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes one cycle. It always logs its end and hands the report to the
// reporters, including when the cycle is abandoned.
func (d *Driver) Run(ctx context.Context) Report {
	report := Report{ID: uuid.New(), StartedAt: d.now()}

	if err := d.run(ctx, &report); err != nil {
		report.Err = err.Error()
		logs.Errorf("trading cycle %s abandoned, err: %+v", report.ID, err)
	}
	report.FinishedAt = d.now()
	logs.Info("Done trading")

	for _, r := range d.reporters {
		if err := r.Report(ctx, report); err != nil {
			logs.Errorf("report trading cycle %s, err: %+v", report.ID, err)
		}
	}
	return report
}

func (d *Driver) run(ctx context.Context, report *Report) error {
	d.venue.ResetPositions()
	logs.Info("Begining trading")
	if err := d.waitIdle(ctx, nil); err != nil {
		return errors.Wrap(err, "wait for account discovery")
	}

	accounts := d.venue.Accounts()
	instruments := d.venue.Instruments()
	report.Accounts = len(accounts)
	report.Instruments = len(instruments)
	logs.Infof("trading %d accounts, %d instruments", len(accounts), len(instruments))

	for _, account := range accounts {
		for _, symbol := range instruments {
			sent, err := d.trade(ctx, account, enum.SideSell, symbol)
			if err != nil {
				return err
			}
			if sent {
				report.OrdersSent++
			} else {
				report.OrdersDenied++
			}
		}
	}

	if err := d.settle(ctx); err != nil {
		return err
	}

	for _, account := range accounts {
		if err := d.venue.RefreshPositions(account); err != nil {
			return errors.Wrapf(err, "refresh positions of %s", account)
		}
		if err := d.waitIdle(ctx, nil); err != nil {
			return errors.Wrapf(err, "wait for positions of %s", account)
		}
	}

	tickets := d.venue.Positions()
	report.Tickets = len(tickets)
	for _, ticket := range tickets {
		pos, ok := d.venue.PositionReport(ticket)
		if !ok || !pos.OpenedBy(d.cfg.Marker) {
			continue
		}
		qty, err := d.venue.OrderQuantity(pos.Symbol)
		if err != nil {
			return errors.Wrapf(err, "size offset of ticket %s", ticket)
		}
		clOrdID, err := d.place(ctx, pos.Account, enum.SideBuy, pos.Symbol, qty)
		if err != nil {
			return errors.Wrapf(err, "offset ticket %s", ticket)
		}
		if clOrdID == "" {
			report.OrdersDenied++
			continue
		}
		report.OrdersSent++
		report.Offsets = append(report.Offsets, Offset{
			Ticket:  ticket,
			Account: pos.Account,
			Symbol:  pos.Symbol,
			ClOrdID: clOrdID,
			Qty:     qty,
		})
	}
	return nil
}

// trade places one minimum size order and reports false when risk denied it.
func (d *Driver) trade(ctx context.Context, account string, side enum.Side, symbol string) (bool, error) {
	qty, err := d.venue.OrderQuantity(symbol)
	if err != nil {
		return false, errors.Wrapf(err, "size %s order on %s", side, account)
	}
	clOrdID, err := d.place(ctx, account, side, symbol, qty)
	if err != nil {
		return false, errors.Wrapf(err, "%s %s on %s", side, symbol, account)
	}
	return clOrdID != "", nil
}

// place sends a market order and waits for its first report and for the
// signal. An empty client order id means risk denied the order.
func (d *Driver) place(ctx context.Context, account string, side enum.Side, symbol string, qty decimal.Decimal) (string, error) {
	decision := d.risk.Evaluate(risk.Order{
		Account: account,
		Symbol:  symbol,
		Side:    side,
		Qty:     qty,
		Price:   d.referencePrice(side, symbol),
	}, d.now())
	if !decision.Allowed() {
		d.metrics.IncRiskReason(decision.Reason)
		logs.Warnf("%s %s %s on %s, err: %+v", side, qty, symbol, account,
			errors.Wrapf(exception.ErrRiskDenied, "reason: %s", decision.Reason))
		return "", nil
	}

	ticket, err := d.venue.PlaceMarketOrder(account, side, symbol)
	if err != nil {
		return "", err
	}

	stepCtx, cancel := context.WithTimeout(ctx, d.cfg.StepTimeout)
	defer cancel()

	// A rejected order still counts as answered.
	if rep, err := ticket.Wait(stepCtx); err != nil {
		if !rep.Rejected() {
			return "", err
		}
		logs.Warnf("order %s rejected, err: %+v", ticket.ClOrdID, err)
	}

	if err := d.waitIdle(ctx, nil); err != nil {
		return "", err
	}
	return ticket.ClOrdID, nil
}

// referencePrice is the side of the book the order would hit.
func (d *Driver) referencePrice(side enum.Side, symbol string) decimal.Decimal {
	inst, ok := d.venue.Instrument(symbol)
	if !ok {
		return decimal.Zero
	}
	if side == enum.SideSell {
		return inst.Bid
	}
	return inst.Offer
}

func (d *Driver) settle(ctx context.Context) error {
	if d.cfg.SettleInterval > 0 {
		timer := time.NewTimer(d.cfg.SettleInterval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return errors.Wrapf(exception.ErrRequestTimeout, "settle, cause: %v", ctx.Err())
		case <-timer.C:
		}
	}
	return d.waitIdle(ctx, func() { fmt.Print(".") })
}

func (d *Driver) waitIdle(ctx context.Context, tick func()) error {
	stepCtx, cancel := context.WithTimeout(ctx, d.cfg.StepTimeout)
	defer cancel()

	start := d.now()
	var err error
	if tick != nil {
		err = d.venue.Signal().WaitTick(stepCtx, d.cfg.ProgressInterval, tick)
	} else {
		err = d.venue.Signal().Wait(stepCtx)
	}
	d.metrics.ObserveWait(d.now().Sub(start))
	return err
}
