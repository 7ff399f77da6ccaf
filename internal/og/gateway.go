// Package og tracks orders sent by the harness from intent to terminal state
// and lets the driver wait on each of them individually.
package og

import (
	"context"
	"sync"

	"fixharness/internal/model"
	"fixharness/pkg/exception"

	"github.com/yanun0323/errors"
)

// Ticket resolves with the first execution report received for an order.
type Ticket struct {
	ClOrdID string

	once   sync.Once
	done   chan struct{}
	report model.ExecutionReport
}

func newTicket(clOrdID string) *Ticket {
	return &Ticket{ClOrdID: clOrdID, done: make(chan struct{})}
}

func (t *Ticket) resolve(rep model.ExecutionReport) {
	t.once.Do(func() {
		t.report = rep
		close(t.done)
	})
}

// Done returns a channel closed once the ticket resolves.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the venue answers the order or ctx ends.
func (t *Ticket) Wait(ctx context.Context) (model.ExecutionReport, error) {
	select {
	case <-t.done:
		if t.report.Rejected() {
			return t.report, errors.Wrapf(exception.ErrOrderRejected, "clOrdID: %s, text: %s", t.ClOrdID, t.report.Text)
		}
		return t.report, nil
	case <-ctx.Done():
		return model.ExecutionReport{}, errors.Wrapf(exception.ErrRequestTimeout, "wait for order %s, cause: %v", t.ClOrdID, ctx.Err())
	}
}

// Gateway keeps the tickets of orders awaiting their first report.
type Gateway struct {
	state *StateMachine

	mu      sync.Mutex
	pending map[string]*Ticket
}

// NewGateway creates an empty gateway.
func NewGateway() *Gateway {
	return &Gateway{
		state:   NewStateMachine(),
		pending: make(map[string]*Ticket),
	}
}

// State returns the underlying order state machine.
func (g *Gateway) State() *StateMachine {
	return g.state
}

// Track registers a new order and returns its ticket.
func (g *Gateway) Track(intent Intent) (*Ticket, error) {
	if _, err := g.state.ApplyIntent(intent); err != nil {
		return nil, errors.Wrapf(err, "track %s", intent.ClOrdID)
	}
	t := newTicket(intent.ClOrdID)

	g.mu.Lock()
	g.pending[intent.ClOrdID] = t
	g.mu.Unlock()
	return t, nil
}

// Resolve applies an execution report and releases the ticket waiting on it.
// Reports for orders the harness did not send return ErrUnknownOrder.
func (g *Gateway) Resolve(rep model.ExecutionReport) (Order, error) {
	order, err := g.state.ApplyReport(rep)
	if err != nil {
		return order, err
	}

	g.mu.Lock()
	t, ok := g.pending[rep.ClOrdID]
	if ok {
		delete(g.pending, rep.ClOrdID)
	}
	g.mu.Unlock()

	if ok {
		t.resolve(rep)
	}
	return order, nil
}

// Pending returns the number of orders still waiting for a first report.
func (g *Gateway) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}
