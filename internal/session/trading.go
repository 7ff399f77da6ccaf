package session

import (
	"fixharness/internal/fixmsg"
	"fixharness/internal/model"
	"fixharness/internal/model/enum"
	"fixharness/internal/og"
	"fixharness/pkg/exception"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

// Accounts returns the known account ids.
func (a *App) Accounts() []string { return a.store.Accounts.Keys() }

// Instruments returns the known symbols.
func (a *App) Instruments() []string { return a.store.Instruments.Keys() }

// Orders returns the venue order ids seen so far.
func (a *App) Orders() []string { return a.store.Orders.Keys() }

// Positions returns the open position tickets.
func (a *App) Positions() []string { return a.store.Positions.Keys() }

// ResetPositions forgets every tracked ticket.
func (a *App) ResetPositions() { a.store.ResetPositions() }

// PositionReport returns the report stored for ticket.
func (a *App) PositionReport(ticket string) (model.PositionReport, bool) {
	return a.store.Positions.Get(ticket)
}

// Instrument returns the snapshot stored for symbol.
func (a *App) Instrument(symbol string) (model.Instrument, bool) {
	return a.store.Instruments.Get(symbol)
}

// OrderQuantity is the order size used for symbol.
func (a *App) OrderQuantity(symbol string) (decimal.Decimal, error) {
	inst, ok := a.store.Instruments.Get(symbol)
	if !ok {
		return decimal.Zero, errors.Wrapf(exception.ErrUnknownInstrument, "symbol: %s", symbol)
	}
	qty, ok := inst.OrderQuantity()
	if !ok {
		return decimal.Zero, errors.Wrapf(exception.ErrMissingMinQuantity, "symbol: %s", symbol)
	}
	return qty, nil
}

// RefreshPositions requests the open positions of account and marks a
// request as outstanding.
func (a *App) RefreshPositions(account string) error {
	acct, ok := a.store.Accounts.Get(account)
	if !ok {
		return errors.Wrapf(exception.ErrUnknownAccount, "account: %s", account)
	}
	a.signal.Begin()
	a.send(a.requests.RequestForPositions(acct, fixmsg.PosReqTypePositions))
	return nil
}

// PlaceMarketOrder sends a minimum size market order carrying the marker and
// returns a ticket resolved by the first execution report for it.
func (a *App) PlaceMarketOrder(account string, side enum.Side, symbol string) (*og.Ticket, error) {
	if !side.IsAvailable() {
		return nil, errors.Wrapf(exception.ErrInvalidArgument, "side: %d", side)
	}
	acct, ok := a.store.Accounts.Get(account)
	if !ok {
		return nil, errors.Wrapf(exception.ErrUnknownAccount, "account: %s", account)
	}
	qty, err := a.OrderQuantity(symbol)
	if err != nil {
		return nil, err
	}
	sessionID, ok := a.SessionID()
	if !ok {
		return nil, exception.ErrNoSession
	}

	req := OrderRequest{
		ClOrdID: a.requests.ClOrdID(sessionID),
		Account: acct.ID,
		Symbol:  symbol,
		Side:    side,
		Qty:     qty,
		Marker:  a.cfg.Marker,
	}
	ticket, err := a.gateway.Track(og.Intent{
		ClOrdID: req.ClOrdID,
		Account: req.Account,
		Symbol:  req.Symbol,
		Side:    req.Side,
		Qty:     req.Qty,
		SentAt:  a.cfg.Now(),
	})
	if err != nil {
		return nil, err
	}

	a.signal.Begin()
	a.send(a.requests.NewOrderSingle(req))
	a.cfg.Metrics.IncOrderSent()
	return ticket, nil
}
