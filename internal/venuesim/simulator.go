// Package venuesim is an in-process venue speaking the same FIX dialect as
// the live venue. It answers harness requests synchronously and delivers its
// replies to the application from a single goroutine, the way the engine does.
package venuesim

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"fixharness/internal/chaos"
	"fixharness/internal/fixmsg"
	"fixharness/pkg/exception"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const (
	defaultInboxSize = 4096
	flushInterval    = 20 * time.Millisecond
)

// InstrumentSpec is an instrument offered by the simulator.
type InstrumentSpec struct {
	Symbol      string
	MinQuantity decimal.Decimal
	Bid         decimal.Decimal
	Offer       decimal.Decimal
}

// PositionSpec is a position that exists before the session starts.
type PositionSpec struct {
	Ticket string
	Symbol string
	Marker string
}

// AccountSpec is an account of the simulated login.
type AccountSpec struct {
	ID        string
	Positions []PositionSpec
}

// Config describes the simulated venue.
type Config struct {
	Username    string
	Password    string
	Accounts    []AccountSpec
	Instruments []InstrumentSpec
	// OpenOn lists the symbols on which a sell opens a new position ticket.
	// Sells on other symbols fill without opening one.
	OpenOn    []string
	InboxSize int
	// Chaos injects delivery faults into the replies.
	Chaos chaos.Config
}

// Fill is an order the simulator executed.
type Fill struct {
	ClOrdID string
	OrderID string
	Account string
	Symbol  string
	Side    string
	Qty     decimal.Decimal
	Marker  string
}

type position struct {
	ticket  string
	account string
	symbol  string
	marker  string
}

// Simulator implements session.Sender and delivers replies to an application.
type Simulator struct {
	cfg    Config
	openOn map[string]struct{}
	inbox  chan *quickfix.Message
	faults *chaos.Engine[*quickfix.Message]

	mu        sync.Mutex
	app       quickfix.Application
	sessionID quickfix.SessionID
	fills     []Fill
	positions map[string][]position
	nextOrder int
	nextPos   int
}

// New creates a simulator for cfg.
func New(cfg Config) (*Simulator, error) {
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = defaultInboxSize
	}
	var faults *chaos.Engine[*quickfix.Message]
	if cfg.Chaos.Enabled() {
		var err error
		if faults, err = chaos.NewEngine[*quickfix.Message](cfg.Chaos); err != nil {
			return nil, err
		}
	}
	s := &Simulator{
		cfg:       cfg,
		openOn:    make(map[string]struct{}, len(cfg.OpenOn)),
		inbox:     make(chan *quickfix.Message, cfg.InboxSize),
		positions: make(map[string][]position, len(cfg.Accounts)),
		faults:    faults,
	}
	for _, sym := range cfg.OpenOn {
		s.openOn[sym] = struct{}{}
	}
	for _, acct := range cfg.Accounts {
		for _, p := range acct.Positions {
			s.positions[acct.ID] = append(s.positions[acct.ID], position{
				ticket:  p.Ticket,
				account: acct.ID,
				symbol:  p.Symbol,
				marker:  p.Marker,
			})
		}
	}
	return s, nil
}

// Attach creates and logs on a session for app. Replies start flowing once
// Run is called.
func (s *Simulator) Attach(app quickfix.Application, sessionID quickfix.SessionID) {
	s.mu.Lock()
	s.app = app
	s.sessionID = sessionID
	s.mu.Unlock()

	app.OnCreate(sessionID)
	app.OnLogon(sessionID)
}

// Run delivers queued replies to the attached application until ctx ends.
func (s *Simulator) Run(ctx context.Context) {
	flush := time.NewTicker(flushInterval)
	defer flush.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-flush.C:
			for _, msg := range s.faults.Flush() {
				if err := s.enqueue(msg); err != nil {
					logs.Warnf("simulator flush, err: %+v", err)
				}
			}
		case msg := <-s.inbox:
			if d := s.faults.Delay(); d > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(d):
				}
			}
			s.mu.Lock()
			app, sessionID := s.app, s.sessionID
			s.mu.Unlock()
			if app == nil {
				continue
			}
			if err := app.FromApp(msg, sessionID); err != nil {
				logs.Warnf("simulator delivery rejected, err: %+v", err)
			}
		}
	}
}

// Fills returns a copy of the executed orders in execution order.
func (s *Simulator) Fills() []Fill {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Fill, len(s.fills))
	copy(out, s.fills)
	return out
}

// OpenTickets returns the open tickets of account.
func (s *Simulator) OpenTickets(account string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tickets := make([]string, 0, len(s.positions[account]))
	for _, p := range s.positions[account] {
		tickets = append(tickets, p.ticket)
	}
	return tickets
}

// Send answers one outbound harness message.
func (s *Simulator) Send(msg *quickfix.Message, _ quickfix.SessionID) error {
	switch msgType := fixmsg.MsgType(msg); msgType {
	case fixmsg.MsgTypeUserRequest:
		return s.onUserRequest(msg)
	case fixmsg.MsgTypeTradingSessionStatusRequest:
		return s.onTradingSessionStatusRequest()
	case fixmsg.MsgTypeCollateralInquiry:
		return s.onCollateralInquiry()
	case fixmsg.MsgTypeMarketDataRequest:
		return s.onMarketDataRequest(msg)
	case fixmsg.MsgTypeSecurityStatusRequest:
		return nil
	case fixmsg.MsgTypeRequestForPositions:
		return s.onRequestForPositions(msg)
	case fixmsg.MsgTypeNewOrderSingle:
		return s.onNewOrderSingle(msg)
	default:
		return errors.Wrapf(exception.ErrUnsupportedMsgType, "msg type: %s", msgType)
	}
}

func (s *Simulator) deliver(msg *quickfix.Message) error {
	for _, out := range s.faults.Process(msg) {
		if err := s.enqueue(out); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) enqueue(msg *quickfix.Message) error {
	select {
	case s.inbox <- msg:
		return nil
	default:
		return exception.ErrQueueFull
	}
}

func reply(msgType string) *quickfix.Message {
	msg := quickfix.NewMessage()
	msg.Header.SetString(tag.MsgType, msgType)
	return msg
}

func (s *Simulator) onUserRequest(msg *quickfix.Message) error {
	username, _ := fixmsg.String(&msg.Body, tag.Username)
	password, _ := fixmsg.String(&msg.Body, tag.Password)
	requestID, _ := fixmsg.String(&msg.Body, tag.UserRequestID)

	status := fixmsg.UserStatusLoggedIn
	if (s.cfg.Username != "" && username != s.cfg.Username) || (s.cfg.Password != "" && password != s.cfg.Password) {
		status = 4
	}

	resp := reply(fixmsg.MsgTypeUserResponse)
	resp.Body.SetString(tag.UserRequestID, requestID)
	resp.Body.SetString(tag.Username, username)
	resp.Body.SetInt(tag.UserStatus, status)
	return s.deliver(resp)
}

func (s *Simulator) onTradingSessionStatusRequest() error {
	resp := reply(fixmsg.MsgTypeTradingSessionStatus)
	resp.Body.SetString(tag.TradingSessionID, "FXCM")
	resp.Body.SetInt(tag.TradSesStatus, 2)
	related := quickfix.NewRepeatingGroup(tag.NoRelatedSym, quickfix.GroupTemplate{
		quickfix.GroupElement(tag.Symbol),
		quickfix.GroupElement(fixmsg.TagFXCMMinQuantity),
	})
	for _, inst := range s.cfg.Instruments {
		g := related.Add()
		g.SetString(tag.Symbol, inst.Symbol)
		g.SetString(fixmsg.TagFXCMMinQuantity, inst.MinQuantity.String())
	}
	resp.Body.SetGroup(related)
	return s.deliver(resp)
}

func (s *Simulator) onCollateralInquiry() error {
	for i, acct := range s.cfg.Accounts {
		resp := reply(fixmsg.MsgTypeCollateralReport)
		resp.Body.SetString(tag.Account, acct.ID)
		resp.Body.SetString(tag.Currency, "USD")
		resp.Body.SetString(tag.CashOutstanding, "50000")
		parties := quickfix.NewRepeatingGroup(tag.NoPartyIDs, quickfix.GroupTemplate{
			quickfix.GroupElement(tag.PartyID),
			quickfix.GroupElement(tag.PartyIDSource),
			quickfix.GroupElement(tag.PartyRole),
		})
		p := parties.Add()
		p.SetString(tag.PartyID, "FXCM ID")
		p.SetString(tag.PartyIDSource, "D")
		p.SetInt(tag.PartyRole, 3)
		resp.Body.SetGroup(parties)
		resp.Body.SetBool(tag.LastRptRequested, i == len(s.cfg.Accounts)-1)
		if err := s.deliver(resp); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) onMarketDataRequest(msg *quickfix.Message) error {
	symbols, _ := fixmsg.GroupValues(fixmsg.FieldsOf(msg), tag.NoRelatedSym, tag.Symbol)
	wanted := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		wanted[sym] = struct{}{}
	}
	for _, inst := range s.cfg.Instruments {
		if _, ok := wanted[inst.Symbol]; !ok {
			continue
		}
		resp := reply(fixmsg.MsgTypeMarketDataSnapshot)
		resp.Body.SetString(tag.Symbol, inst.Symbol)
		resp.Body.SetString(fixmsg.TagFXCMMinQuantity, inst.MinQuantity.String())
		entries := quickfix.NewRepeatingGroup(tag.NoMDEntries, quickfix.GroupTemplate{
			quickfix.GroupElement(tag.MDEntryType),
			quickfix.GroupElement(tag.MDEntryPx),
		})
		for _, e := range []struct {
			typ string
			px  decimal.Decimal
		}{
			{fixmsg.MDEntryTypeBid, inst.Bid},
			{fixmsg.MDEntryTypeOffer, inst.Offer},
		} {
			g := entries.Add()
			g.SetString(tag.MDEntryType, e.typ)
			g.SetString(tag.MDEntryPx, e.px.String())
		}
		resp.Body.SetGroup(entries)
		if err := s.deliver(resp); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) onRequestForPositions(msg *quickfix.Message) error {
	account, err := fixmsg.RequireString(&msg.Body, tag.Account)
	if err != nil {
		return err
	}
	posReqID, _ := fixmsg.String(&msg.Body, tag.PosReqID)

	s.mu.Lock()
	open := append([]position(nil), s.positions[account]...)
	s.mu.Unlock()

	ack := reply(fixmsg.MsgTypeRequestForPositionsAck)
	ack.Body.SetString(tag.PosMaintRptID, posReqID)
	ack.Body.SetString(tag.PosReqID, posReqID)
	ack.Body.SetString(tag.Account, account)
	ack.Body.SetInt(tag.TotalNumPosReports, len(open))
	if len(open) == 0 {
		ack.Body.SetInt(tag.PosReqResult, 2)
		ack.Body.SetString(tag.Text, "no positions")
		return s.deliver(ack)
	}
	ack.Body.SetInt(tag.PosReqResult, fixmsg.PosReqResultValid)
	if err := s.deliver(ack); err != nil {
		return err
	}

	for _, p := range open {
		if err := s.deliver(positionReport(p, posReqID, fixmsg.PosReqTypePositions)); err != nil {
			return err
		}
	}
	return nil
}

func positionReport(p position, posReqID string, posReqType int) *quickfix.Message {
	resp := reply(fixmsg.MsgTypePositionReport)
	resp.Body.SetString(fixmsg.TagFXCMPosID, p.ticket)
	resp.Body.SetString(tag.PosMaintRptID, p.ticket)
	resp.Body.SetString(tag.PosReqID, posReqID)
	resp.Body.SetInt(tag.PosReqType, posReqType)
	resp.Body.SetString(tag.Account, p.account)
	resp.Body.SetString(tag.Symbol, p.symbol)
	if p.marker != "" {
		resp.Body.SetString(tag.SecondaryClOrdID, p.marker)
	}
	return resp
}

func (s *Simulator) onNewOrderSingle(msg *quickfix.Message) error {
	body := &msg.Body
	clOrdID, err := fixmsg.RequireString(body, tag.ClOrdID)
	if err != nil {
		return err
	}
	account, _ := fixmsg.String(body, tag.Account)
	symbol, _ := fixmsg.String(body, tag.Symbol)
	side, _ := fixmsg.String(body, tag.Side)
	marker, _ := fixmsg.String(body, tag.SecondaryClOrdID)
	qty, _ := fixmsg.Decimal(body, tag.OrderQty)

	s.mu.Lock()
	s.nextOrder++
	orderID := "SIM-" + strconv.Itoa(s.nextOrder)
	known := s.knownAccount(account)
	var closed *position
	if known {
		s.fills = append(s.fills, Fill{
			ClOrdID: clOrdID,
			OrderID: orderID,
			Account: account,
			Symbol:  symbol,
			Side:    side,
			Qty:     qty,
			Marker:  marker,
		})
		closed = s.applyFill(account, symbol, side, marker)
	}
	s.mu.Unlock()

	resp := reply(fixmsg.MsgTypeExecutionReport)
	resp.Body.SetString(tag.OrderID, orderID)
	resp.Body.SetString(tag.ClOrdID, clOrdID)
	resp.Body.SetString(tag.ExecID, fmt.Sprintf("EX-%s", orderID))
	resp.Body.SetString(tag.SecondaryClOrdID, marker)
	resp.Body.SetString(tag.Account, account)
	resp.Body.SetString(tag.Symbol, symbol)
	resp.Body.SetString(tag.Side, side)
	resp.Body.SetString(tag.OrderQty, qty.String())
	resp.Body.SetString(tag.TransactTime, time.Now().UTC().Format(fixmsg.LayoutUTCTimestamp))
	if known {
		resp.Body.SetString(tag.OrdStatus, fixmsg.OrdStatusFilled)
		resp.Body.SetString(tag.ExecType, "F")
		resp.Body.SetString(tag.CumQty, qty.String())
		resp.Body.SetString(tag.LeavesQty, "0")
	} else {
		resp.Body.SetString(tag.OrdStatus, fixmsg.OrdStatusRejected)
		resp.Body.SetString(tag.ExecType, "8")
		resp.Body.SetString(tag.Text, "unknown account")
	}
	if err := s.deliver(resp); err != nil {
		return err
	}

	if closed != nil {
		return s.deliver(positionReport(*closed, "", fixmsg.PosReqTypeTrades))
	}
	return nil
}

func (s *Simulator) knownAccount(account string) bool {
	for _, a := range s.cfg.Accounts {
		if a.ID == account {
			return true
		}
	}
	return false
}

// applyFill opens a ticket on a sell of an OpenOn symbol and closes the
// oldest marked ticket on a buy of the same symbol. Caller holds s.mu.
func (s *Simulator) applyFill(account, symbol, side, marker string) *position {
	switch side {
	case fixmsg.SideSell:
		if _, ok := s.openOn[symbol]; !ok {
			return nil
		}
		s.nextPos++
		s.positions[account] = append(s.positions[account], position{
			ticket:  "SIMPOS-" + strconv.Itoa(s.nextPos),
			account: account,
			symbol:  symbol,
			marker:  marker,
		})
	case fixmsg.SideBuy:
		open := s.positions[account]
		for i, p := range open {
			if p.symbol == symbol && p.marker != "" && strings.EqualFold(p.marker, marker) {
				s.positions[account] = append(open[:i:i], open[i+1:]...)
				return &p
			}
		}
	}
	return nil
}
