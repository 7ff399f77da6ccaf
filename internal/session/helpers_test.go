package session

import (
	"sync"
	"time"

	"fixharness/internal/fixmsg"
	"fixharness/internal/obs"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
)

var (
	testSessionID = quickfix.SessionID{BeginString: quickfix.BeginStringFIX44, SenderCompID: "HARNESS", TargetCompID: "FXCM"}
	testNow       = time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
)

type captureSender struct {
	mu   sync.Mutex
	msgs []*quickfix.Message
	err  error
}

func (s *captureSender) Send(msg *quickfix.Message, _ quickfix.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *captureSender) ofType(msgType string) []*quickfix.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*quickfix.Message
	for _, m := range s.msgs {
		if fixmsg.MsgType(m) == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (s *captureSender) reset() {
	s.mu.Lock()
	s.msgs = nil
	s.mu.Unlock()
}

func newTestApp() (*App, *captureSender, *obs.Metrics) {
	sender := &captureSender{}
	metrics := obs.NewMetrics()
	app := NewApp(Config{
		Credentials: Credentials{Username: "trader", Password: "secret"},
		Sender:      sender,
		Metrics:     metrics,
		Now:         func() time.Time { return testNow },
	})
	app.OnCreate(testSessionID)
	return app, sender, metrics
}

func inbound(msgType string) *quickfix.Message {
	msg := quickfix.NewMessage()
	msg.Header.SetString(tag.MsgType, msgType)
	return msg
}

func userResponse(status int) *quickfix.Message {
	msg := inbound(fixmsg.MsgTypeUserResponse)
	msg.Body.SetString(tag.UserRequestID, "1")
	msg.Body.SetString(tag.Username, "trader")
	msg.Body.SetInt(tag.UserStatus, status)
	return msg
}

func tradingSessionStatus(symbols ...string) *quickfix.Message {
	msg := inbound(fixmsg.MsgTypeTradingSessionStatus)
	msg.Body.SetString(tag.TradingSessionID, "FXCM")
	msg.Body.SetInt(tag.TradSesStatus, 2)
	if len(symbols) > 0 {
		related := quickfix.NewRepeatingGroup(tag.NoRelatedSym, quickfix.GroupTemplate{
			quickfix.GroupElement(tag.Symbol),
		})
		for _, s := range symbols {
			related.Add().SetString(tag.Symbol, s)
		}
		msg.Body.SetGroup(related)
	}
	return msg
}

// collateralReport leaves LastRptRequested out when last is nil.
func collateralReport(account string, last *bool) *quickfix.Message {
	msg := inbound(fixmsg.MsgTypeCollateralReport)
	if account != "" {
		msg.Body.SetString(tag.Account, account)
	}
	msg.Body.SetString(tag.Currency, "USD")
	msg.Body.SetString(tag.CashOutstanding, "1000.5")
	parties := quickfix.NewRepeatingGroup(tag.NoPartyIDs, quickfix.GroupTemplate{
		quickfix.GroupElement(tag.PartyID),
		quickfix.GroupElement(tag.PartyIDSource),
		quickfix.GroupElement(tag.PartyRole),
	})
	p := parties.Add()
	p.SetString(tag.PartyID, "FXCM ID")
	p.SetString(tag.PartyIDSource, "D")
	p.SetInt(tag.PartyRole, 3)
	msg.Body.SetGroup(parties)
	if last != nil {
		msg.Body.SetBool(tag.LastRptRequested, *last)
	}
	return msg
}

func marketDataSnapshot(symbol, minQty string) *quickfix.Message {
	msg := inbound(fixmsg.MsgTypeMarketDataSnapshot)
	if symbol != "" {
		msg.Body.SetString(tag.Symbol, symbol)
	}
	if minQty != "" {
		msg.Body.SetString(fixmsg.TagFXCMMinQuantity, minQty)
	}
	entries := quickfix.NewRepeatingGroup(tag.NoMDEntries, quickfix.GroupTemplate{
		quickfix.GroupElement(tag.MDEntryType),
		quickfix.GroupElement(tag.MDEntryPx),
	})
	bid := entries.Add()
	bid.SetString(tag.MDEntryType, fixmsg.MDEntryTypeBid)
	bid.SetString(tag.MDEntryPx, "1.0850")
	offer := entries.Add()
	offer.SetString(tag.MDEntryType, fixmsg.MDEntryTypeOffer)
	offer.SetString(tag.MDEntryPx, "1.0852")
	msg.Body.SetGroup(entries)
	return msg
}

func executionReport(orderID, clOrdID, account, ordStatus string) *quickfix.Message {
	msg := inbound(fixmsg.MsgTypeExecutionReport)
	if orderID != "" {
		msg.Body.SetString(tag.OrderID, orderID)
	}
	if clOrdID != "" {
		msg.Body.SetString(tag.ClOrdID, clOrdID)
	}
	if account != "" {
		msg.Body.SetString(tag.Account, account)
	}
	msg.Body.SetString(tag.ExecID, "E-"+orderID)
	msg.Body.SetString(tag.Symbol, "EUR/USD")
	msg.Body.SetString(tag.Side, fixmsg.SideSell)
	msg.Body.SetString(tag.OrdStatus, ordStatus)
	return msg
}

// positionReport leaves PosReqType out when posReqType is negative.
func positionReport(ticket, account string, posReqType int, marker string) *quickfix.Message {
	msg := inbound(fixmsg.MsgTypePositionReport)
	if ticket != "" {
		msg.Body.SetString(fixmsg.TagFXCMPosID, ticket)
	}
	msg.Body.SetString(tag.Account, account)
	msg.Body.SetString(tag.Symbol, "EUR/USD")
	if posReqType >= 0 {
		msg.Body.SetInt(tag.PosReqType, posReqType)
	}
	if marker != "" {
		msg.Body.SetString(tag.SecondaryClOrdID, marker)
	}
	return msg
}

func positionAck(result, total int) *quickfix.Message {
	msg := inbound(fixmsg.MsgTypeRequestForPositionsAck)
	msg.Body.SetString(tag.PosMaintRptID, "1")
	msg.Body.SetInt(tag.PosReqResult, result)
	msg.Body.SetInt(tag.TotalNumPosReports, total)
	return msg
}

func ptr[T any](v T) *T { return &v }

// discover feeds the app one account and the given instruments.
func discover(app *App, account string, symbols ...string) {
	app.FromApp(collateralReport(account, ptr(true)), testSessionID)
	for _, s := range symbols {
		app.FromApp(marketDataSnapshot(s, "1"), testSessionID)
	}
}
