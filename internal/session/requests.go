package session

import (
	"fmt"
	"strconv"
	"time"

	"fixharness/internal/fixmsg"
	"fixharness/internal/idgen"
	"fixharness/internal/model"
	"fixharness/internal/model/enum"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/shopspring/decimal"
)

// Credentials identify the trading user. An empty Pin is not sent.
type Credentials struct {
	Username string
	Password string
	Pin      string
}

// OrderRequest holds the fields of a market order.
type OrderRequest struct {
	ClOrdID string
	Account string
	Symbol  string
	Side    enum.Side
	Qty     decimal.Decimal
	Marker  string
}

// RequestBuilder constructs outbound requests, each with a fresh correlation id.
type RequestBuilder struct {
	ids *idgen.Generator
	now func() time.Time
}

// NewRequestBuilder uses ids for correlation ids and now for timestamps.
func NewRequestBuilder(ids *idgen.Generator, now func() time.Time) *RequestBuilder {
	if now == nil {
		now = time.Now
	}
	return &RequestBuilder{ids: ids, now: now}
}

func (b *RequestBuilder) nextID() string {
	return strconv.FormatInt(b.ids.Next(), 10)
}

func newMessage(msgType string) *quickfix.Message {
	msg := quickfix.NewMessage()
	msg.Header.SetString(tag.MsgType, msgType)
	return msg
}

// UserRequest completes the venue login, optionally carrying the PIN.
func (b *RequestBuilder) UserRequest(c Credentials) *quickfix.Message {
	msg := newMessage(fixmsg.MsgTypeUserRequest)
	msg.Body.SetString(tag.UserRequestID, b.nextID())
	msg.Body.SetString(tag.Username, c.Username)
	msg.Body.SetString(tag.Password, c.Password)
	if c.Pin != "" {
		params := quickfix.NewRepeatingGroup(fixmsg.TagFXCMNoParam, quickfix.GroupTemplate{
			quickfix.GroupElement(fixmsg.TagFXCMParamName),
			quickfix.GroupElement(fixmsg.TagFXCMParamValue),
		})
		p := params.Add()
		p.SetString(fixmsg.TagFXCMParamName, fixmsg.ParamNamePin)
		p.SetString(fixmsg.TagFXCMParamValue, c.Pin)
		msg.Body.SetGroup(params)
	}
	msg.Body.SetInt(tag.UserRequestType, fixmsg.UserRequestTypeListTradingSessions)
	return msg
}

// TradingSessionStatusRequest subscribes to the trading session status.
func (b *RequestBuilder) TradingSessionStatusRequest() *quickfix.Message {
	msg := newMessage(fixmsg.MsgTypeTradingSessionStatusRequest)
	msg.Body.SetString(tag.TradSesReqID, "TSSR REQUEST ID "+b.nextID())
	msg.Body.SetInt(tag.SubscriptionRequestType, fixmsg.SubscriptionSnapshotUpdates)
	return msg
}

// CollateralInquiry asks for a collateral report per account of the login.
func (b *RequestBuilder) CollateralInquiry() *quickfix.Message {
	msg := newMessage(fixmsg.MsgTypeCollateralInquiry)
	msg.Body.SetString(tag.CollInquiryID, b.nextID())
	msg.Body.SetInt(tag.SubscriptionRequestType, fixmsg.SubscriptionSnapshotUpdates)
	return msg
}

// RequestForPositions asks for open (PosReqTypePositions) or closed
// (PosReqTypeTrades) positions of acct.
func (b *RequestBuilder) RequestForPositions(acct model.Account, posReqType int) *quickfix.Message {
	now := b.now().UTC()
	msg := newMessage(fixmsg.MsgTypeRequestForPositions)
	if len(acct.Parties) > 0 {
		msg.Body.SetGroup(partiesGroup(acct.Parties))
	}
	msg.Body.SetInt(tag.SubscriptionRequestType, fixmsg.SubscriptionSnapshotUpdates)
	msg.Body.SetInt(tag.PosReqType, posReqType)
	msg.Body.SetString(tag.Account, acct.ID)
	msg.Body.SetString(tag.TransactTime, now.Format(fixmsg.LayoutUTCTimestamp))
	msg.Body.SetString(tag.ClearingBusinessDate, now.Format(fixmsg.LayoutLocalDate))
	msg.Body.SetInt(tag.AccountType, fixmsg.AccountTypeNonCustomerCrossMargined)
	msg.Body.SetString(tag.PosReqID, b.nextID())
	return msg
}

// MarketDataRequest subscribes to top of book and session range for symbols.
func (b *RequestBuilder) MarketDataRequest(symbols []string) *quickfix.Message {
	msg := newMessage(fixmsg.MsgTypeMarketDataRequest)
	msg.Body.SetString(tag.MDReqID, b.nextID())
	msg.Body.SetInt(tag.SubscriptionRequestType, fixmsg.SubscriptionSnapshotUpdates)
	msg.Body.SetInt(tag.MarketDepth, 1)
	msg.Body.SetInt(tag.MDUpdateType, fixmsg.MDUpdateTypeFullRefresh)

	types := quickfix.NewRepeatingGroup(tag.NoMDEntryTypes, quickfix.GroupTemplate{
		quickfix.GroupElement(tag.MDEntryType),
	})
	for _, t := range []string{
		fixmsg.MDEntryTypeBid,
		fixmsg.MDEntryTypeOffer,
		fixmsg.MDEntryTypeSessionHigh,
		fixmsg.MDEntryTypeSessionLow,
	} {
		types.Add().SetString(tag.MDEntryType, t)
	}
	msg.Body.SetGroup(types)

	related := quickfix.NewRepeatingGroup(tag.NoRelatedSym, quickfix.GroupTemplate{
		quickfix.GroupElement(tag.Symbol),
	})
	for _, s := range symbols {
		related.Add().SetString(tag.Symbol, s)
	}
	msg.Body.SetGroup(related)
	return msg
}

// SecurityStatusRequest subscribes to the trading status of symbol.
func (b *RequestBuilder) SecurityStatusRequest(symbol string) *quickfix.Message {
	msg := newMessage(fixmsg.MsgTypeSecurityStatusRequest)
	msg.Body.SetString(tag.SecurityStatusReqID, b.nextID())
	msg.Body.SetInt(tag.SubscriptionRequestType, fixmsg.SubscriptionSnapshotUpdates)
	msg.Body.SetString(tag.Symbol, symbol)
	return msg
}

// ClOrdID returns a client order id unique for the session.
func (b *RequestBuilder) ClOrdID(sessionID quickfix.SessionID) string {
	return fmt.Sprintf("%s-%d-%d", sessionID.String(), b.now().UnixMilli(), b.ids.Next())
}

// NewOrderSingle builds a good-till-cancel market order.
func (b *RequestBuilder) NewOrderSingle(o OrderRequest) *quickfix.Message {
	msg := newMessage(fixmsg.MsgTypeNewOrderSingle)
	msg.Body.SetString(tag.ClOrdID, o.ClOrdID)
	msg.Body.SetString(tag.Side, o.Side.FIX())
	msg.Body.SetString(tag.TransactTime, b.now().UTC().Format(fixmsg.LayoutUTCTimestamp))
	msg.Body.SetString(tag.OrdType, fixmsg.OrdTypeMarket)
	msg.Body.SetString(tag.Account, o.Account)
	msg.Body.SetString(tag.Symbol, o.Symbol)
	msg.Body.SetString(tag.OrderQty, o.Qty.String())
	msg.Body.SetString(tag.TimeInForce, fixmsg.TimeInForceGoodTillCancel)
	msg.Body.SetString(tag.SecondaryClOrdID, o.Marker)
	return msg
}

func partiesGroup(parties []fixmsg.Party) *quickfix.RepeatingGroup {
	subTemplate := quickfix.GroupTemplate{
		quickfix.GroupElement(tag.PartySubID),
		quickfix.GroupElement(tag.PartySubIDType),
	}
	group := quickfix.NewRepeatingGroup(tag.NoPartyIDs, quickfix.GroupTemplate{
		quickfix.GroupElement(tag.PartyID),
		quickfix.GroupElement(tag.PartyIDSource),
		quickfix.GroupElement(tag.PartyRole),
		quickfix.NewRepeatingGroup(tag.NoPartySubIDs, subTemplate),
	})
	for _, p := range parties {
		g := group.Add()
		g.SetString(tag.PartyID, p.ID)
		if p.Source != "" {
			g.SetString(tag.PartyIDSource, p.Source)
		}
		g.SetInt(tag.PartyRole, p.Role)
		if len(p.SubIDs) == 0 {
			continue
		}
		subs := quickfix.NewRepeatingGroup(tag.NoPartySubIDs, subTemplate)
		for _, s := range p.SubIDs {
			sg := subs.Add()
			sg.SetString(tag.PartySubID, s.ID)
			sg.SetInt(tag.PartySubIDType, s.Type)
		}
		g.SetGroup(subs)
	}
	return group
}
