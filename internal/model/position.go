package model

import (
	"strings"
	"time"

	"fixharness/internal/fixmsg"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/shopspring/decimal"
)

// PositionReport is the latest report received for a position ticket.
type PositionReport struct {
	Ticket              string          `json:"ticket"`
	Account             string          `json:"account,omitempty"`
	Symbol              string          `json:"symbol,omitempty"`
	PosReqType          int             `json:"posReqType"`
	HasPosReqType       bool            `json:"hasPosReqType"`
	PosReqID            string          `json:"posReqId,omitempty"`
	PosMaintRptID       string          `json:"posMaintRptId,omitempty"`
	SecondaryClOrdID    string          `json:"secondaryClOrdId,omitempty"`
	HasSecondaryClOrdID bool            `json:"hasSecondaryClOrdId"`
	SettlPrice          decimal.Decimal `json:"settlPrice"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// DecodePositionReport reads every field of a PositionReport it understands.
// Missing fields are left unset; callers decide which are mandatory.
func DecodePositionReport(msg *quickfix.Message, now time.Time) PositionReport {
	body := &msg.Body
	rep := PositionReport{UpdatedAt: now}
	rep.Ticket, _ = fixmsg.String(body, fixmsg.TagFXCMPosID)
	rep.Account, _ = fixmsg.String(body, tag.Account)
	rep.Symbol, _ = fixmsg.String(body, tag.Symbol)
	rep.PosReqType, rep.HasPosReqType = fixmsg.Int(body, tag.PosReqType)
	rep.PosReqID, _ = fixmsg.String(body, tag.PosReqID)
	rep.PosMaintRptID, _ = fixmsg.String(body, tag.PosMaintRptID)
	rep.SecondaryClOrdID, rep.HasSecondaryClOrdID = fixmsg.String(body, tag.SecondaryClOrdID)
	rep.SettlPrice, _ = fixmsg.Decimal(body, tag.SettlPrice)
	return rep
}

// Closed reports whether the report describes a closed trade.
func (r PositionReport) Closed() bool {
	return r.HasPosReqType && r.PosReqType == fixmsg.PosReqTypeTrades
}

// OpenedBy reports whether the position was opened by an order carrying marker
// as its secondary client order id. Comparison ignores case.
func (r PositionReport) OpenedBy(marker string) bool {
	if !r.HasSecondaryClOrdID {
		return false
	}
	return strings.EqualFold(r.SecondaryClOrdID, marker)
}
