package model

import (
	"time"

	"fixharness/internal/fixmsg"
	"fixharness/internal/model/enum"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/shopspring/decimal"
)

// ExecutionReport is the latest execution report received for a venue order.
type ExecutionReport struct {
	OrderID          string          `json:"orderId"`
	ClOrdID          string          `json:"clOrdId,omitempty"`
	SecondaryClOrdID string          `json:"secondaryClOrdId,omitempty"`
	Account          string          `json:"account,omitempty"`
	Symbol           string          `json:"symbol,omitempty"`
	Side             enum.Side       `json:"side"`
	OrdStatus        string          `json:"ordStatus,omitempty"`
	ExecType         string          `json:"execType,omitempty"`
	OrderQty         decimal.Decimal `json:"orderQty"`
	CumQty           decimal.Decimal `json:"cumQty"`
	LeavesQty        decimal.Decimal `json:"leavesQty"`
	AvgPx            decimal.Decimal `json:"avgPx"`
	Text             string          `json:"text,omitempty"`
	TransactTime     time.Time       `json:"transactTime"`
	ReceivedAt       time.Time       `json:"receivedAt"`
}

// DecodeExecutionReport reads an ExecutionReport. The OrderID field is mandatory.
func DecodeExecutionReport(msg *quickfix.Message, now time.Time) (ExecutionReport, error) {
	orderID, err := fixmsg.RequireString(&msg.Body, tag.OrderID)
	if err != nil {
		return ExecutionReport{}, err
	}

	body := &msg.Body
	rep := ExecutionReport{OrderID: orderID, ReceivedAt: now}
	rep.ClOrdID, _ = fixmsg.String(body, tag.ClOrdID)
	rep.SecondaryClOrdID, _ = fixmsg.String(body, tag.SecondaryClOrdID)
	rep.Account, _ = fixmsg.String(body, tag.Account)
	rep.Symbol, _ = fixmsg.String(body, tag.Symbol)
	rep.OrdStatus, _ = fixmsg.String(body, tag.OrdStatus)
	rep.ExecType, _ = fixmsg.String(body, tag.ExecType)
	rep.Text, _ = fixmsg.String(body, tag.Text)
	rep.OrderQty, _ = fixmsg.Decimal(body, tag.OrderQty)
	rep.CumQty, _ = fixmsg.Decimal(body, tag.CumQty)
	rep.LeavesQty, _ = fixmsg.Decimal(body, tag.LeavesQty)
	rep.AvgPx, _ = fixmsg.Decimal(body, tag.AvgPx)
	rep.TransactTime, _ = fixmsg.Time(body, tag.TransactTime)
	if side, ok := fixmsg.String(body, tag.Side); ok {
		rep.Side = enum.ParseSide(side)
	}
	return rep, nil
}

// Terminal reports whether no further execution reports are expected.
func (r ExecutionReport) Terminal() bool {
	switch r.OrdStatus {
	case fixmsg.OrdStatusFilled, fixmsg.OrdStatusCanceled, fixmsg.OrdStatusRejected,
		fixmsg.OrdStatusExpired, fixmsg.OrdStatusDoneForDay, fixmsg.OrdStatusStopped:
		return true
	default:
		return false
	}
}

// Rejected reports whether the venue rejected the order.
func (r ExecutionReport) Rejected() bool {
	return r.OrdStatus == fixmsg.OrdStatusRejected
}
