package model

import (
	"strings"
	"time"

	"fixharness/internal/fixmsg"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/shopspring/decimal"
)

const (
	// LotMultiplier converts the venue minimum quantity into an order size.
	LotMultiplier = 10000
	// BaseCurrencySymbol trades in units rather than lots.
	BaseCurrencySymbol = "USDOLLAR"
)

// Instrument is the latest market data snapshot received for a symbol.
type Instrument struct {
	Symbol         string          `json:"symbol"`
	MinQuantity    decimal.Decimal `json:"minQuantity"`
	HasMinQuantity bool            `json:"hasMinQuantity"`
	Bid            decimal.Decimal `json:"bid"`
	Offer          decimal.Decimal `json:"offer"`
	High           decimal.Decimal `json:"high"`
	Low            decimal.Decimal `json:"low"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// DecodeInstrument reads a MarketDataSnapshotFullRefresh. The Symbol field is mandatory.
func DecodeInstrument(msg *quickfix.Message, now time.Time) (Instrument, error) {
	symbol, err := fixmsg.RequireString(&msg.Body, tag.Symbol)
	if err != nil {
		return Instrument{}, err
	}

	inst := Instrument{Symbol: symbol, UpdatedAt: now}
	inst.MinQuantity, inst.HasMinQuantity = fixmsg.Decimal(&msg.Body, fixmsg.TagFXCMMinQuantity)

	for _, e := range fixmsg.MDEntries(fixmsg.FieldsOf(msg)) {
		px, err := decimal.NewFromString(e.Price)
		if err != nil {
			continue
		}
		switch e.Type {
		case fixmsg.MDEntryTypeBid:
			inst.Bid = px
		case fixmsg.MDEntryTypeOffer:
			inst.Offer = px
		case fixmsg.MDEntryTypeSessionHigh:
			inst.High = px
		case fixmsg.MDEntryTypeSessionLow:
			inst.Low = px
		}
	}
	return inst, nil
}

// LotSize returns the multiplier applied to the minimum quantity of symbol.
func LotSize(symbol string) decimal.Decimal {
	if strings.EqualFold(symbol, BaseCurrencySymbol) {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(LotMultiplier)
}

// OrderQuantity is the smallest tradable order size, reporting false when the
// venue did not publish a minimum quantity.
func (i Instrument) OrderQuantity() (decimal.Decimal, bool) {
	if !i.HasMinQuantity {
		return decimal.Zero, false
	}
	return i.MinQuantity.Mul(LotSize(i.Symbol)), true
}
