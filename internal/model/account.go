package model

import (
	"time"

	"fixharness/internal/fixmsg"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/shopspring/decimal"
)

// Account is the latest collateral report received for a trading account.
type Account struct {
	ID                 string          `json:"id"`
	Parties            []fixmsg.Party  `json:"parties,omitempty"`
	Currency           string          `json:"currency,omitempty"`
	CashOutstanding    decimal.Decimal `json:"cashOutstanding"`
	HasCashOutstanding bool            `json:"hasCashOutstanding"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// DecodeAccount reads a CollateralReport. The Account field is mandatory.
func DecodeAccount(msg *quickfix.Message, now time.Time) (Account, error) {
	id, err := fixmsg.RequireString(&msg.Body, tag.Account)
	if err != nil {
		return Account{}, err
	}

	acct := Account{
		ID:        id,
		Parties:   fixmsg.Parties(fixmsg.FieldsOf(msg)),
		UpdatedAt: now,
	}
	acct.Currency, _ = fixmsg.String(&msg.Body, tag.Currency)
	acct.CashOutstanding, acct.HasCashOutstanding = fixmsg.Decimal(&msg.Body, tag.CashOutstanding)
	return acct, nil
}
