package model

import (
	"time"

	"fixharness/internal/fixmsg"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
)

// SessionStatus is the latest TradingSessionStatus received.
type SessionStatus struct {
	TradingSessionID  string    `json:"tradingSessionId,omitempty"`
	TradSesStatus     int       `json:"tradSesStatus"`
	Symbols           []string  `json:"symbols"`
	AdvertisedSymbols int       `json:"advertisedSymbols"`
	ReceivedAt        time.Time `json:"receivedAt"`
}

// DecodeSessionStatus reads a TradingSessionStatus. Symbols beyond the
// advertised NoRelatedSym count are ignored.
func DecodeSessionStatus(msg *quickfix.Message, now time.Time) SessionStatus {
	st := SessionStatus{ReceivedAt: now}
	st.TradingSessionID, _ = fixmsg.String(&msg.Body, tag.TradingSessionID)
	st.TradSesStatus, _ = fixmsg.Int(&msg.Body, tag.TradSesStatus)
	st.Symbols, st.AdvertisedSymbols = fixmsg.GroupValues(fixmsg.FieldsOf(msg), tag.NoRelatedSym, tag.Symbol)
	return st
}
