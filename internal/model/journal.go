package model

import "fixharness/internal/model/enum"

// EventHeader describes one journaled FIX message.
type EventHeader struct {
	Kind   enum.EventKind
	Flags  uint16
	Seq    uint64
	TsRecv int64
}
