package enum

import "fixharness/internal/fixmsg"

// Side is the direction of an order.
type Side uint8

const (
	_side_beg Side = iota
	SideBuy
	SideSell
	_side_end
)

func (s Side) IsAvailable() bool {
	return s > _side_beg && s < _side_end
}

// FIX returns the Side(54) wire value.
func (s Side) FIX() string {
	switch s {
	case SideBuy:
		return fixmsg.SideBuy
	case SideSell:
		return fixmsg.SideSell
	default:
		return ""
	}
}

// Opposite returns the side that offsets s.
func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	default:
		return s
	}
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseSide maps a Side(54) wire value.
func ParseSide(v string) Side {
	switch v {
	case fixmsg.SideBuy:
		return SideBuy
	case fixmsg.SideSell:
		return SideSell
	default:
		return _side_beg
	}
}
