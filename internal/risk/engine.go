// Package risk applies pre-trade limits to orders the driver is about to send.
package risk

import (
	"sync"
	"time"

	"fixharness/internal/model/enum"

	"github.com/shopspring/decimal"
)

// Config defines simple risk limits. Zero values disable a limit.
type Config struct {
	KillSwitch       bool            `json:"killSwitch"`
	MaxOrderQty      decimal.Decimal `json:"maxOrderQty"`
	MaxOrderNotional decimal.Decimal `json:"maxOrderNotional"`
	OrderRateLimit   int             `json:"orderRateLimit"`
	OrderRateWindow  time.Duration   `json:"orderRateWindow"`
}

// Action is the outcome of an evaluation.
type Action uint8

const (
	ActionAllow Action = iota
	ActionDeny
)

// Reason explains a deny decision.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonKillSwitch
	ReasonInvalidOrder
	ReasonRateLimit
	ReasonMaxQty
	ReasonMaxNotional
	ReasonCount
)

func (r Reason) String() string {
	switch r {
	case ReasonKillSwitch:
		return "kill_switch"
	case ReasonInvalidOrder:
		return "invalid_order"
	case ReasonRateLimit:
		return "rate_limit"
	case ReasonMaxQty:
		return "max_qty"
	case ReasonMaxNotional:
		return "max_notional"
	default:
		return "none"
	}
}

// Order is the part of an order the limits look at.
type Order struct {
	Account string
	Symbol  string
	Side    enum.Side
	Qty     decimal.Decimal
	// Price is a reference price for notional checks; zero skips them.
	Price decimal.Decimal
}

// Decision is the result of Evaluate.
type Decision struct {
	Action   Action
	Reason   Reason
	Notional decimal.Decimal
}

// Allowed reports whether the order may be sent.
func (d Decision) Allowed() bool {
	return d.Action == ActionAllow
}

// Engine evaluates risk decisions.
type Engine struct {
	cfg Config

	mu              sync.Mutex
	rateWindowStart time.Time
	rateCount       int
}

// NewEngine creates a risk engine with static limits.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate applies the configured checks to an order.
func (e *Engine) Evaluate(order Order, now time.Time) Decision {
	decision := Decision{Action: ActionAllow, Reason: ReasonNone}
	if e == nil {
		return decision
	}

	deny := func(reason Reason) Decision {
		decision.Action = ActionDeny
		decision.Reason = reason
		return decision
	}

	if e.cfg.KillSwitch {
		return deny(ReasonKillSwitch)
	}

	if !order.Side.IsAvailable() || !order.Qty.IsPositive() || order.Account == "" || order.Symbol == "" {
		return deny(ReasonInvalidOrder)
	}

	if e.cfg.OrderRateLimit > 0 && e.cfg.OrderRateWindow > 0 {
		e.mu.Lock()
		if e.rateWindowStart.IsZero() || now.Sub(e.rateWindowStart) >= e.cfg.OrderRateWindow {
			e.rateWindowStart = now
			e.rateCount = 0
		}
		e.rateCount++
		exceeded := e.rateCount > e.cfg.OrderRateLimit
		e.mu.Unlock()
		if exceeded {
			return deny(ReasonRateLimit)
		}
	}

	if e.cfg.MaxOrderQty.IsPositive() && order.Qty.GreaterThan(e.cfg.MaxOrderQty) {
		return deny(ReasonMaxQty)
	}

	if order.Price.IsPositive() {
		decision.Notional = order.Qty.Mul(order.Price)
		if e.cfg.MaxOrderNotional.IsPositive() && decision.Notional.GreaterThan(e.cfg.MaxOrderNotional) {
			return deny(ReasonMaxNotional)
		}
	}

	return decision
}
