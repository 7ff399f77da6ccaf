package og

import (
	"sync"
	"time"

	"fixharness/internal/fixmsg"
	"fixharness/internal/model"
	"fixharness/internal/model/enum"
	"fixharness/pkg/exception"

	"github.com/shopspring/decimal"
)

// OrderState tracks the lifecycle of an order.
type OrderState uint16

const (
	OrderStateUnknown OrderState = iota
	OrderStateSent
	OrderStateAcked
	OrderStatePartFilled
	OrderStateFilled
	OrderStateCanceled
	OrderStateRejected
	OrderStateExpired
)

func (s OrderState) String() string {
	switch s {
	case OrderStateSent:
		return "sent"
	case OrderStateAcked:
		return "acked"
	case OrderStatePartFilled:
		return "part_filled"
	case OrderStateFilled:
		return "filled"
	case OrderStateCanceled:
		return "canceled"
	case OrderStateRejected:
		return "rejected"
	case OrderStateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is expected.
func (s OrderState) Terminal() bool {
	switch s {
	case OrderStateFilled, OrderStateCanceled, OrderStateRejected, OrderStateExpired:
		return true
	default:
		return false
	}
}

// Intent describes an order about to be sent.
type Intent struct {
	ClOrdID string
	Account string
	Symbol  string
	Side    enum.Side
	Qty     decimal.Decimal
	SentAt  time.Time
}

// Order holds the harness view of an order it sent.
type Order struct {
	ClOrdID   string
	OrderID   string
	Account   string
	Symbol    string
	Side      enum.Side
	Qty       decimal.Decimal
	CumQty    decimal.Decimal
	LeavesQty decimal.Decimal
	State     OrderState
	SentAt    time.Time
	UpdatedAt time.Time
}

// StateMachine updates orders from intents and execution reports.
type StateMachine struct {
	mu     sync.RWMutex
	orders map[string]*Order
}

// NewStateMachine creates an empty state machine.
func NewStateMachine() *StateMachine {
	return &StateMachine{orders: make(map[string]*Order)}
}

// Order returns a copy of the current order state.
func (m *StateMachine) Order(clOrdID string) (Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[clOrdID]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// ApplyIntent creates a new order in Sent state.
func (m *StateMachine) ApplyIntent(intent Intent) (Order, error) {
	if intent.ClOrdID == "" {
		return Order{}, exception.ErrUnknownOrder
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[intent.ClOrdID]; ok {
		return Order{}, exception.ErrDuplicateOrder
	}
	o := &Order{
		ClOrdID:   intent.ClOrdID,
		Account:   intent.Account,
		Symbol:    intent.Symbol,
		Side:      intent.Side,
		Qty:       intent.Qty,
		LeavesQty: intent.Qty,
		State:     OrderStateSent,
		SentAt:    intent.SentAt,
		UpdatedAt: intent.SentAt,
	}
	m.orders[o.ClOrdID] = o
	return *o, nil
}

// ApplyReport updates an order from an execution report.
func (m *StateMachine) ApplyReport(rep model.ExecutionReport) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[rep.ClOrdID]
	if !ok {
		return Order{}, exception.ErrUnknownOrder
	}
	if o.State.Terminal() {
		return *o, exception.ErrInvalidTransition
	}

	o.OrderID = rep.OrderID
	if !rep.CumQty.IsZero() {
		o.CumQty = rep.CumQty
	}
	if !rep.LeavesQty.IsZero() || rep.Terminal() {
		o.LeavesQty = rep.LeavesQty
	}
	o.UpdatedAt = rep.ReceivedAt
	o.State = stateOf(rep.OrdStatus)
	return *o, nil
}

// Len returns the number of tracked orders.
func (m *StateMachine) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}

func stateOf(ordStatus string) OrderState {
	switch ordStatus {
	case fixmsg.OrdStatusNew, fixmsg.OrdStatusPendingNew, fixmsg.OrdStatusPendingCancel, fixmsg.OrdStatusCalculated:
		return OrderStateAcked
	case fixmsg.OrdStatusPartiallyFilled:
		return OrderStatePartFilled
	case fixmsg.OrdStatusFilled:
		return OrderStateFilled
	case fixmsg.OrdStatusCanceled, fixmsg.OrdStatusDoneForDay, fixmsg.OrdStatusStopped:
		return OrderStateCanceled
	case fixmsg.OrdStatusRejected:
		return OrderStateRejected
	case fixmsg.OrdStatusExpired:
		return OrderStateExpired
	default:
		return OrderStateUnknown
	}
}
