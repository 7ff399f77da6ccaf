package obs

import (
	"sync/atomic"
	"time"

	"fixharness/internal/fixmsg"
	"fixharness/internal/risk"
)

// Metrics collects lightweight counters and latency stats.
type Metrics struct {
	inbound          [fixmsg.KindCount]uint64
	dropped          [fixmsg.KindCount]uint64
	riskReasonCounts [risk.ReasonCount]uint64
	outbound         uint64
	sendFailures     uint64
	ordersSent       uint64
	queueDrops       uint64
	queueClosed      uint64

	reduceLatency   LatencyStats
	orderAckLatency LatencyStats
	waitLatency     LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Inbound          map[fixmsg.Kind]uint64
	Dropped          map[fixmsg.Kind]uint64
	RiskReasonCounts map[risk.Reason]uint64
	Outbound         uint64
	SendFailures     uint64
	OrdersSent       uint64
	QueueDrops       uint64
	QueueClosed      uint64
	ReduceLatency    LatencySnapshot
	OrderAckLatency  LatencySnapshot
	WaitLatency      LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveInbound counts a received message and how long its reducer took.
func (m *Metrics) ObserveInbound(kind fixmsg.Kind, d time.Duration) {
	if m == nil {
		return
	}
	if int(kind) < len(m.inbound) {
		atomic.AddUint64(&m.inbound[kind], 1)
	}
	m.reduceLatency.Observe(d)
}

// IncDropped counts a message discarded for a missing field.
func (m *Metrics) IncDropped(kind fixmsg.Kind) {
	if m == nil {
		return
	}
	if int(kind) < len(m.dropped) {
		atomic.AddUint64(&m.dropped[kind], 1)
	}
}

// IncRiskReason increments the risk reason counter.
func (m *Metrics) IncRiskReason(reason risk.Reason) {
	if m == nil {
		return
	}
	if int(reason) < len(m.riskReasonCounts) {
		atomic.AddUint64(&m.riskReasonCounts[reason], 1)
	}
}

// IncOutbound records a message handed to the engine.
func (m *Metrics) IncOutbound() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.outbound, 1)
}

// IncSendFailure records a message the engine refused.
func (m *Metrics) IncSendFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.sendFailures, 1)
}

// IncOrderSent records an order submission.
func (m *Metrics) IncOrderSent() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersSent, 1)
}

// IncQueueDrop records a queue drop.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncQueueClosed records a closed-queue publish attempt.
func (m *Metrics) IncQueueClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueClosed, 1)
}

// ObserveOrderAck measures the time from order send to first execution report.
func (m *Metrics) ObserveOrderAck(d time.Duration) {
	if m == nil {
		return
	}
	m.orderAckLatency.Observe(d)
}

// ObserveWait measures how long the driver waited for completion.
func (m *Metrics) ObserveWait(d time.Duration) {
	if m == nil {
		return
	}
	m.waitLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Inbound:          nonZero[fixmsg.Kind](m.inbound[:]),
		Dropped:          nonZero[fixmsg.Kind](m.dropped[:]),
		RiskReasonCounts: nonZero[risk.Reason](m.riskReasonCounts[:]),
		Outbound:         atomic.LoadUint64(&m.outbound),
		SendFailures:     atomic.LoadUint64(&m.sendFailures),
		OrdersSent:       atomic.LoadUint64(&m.ordersSent),
		QueueDrops:       atomic.LoadUint64(&m.queueDrops),
		QueueClosed:      atomic.LoadUint64(&m.queueClosed),
		ReduceLatency:    m.reduceLatency.Snapshot(),
		OrderAckLatency:  m.orderAckLatency.Snapshot(),
		WaitLatency:      m.waitLatency.Snapshot(),
	}
}

func nonZero[K ~uint8](counters []uint64) map[K]uint64 {
	out := make(map[K]uint64)
	for i := range counters {
		if v := atomic.LoadUint64(&counters[i]); v > 0 {
			out[K(i)] = v
		}
	}
	return out
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
