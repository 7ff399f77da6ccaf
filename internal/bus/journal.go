package bus

import (
	"sync/atomic"
	"time"

	"fixharness/internal/model"
	"fixharness/internal/model/enum"
	"fixharness/internal/obs"

	"github.com/yanun0323/errors"
)

// Journal stamps raw FIX messages with a sequence and receive time and
// publishes them to a queue. A nil Journal records nothing.
type Journal struct {
	queue   *Queue
	metrics *obs.Metrics
	seq     atomic.Uint64
	now     func() time.Time
}

// NewJournal publishes onto q.
func NewJournal(q *Queue, metrics *obs.Metrics) *Journal {
	return &Journal{queue: q, metrics: metrics, now: time.Now}
}

// Record publishes raw. Full or closed queues are counted, never waited on.
func (j *Journal) Record(kind enum.EventKind, raw []byte) {
	if j == nil || j.queue == nil {
		return
	}
	payload := make([]byte, len(raw))
	copy(payload, raw)

	err := j.queue.TryPublish(Event{
		Header: model.EventHeader{
			Kind:   kind,
			Seq:    j.seq.Add(1),
			TsRecv: j.now().UTC().UnixNano(),
		},
		Payload: payload,
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrQueueClosed):
		j.metrics.IncQueueClosed()
	default:
		j.metrics.IncQueueDrop()
	}
}
