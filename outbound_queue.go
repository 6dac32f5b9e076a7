package syncws

import (
	"sync"

	"github.com/eapache/queue"
	"github.com/pkg/errors"
)

type (
	outboundFrame struct {
		data    []byte
		isClose bool
	}

	// QueueStats is a consistent snapshot of the queue counters. Enqueued is
	// always Written + Pending + Discarded.
	QueueStats struct {
		Enqueued  uint64
		Written   uint64
		Pending   uint64
		Discarded uint64
	}

	// outboundQueue holds pre-encoded frames waiting for the stream. Producers
	// only ever take mu for an append; Flush is called by a single consumer
	// at a time.
	outboundQueue struct {
		mu      sync.Mutex
		data    *queue.Queue
		control *queue.Queue

		// inflight is the frame currently being written. It stays outside
		// the queues so control frames are never spliced into its bytes.
		// offset is only touched by the consumer.
		inflight *outboundFrame
		offset   int

		sealed bool
		stats  QueueStats
	}
)

func newOutboundQueue() *outboundQueue {
	return &outboundQueue{
		data:    queue.New(),
		control: queue.New(),
	}
}

// Enqueue appends the frames of one message. They stay contiguous.
func (q *outboundQueue) Enqueue(frames ...[]byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, f := range frames {
		q.data.Add(&outboundFrame{data: f})
	}
	q.stats.Enqueued += uint64(len(frames))
	q.stats.Pending += uint64(len(frames))
}

// EnqueueControl puts a control frame ahead of pending data frames.
func (q *outboundQueue) EnqueueControl(frame []byte, isClose bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.control.Add(&outboundFrame{data: frame, isClose: isClose})
	q.stats.Enqueued++
	q.stats.Pending++
}

// EnqueueCloseLast queues a Close frame behind every pending data frame.
func (q *outboundQueue) EnqueueCloseLast(frame []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.data.Add(&outboundFrame{data: frame, isClose: true})
	q.stats.Enqueued++
	q.stats.Pending++
}

// current returns the frame being written, pulling the next one when the
// previous frame is done.
func (q *outboundQueue) current() *outboundFrame {
	q.mu.Lock()
	cur := q.inflight
	q.mu.Unlock()
	if cur != nil {
		return cur
	}
	return q.next()
}

func (q *outboundQueue) next() *outboundFrame {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case q.sealed:
		q.inflight = nil
	case q.control.Length() > 0:
		q.inflight = q.control.Remove().(*outboundFrame)
	case q.data.Length() > 0:
		q.inflight = q.data.Remove().(*outboundFrame)
	default:
		q.inflight = nil
	}
	q.offset = 0
	return q.inflight
}

func (q *outboundQueue) markWritten(f *outboundFrame) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.inflight = nil
	q.offset = 0
	q.stats.Written++
	q.stats.Pending--
	if f.isClose {
		q.sealed = true
	}
}

// Flush writes queued frames until the queue is empty or the stream stops
// accepting bytes. It reports whether a Close frame went out completely during
// this call. A partially written frame keeps its remainder for the next call.
func (q *outboundQueue) Flush(s Stream) (closeSent bool, err error) {
	for {
		cur := q.current()
		if cur == nil {
			return closeSent, nil
		}

		n, err := s.Write(cur.data[q.offset:])
		q.offset += n
		if err != nil {
			return closeSent, errors.Wrap(ErrIO, err.Error())
		}

		if q.offset < len(cur.data) {
			// would block; keep the remainder in flight
			return closeSent, nil
		}

		q.markWritten(cur)
		if cur.isClose {
			return true, nil
		}
	}
}

// Discard drops everything not yet written and seals the queue. It returns
// how many frames were dropped.
func (q *outboundQueue) Discard() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := q.data.Length() + q.control.Length()
	for q.data.Length() > 0 {
		q.data.Remove()
	}
	for q.control.Length() > 0 {
		q.control.Remove()
	}
	if q.inflight != nil {
		dropped++
		q.inflight = nil
		q.offset = 0
	}

	q.sealed = true
	q.stats.Pending -= uint64(dropped)
	q.stats.Discarded += uint64(dropped)
	return dropped
}

// Interrupted reports whether a frame has been partly written. Nothing may be
// written to the stream outside the queue until it completes.
func (q *outboundQueue) Interrupted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inflight != nil && q.offset > 0
}

func (q *outboundQueue) Sealed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sealed
}

func (q *outboundQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.data.Length() + q.control.Length()
	if q.inflight != nil {
		n++
	}
	return n
}

func (q *outboundQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}
