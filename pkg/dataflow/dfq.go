package dataflow

import (
	"sync"
	"time"
)

// DFQ is a dataflow queue: a channel that matches producers and consumers
// FIFO in both directions, translated directly from
// _examples/original_source/.../DataflowQueue.java's two-queue-under-one-
// lock design (spec.md §4.2.2).
//
// Invariant: at least one of values/requests is empty at all times — a
// producer and a waiting consumer are matched immediately under the same
// lock, never left both queued.
type DFQ struct {
	mu       sync.Mutex
	values   []*DFV
	requests []*DFV

	wheneverBound []MessageStream
}

// NewDFQ returns a new, empty queue.
func NewDFQ() *DFQ {
	return &DFQ{}
}

// Enqueue binds value onto the queue: it satisfies the oldest outstanding
// request if one exists, or appends a freshly bound DFV to values
// (leftShift(value) in spec.md §4.2.2).
func (q *DFQ) Enqueue(value any) {
	v := q.retrieveForBind()
	q.hookWheneverBound(v)
	v.Bind(value)
}

// Bind implements WriteChannel.
func (q *DFQ) Bind(value any) error {
	q.Enqueue(value)
	return nil
}

// Subscribe asynchronously forwards src's next value onto this queue,
// preserving submission order by synchronously reserving a slot in values
// (or satisfying a pending request) before src is even asked for its
// value — leftShift(channel) in spec.md §4.2.2.
func (q *DFQ) Subscribe(src ReadChannel) {
	v := q.retrieveForBind()
	q.hookWheneverBound(v)
	src.GetValAsync(Func(func(msg any) {
		v.Bind(msg)
	}))
}

func (q *DFQ) retrieveForBind() *DFV {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.requests) > 0 {
		v := q.requests[0]
		q.requests = q.requests[1:]
		return v
	}
	v := NewDFV()
	q.values = append(q.values, v)
	return v
}

func (q *DFQ) retrieveOrCreateVariable() *DFV {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.values) > 0 {
		v := q.values[0]
		q.values = q.values[1:]
		return v
	}
	v := NewDFV()
	q.requests = append(q.requests, v)
	return v
}

func (q *DFQ) hookWheneverBound(v *DFV) {
	q.mu.Lock()
	listeners := append([]MessageStream(nil), q.wheneverBound...)
	q.mu.Unlock()
	for _, l := range listeners {
		v.GetValAsync(l)
	}
}

// GetVal blocks until a value is available at the head of the queue.
func (q *DFQ) GetVal() (any, error) {
	v := q.retrieveOrCreateVariable()
	return v.GetVal()
}

// GetValTimeout blocks until a value is available or d elapses. On
// timeout, the caller's outstanding request is removed from requests to
// avoid leaking an unmatched DFV (spec.md §4.2.2 and §5).
func (q *DFQ) GetValTimeout(d time.Duration) (any, error) {
	v := q.retrieveOrCreateVariable()
	val, err := v.GetValTimeout(d)
	if err == ErrTimeout {
		q.removeRequest(v)
	}
	return val, err
}

func (q *DFQ) removeRequest(v *DFV) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, r := range q.requests {
		if r == v {
			q.requests = append(q.requests[:i], q.requests[i+1:]...)
			return
		}
	}
}

// GetValAsync registers stream to receive the next available value.
func (q *DFQ) GetValAsync(stream MessageStream) {
	v := q.retrieveOrCreateVariable()
	v.GetValAsync(stream)
}

// GetValAsyncAttach is GetValAsync carrying an attachment through to the
// delivered Result.
func (q *DFQ) GetValAsyncAttach(attachment any, stream MessageStream) {
	v := q.retrieveOrCreateVariable()
	v.GetValAsyncAttach(attachment, stream)
}

// Poll peeks at the head of values; if it is bound, pops and returns it.
// It never blocks and never creates an outstanding request.
func (q *DFQ) Poll() (any, bool) {
	q.mu.Lock()
	if len(q.values) == 0 {
		q.mu.Unlock()
		return nil, false
	}
	head := q.values[0]
	if !head.IsBound() {
		q.mu.Unlock()
		return nil, false
	}
	q.values = q.values[1:]
	q.mu.Unlock()
	val, _ := head.GetVal()
	return val, true
}

// Length returns the current number of bound-or-pending values queued,
// i.e. len(values), a snapshot under the queue's lock.
func (q *DFQ) Length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.values)
}

// WheneverBound registers stream to be sent every future value bound to
// the queue, in production order.
func (q *DFQ) WheneverBound(stream MessageStream) {
	q.mu.Lock()
	q.wheneverBound = append(q.wheneverBound, stream)
	q.mu.Unlock()
}

// Iterator returns an iterator over a snapshot of the queue's current
// values. Next blocks until the corresponding slot is bound.
func (q *DFQ) Iterator() *Iterator {
	q.mu.Lock()
	snapshot := append([]*DFV(nil), q.values...)
	q.mu.Unlock()
	return &Iterator{values: snapshot}
}

// Iterator walks a DFQ snapshot taken at the time Iterator() was called.
type Iterator struct {
	values []*DFV
	pos    int
}

// HasNext reports whether there are more elements in the snapshot.
func (it *Iterator) HasNext() bool {
	return it.pos < len(it.values)
}

// Next blocks until the next element is bound, then returns it.
func (it *Iterator) Next() (any, error) {
	v := it.values[it.pos]
	it.pos++
	return v.GetVal()
}
