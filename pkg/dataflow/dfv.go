package dataflow

import (
	"reflect"
	"sync"
	"time"

	"github.com/nqn/loom/pkg/pool"
)

// DFV is a single-assignment variable: one internal slot, bound at most
// once, with blocking and asynchronous readers (spec.md §3, §4.2.1).
type DFV struct {
	mu      sync.Mutex
	bound   bool
	value   any
	done    chan struct{}
	waiters []asyncWaiter
}

type asyncWaiter struct {
	attachment any
	hasAttach  bool
	stream     MessageStream
}

// NewDFV returns a new, unbound DFV.
func NewDFV() *DFV {
	return &DFV{done: make(chan struct{})}
}

// Bind transitions the slot from unbound to bound. A second call fails
// with *AlreadyBoundError; the slot is left holding its original value.
func (v *DFV) Bind(val any) error {
	v.mu.Lock()
	if v.bound {
		existing := v.value
		v.mu.Unlock()
		return &AlreadyBoundError{Existing: existing}
	}
	v.bound = true
	v.value = val
	waiters := v.waiters
	v.waiters = nil
	close(v.done)
	v.mu.Unlock()

	for _, w := range waiters {
		w.deliver(val)
	}
	return nil
}

// BindUnique succeeds if the slot is unbound, or if it is already bound to
// a value structurally equal (reflect.DeepEqual) to val — the "unique-
// bind" variant from spec.md §4.2.1. Callers binding reference-typed
// values that rely on pointer identity should use Bind instead.
func (v *DFV) BindUnique(val any) error {
	v.mu.Lock()
	if v.bound {
		existing := v.value
		v.mu.Unlock()
		if reflect.DeepEqual(existing, val) {
			return nil
		}
		return &AlreadyBoundError{Existing: existing}
	}
	v.mu.Unlock()
	return v.Bind(val)
}

// IsBound reports whether the slot has been bound. Monotone: once true,
// always true (spec.md §8 invariant 2).
func (v *DFV) IsBound() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bound
}

// GetVal blocks until the slot is bound and returns its value.
func (v *DFV) GetVal() (any, error) {
	<-v.done
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value, nil
}

// GetValTimeout blocks until bound or until d elapses, in which case it
// returns ErrTimeout. A zero or negative d polls once, non-blocking.
func (v *DFV) GetValTimeout(d time.Duration) (any, error) {
	if d <= 0 {
		select {
		case <-v.done:
			return v.GetVal()
		default:
			return nil, ErrTimeout
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-v.done:
		return v.GetVal()
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// GetValAsync registers stream to be delivered the value once bound. If
// already bound, the delivery happens before GetValAsync returns.
func (v *DFV) GetValAsync(stream MessageStream) {
	v.getValAsync(asyncWaiter{stream: stream})
}

// GetValAsyncAttach is GetValAsync with an attachment carried alongside
// the value in a Result, so callers juggling several pending requests
// (chiefly pkg/operator's gather phase) can tell them apart.
func (v *DFV) GetValAsyncAttach(attachment any, stream MessageStream) {
	v.getValAsync(asyncWaiter{attachment: attachment, hasAttach: true, stream: stream})
}

func (v *DFV) getValAsync(w asyncWaiter) {
	v.mu.Lock()
	if v.bound {
		val := v.value
		v.mu.Unlock()
		w.deliver(val)
		return
	}
	v.waiters = append(v.waiters, w)
	v.mu.Unlock()
}

func (w asyncWaiter) deliver(val any) {
	if w.hasAttach {
		w.stream.Send(Result{Attachment: w.attachment, Value: val})
		return
	}
	w.stream.Send(val)
}

// WhenBound schedules fn to run on p once the slot is bound, exactly once,
// never before the bind (spec.md §4.2.1). If already bound, fn is
// scheduled immediately rather than invoked on the caller's goroutine.
func (v *DFV) WhenBound(p pool.Pool, fn func(any)) {
	v.GetValAsync(Func(func(msg any) {
		p.Execute(func() { fn(msg) })
	}))
}
