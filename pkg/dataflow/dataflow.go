// Package dataflow implements the single-assignment variable (DFV),
// multi-producer/single-consumer queue (DFQ) and deterministic multi-reader
// stream (DFS) described in spec.md §4.2, translated from
// _examples/original_source/.../DataflowQueue.java and
// .../stream/DataflowStream.java.
//
// Channel payloads are untyped (any), matching the actor package's
// dynamically-typed mailbox and avoiding a type-erasure boundary at the
// points (chiefly pkg/operator) where heterogeneous channels are gathered
// together positionally.
package dataflow

import (
	"time"

	"github.com/nqn/loom/pkg/pool"
)

// MessageStream is anything that can receive an asynchronous delivery —
// the Go analogue of GPars' groovyx.gpars.actor.impl.MessageStream. An
// actor.Ref satisfies this once wrapped (see the actor package's
// AsMessageStream), and so does a plain callback via Func.
type MessageStream interface {
	Send(msg any)
}

// Func adapts a plain function into a MessageStream.
type Func func(msg any)

// Send implements MessageStream.
func (f Func) Send(msg any) { f(msg) }

// Result is what getValAsync delivers when the caller supplied an
// attachment: the attachment travels alongside the bound value so the
// operator runtime (or any other multi-request caller) can correlate
// replies that may arrive out of order.
type Result struct {
	Attachment any
	Value      any
}

// ReadChannel is the read half of a dataflow channel: DFV, DFQ, and the
// DFS StreamReadAdapter all implement it, letting pkg/operator gather from
// any of them positionally without caring which concrete channel kind is
// in play.
type ReadChannel interface {
	// GetVal blocks until a value is available and returns it.
	GetVal() (any, error)

	// GetValTimeout blocks until a value is available or d elapses,
	// returning ErrTimeout on expiry.
	GetValTimeout(d time.Duration) (any, error)

	// GetValAsync registers stream to be sent the value once available,
	// with no attachment.
	GetValAsync(stream MessageStream)

	// GetValAsyncAttach registers stream to be sent a Result{attachment,
	// value} once available.
	GetValAsyncAttach(attachment any, stream MessageStream)
}

// WriteChannel is the write half of a dataflow channel.
type WriteChannel interface {
	// Bind publishes a value on the channel. DFV.Bind fails if already
	// bound; DFQ.Bind (leftShift) always succeeds.
	Bind(v any) error
}

// Task runs fn on p and binds its return value to the returned DFV once
// fn completes — the Go shape of GPars' top-level `task { ... }` helper
// (see SPEC_FULL.md §4.2's "added from the original sources").
func Task(p pool.Pool, fn func() any) *DFV {
	v := NewDFV()
	p.Execute(func() {
		v.Bind(fn())
	})
	return v
}
