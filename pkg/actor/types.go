// Package actor implements the pooled, continuation-style actor scheduler
// specified in spec.md §4.1 (C1): a mailbox, a state machine, react-as-
// continuation chunk scheduling, react-timeouts, cancellation, and
// lifecycle hooks. Grounded on _examples/ConnorDoyle-spider/pkg/actor,
// generalized from a goroutine-per-actor blocking model to the pooled
// model spec.md requires.
package actor

import "time"

// Address is the opaque identifier of an actor within its system.
type Address string

// Ref is an opaque handle to an actor: the only thing most callers ever
// hold. Both the pooled Actor and the BlockingActor adapter satisfy it.
type Ref interface {
	// Address returns this ref's address.
	Address() Address

	// Send delivers payload to the referenced actor, fire-and-forget.
	// sender, if non-nil, is captured in the envelope as the reply
	// target; within a chunk, pass ctx.Self() (or use ctx.Tell, which
	// does this for you) so the receiver's Reply resolves back to the
	// sending actor.
	Send(sender Ref, payload any) error

	// IsActive reports whether the actor is started and not yet stopped.
	IsActive() bool
}

// Envelope is one message in an actor's mailbox.
type Envelope struct {
	Sender  Ref
	Payload any
}

// Timeout is delivered as msg is not how timeouts work in loom — see
// Hooks.OnTimeout. This type exists only so user code that pattern-matches
// on message types has something named to avoid confusing a genuine
// timeout signal (which never reaches Receive) with a message that
// happens to be nil.
type Timeout struct{}

// Receive is one chunk of an actor's behavior: the Go realization of
// spec.md §9's "resumable closure" design note for react-as-continuation.
// It is invoked with the next message pulled from the mailbox and returns
// the Behavior to run for the chunk after that.
type Receive func(ctx *Context, msg any) (Behavior, error)

// Behavior is what a chunk returns to tell the scheduler what happens
// next: either suspend awaiting the next message (ctx.React /
// ctx.ReactTimeout) or terminate (the zero value, or ctx.Stop()).
type Behavior struct {
	// Next is the chunk to run when the next message arrives, or nil to
	// terminate the actor.
	Next Receive

	// Timeout arms a react-timeout: if no message arrives within
	// Timeout, the actor terminates and Hooks.OnTimeout fires instead of
	// Next ever being invoked. NoTimeout (the default, via ctx.React)
	// means wait indefinitely. A Timeout of exactly zero is a valid,
	// immediate-fire duration (spec.md §8's boundary case).
	Timeout time.Duration
}

// NoTimeout means a react() has no timeout armed.
const NoTimeout time.Duration = -1

// timeoutSignal is not used by the scheduler: a fired react-timeout calls
// terminate directly from onTimeoutFire, and no timeout message is ever
// queued or handed to user code.
type timeoutSignal struct{}

// DeliveryErrorAware is implemented by message payloads that want to be
// notified when they could not be delivered: either because the target
// actor had already stopped, or because they were still in the mailbox
// when the actor drained during shutdown (spec.md §7 DeliveryError).
type DeliveryErrorAware interface {
	OnDeliveryError()
}

// Hooks is the record of optional lifecycle callbacks an actor may supply,
// replacing "respondsTo" duck-typing checks with a small struct of nilable
// funcs (spec.md §9's "Dynamic dispatch on hooks" design note).
type Hooks struct {
	// AfterStart runs once, right after Start(), before the initial
	// chunk is scheduled.
	AfterStart func(ctx *Context)

	// BeforeStop runs on every termination path (explicit Stop(), a chunk
	// falling through without reacting again, react-timeout, exception,
	// interrupt), before the kind-specific hook and before the mailbox is
	// drained.
	BeforeStop func(ctx *Context)

	// AfterStop runs once, after the mailbox has been drained, with the
	// list of envelopes that were discarded undelivered.
	AfterStop func(self Ref, drained []Envelope)

	// OnTimeout runs if an armed react-timeout fires before a message
	// arrives. The actor terminates immediately afterward; Next is never
	// invoked.
	OnTimeout func(ctx *Context)

	// OnException runs if a chunk panics or returns a non-nil error. The
	// actor terminates immediately afterward.
	OnException func(ctx *Context, err error)

	// OnInterrupt runs if Stop() canceled a chunk's context and the
	// chunk observed the cancellation (returned context.Canceled rather
	// than completing as if nothing happened).
	OnInterrupt func(ctx *Context)

	// OnDeliveryError runs for each undeliverable payload that does not
	// itself implement DeliveryErrorAware — both for sends rejected
	// outright by a stopped actor and for envelopes discarded by drain.
	OnDeliveryError func(self Ref, payload any)
}
