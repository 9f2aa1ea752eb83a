package actor

import (
	"context"
	"time"
)

// Context is the single parameter every Receive chunk gets: it carries the
// current envelope's sender, the actor's own Ref, the reply-enabled flag,
// and a standard context.Context that is canceled the instant Stop() is
// called while this chunk is running (spec.md §9's substitute for thread
// interrupt).
type Context struct {
	self      Ref
	ctx       context.Context
	sender    Ref
	repliesOn bool
}

// Self returns the actor's own Ref. Pass it as the sender of outgoing
// Send calls so the receiver's Reply resolves back here, or just use Tell.
func (c *Context) Self() Ref {
	return c.self
}

// Sender returns the sender of the message this chunk is handling, or nil
// if it was sent with no sender (e.g. from outside any actor).
func (c *Context) Sender() Ref {
	return c.sender
}

// Context returns the standard context.Context for this chunk. It is
// canceled when Stop() is called while the chunk is running; blocking
// calls made from inside a chunk should select on Done() to cooperate
// with cancellation.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Tell sends payload to target with this actor as the sender, so a Reply
// from target resolves back here. Equivalent to target.Send(c.Self(), payload).
func (c *Context) Tell(target Ref, payload any) error {
	return target.Send(c.self, payload)
}

// EnableSendingReplies turns on Reply/ReplyIfExists for the remainder of
// this actor's life. Mirrors spec.md §7's per-actor opt-in switch.
func (c *Context) EnableSendingReplies() {
	c.repliesOn = true
}

// DisableSendingReplies turns Reply/ReplyIfExists back off.
func (c *Context) DisableSendingReplies() {
	c.repliesOn = false
}

// Reply sends payload back to the current sender. It fails with
// InvalidOperationError if replies are disabled or if this chunk's
// message arrived with no sender.
func (c *Context) Reply(payload any) error {
	if !c.repliesOn {
		return &InvalidOperationError{Op: "Reply", Why: "sending replies is disabled for this actor"}
	}
	if c.sender == nil {
		return &InvalidOperationError{Op: "Reply", Why: "current message has no sender"}
	}
	return c.sender.Send(c.self, payload)
}

// ReplyIfExists is Reply without the no-sender error: it is a silent no-op
// when there is nothing to reply to.
func (c *Context) ReplyIfExists(payload any) error {
	if !c.repliesOn || c.sender == nil {
		return nil
	}
	return c.sender.Send(c.self, payload)
}

// React returns a Behavior that suspends until the next message arrives,
// with no react-timeout armed.
func (c *Context) React(next Receive) Behavior {
	return Behavior{Next: next, Timeout: NoTimeout}
}

// ReactTimeout returns a Behavior that suspends until the next message
// arrives or d elapses, whichever is first. d == 0 is a valid immediate-
// fire timeout (spec.md §8's boundary case), not "no timeout" — use React
// or NoTimeout for that.
func (c *Context) ReactTimeout(d time.Duration, next Receive) Behavior {
	return Behavior{Next: next, Timeout: d}
}

// Stop returns the terminal Behavior: once returned from a chunk, the
// actor drains its mailbox and terminates. Equivalent to returning the
// zero Behavior, spelled out for readability at call sites.
func (c *Context) Stop() Behavior {
	return Behavior{Next: nil}
}

// Receive performs a synchronous take() on the calling actor's own mailbox
// from within a single long-running chunk, spec.md's "receive([timeout])"
// (blocking adapter only). It is valid only from inside a BlockingActor's
// body — a pooled Actor's chunks run on a shared worker, and blocking one
// of them here would starve the pool the same way Ask warns against.
//
// timeout <= 0 waits indefinitely. It returns ErrReceiveTimeout if timeout
// elapses first, ErrReceiveStopped if the actor is stopping and no further
// message will arrive, or ctx.Context()'s error if Stop() cancels the
// running chunk while Receive is blocked. On success it updates Sender()
// to the received envelope's sender, so a subsequent Reply resolves to it.
func (c *Context) Receive(timeout time.Duration) (any, error) {
	ba, ok := c.self.(*BlockingActor)
	if !ok {
		return nil, &InvalidOperationError{Op: "Receive", Why: "only valid from a BlockingActor body"}
	}
	env, timedOut, err := ba.receiveSync(c.ctx, timeout)
	if err != nil {
		return nil, err
	}
	if timedOut {
		return nil, ErrReceiveTimeout
	}
	c.sender = env.Sender
	return env.Payload, nil
}
