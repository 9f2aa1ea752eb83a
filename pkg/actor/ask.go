package actor

import (
	"fmt"
	"time"
)

// replyLatch is the single-value completion signal Ask waits on: a
// throwaway responder actor writes its one message (or ErrAskTimeout) into
// it exactly once, and the calling goroutine blocks on done until it does.
// Kept as the small amount of synchronization Ask actually needs rather
// than a general-purpose promise type with no second caller.
type replyLatch struct {
	done chan struct{}
	val  any
	err  error
}

func newReplyLatch() *replyLatch {
	return &replyLatch{done: make(chan struct{})}
}

func (l *replyLatch) complete(val any, err error) {
	select {
	case <-l.done:
		return
	default:
	}
	l.val, l.err = val, err
	close(l.done)
}

// await blocks until l is completed or timeout elapses. timeout <= 0 means
// wait indefinitely, matching Join's convention elsewhere in this package.
func (l *replyLatch) await(timeout time.Duration) (any, error) {
	if timeout <= 0 {
		<-l.done
		return l.val, l.err
	}
	select {
	case <-l.done:
		return l.val, l.err
	case <-time.After(timeout):
		return nil, ErrAskTimeout
	}
}

// Ask sends payload to target and blocks the calling goroutine (not an
// actor chunk — never call Ask from inside a Receive, it would consume a
// pool worker while waiting) until target replies or timeout elapses.
//
// Grounded on _examples/ConnorDoyle-spider/pkg/actor/ask_proxy.go's
// throwaway single-shot responder, adapted to latch onto a replyLatch
// local to this file instead of a dedicated proxy actor type.
func Ask(target Ref, payload any, timeout time.Duration) (any, error) {
	latch := newReplyLatch()

	responder := Spawn(Config{
		Address: Address(fmt.Sprintf("%s-ask", target.Address())),
		Initial: func(ctx *Context, msg any) (Behavior, error) {
			latch.complete(msg, nil)
			return ctx.Stop(), nil
		},
		InitialTimeout: timeout,
		Hooks: Hooks{
			OnTimeout: func(ctx *Context) {
				latch.complete(nil, ErrAskTimeout)
			},
		},
	})
	responder.Start()

	if err := target.Send(responder, payload); err != nil {
		responder.Stop()
		return nil, err
	}

	return latch.await(timeout)
}
