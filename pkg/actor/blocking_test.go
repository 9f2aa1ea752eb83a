package actor

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBlockingActorLifecycleBasics(t *testing.T) {
	Convey("A BlockingActor should start, receive, and stop", t, func() {
		received := make(chan any, 1)
		a := NewBlockingActor(BlockingConfig{
			Initial: func(ctx *Context, msg any) (Behavior, error) {
				received <- msg
				return ctx.Stop(), nil
			},
		})
		a.Start()
		So(a.IsActive(), ShouldBeTrue)

		So(a.Send(nil, "hi"), ShouldBeNil)
		select {
		case msg := <-received:
			So(msg, ShouldEqual, "hi")
		case <-time.After(time.Second):
			t.Fatal("message never delivered")
		}

		So(a.Join(time.Second), ShouldBeNil)
		So(a.IsActive(), ShouldBeFalse)
	})
}

// Open Question #1 — unlike the pooled Actor, a BlockingActor may restart
// after a clean stop.
func TestBlockingActorRestartsAfterCleanStop(t *testing.T) {
	Convey("A BlockingActor should accept Start again after terminating", t, func() {
		count := 0
		gotMsg := make(chan any, 2)

		a := NewBlockingActor(BlockingConfig{
			Initial: func(ctx *Context, msg any) (Behavior, error) {
				count++
				gotMsg <- msg
				return ctx.Stop(), nil
			},
		})

		a.Start()
		So(a.Send(nil, "round1"), ShouldBeNil)
		So(<-gotMsg, ShouldEqual, "round1")
		So(a.Join(time.Second), ShouldBeNil)
		So(a.IsActive(), ShouldBeFalse)

		a.Start()
		So(a.IsActive(), ShouldBeTrue)
		So(a.Send(nil, "round2"), ShouldBeNil)
		So(<-gotMsg, ShouldEqual, "round2")
		So(a.Join(time.Second), ShouldBeNil)

		So(count, ShouldEqual, 2)
	})
}

// spec-named receive([timeout]) — a BlockingActor body pulls further
// messages synchronously from within a single long-running chunk instead
// of returning a Behavior between each one.
func TestBlockingActorReceiveWithinSingleChunk(t *testing.T) {
	Convey("Receive should pull subsequent messages from inside one chunk", t, func() {
		var got []any
		doneCh := make(chan struct{})

		a := NewBlockingActor(BlockingConfig{
			Initial: func(ctx *Context, msg any) (Behavior, error) {
				got = append(got, msg)
				for len(got) < 3 {
					v, err := ctx.Receive(time.Second)
					if err != nil {
						return ctx.Stop(), err
					}
					got = append(got, v)
				}
				close(doneCh)
				return ctx.Stop(), nil
			},
		})
		a.Start()

		So(a.Send(nil, 1), ShouldBeNil)
		So(a.Send(nil, 2), ShouldBeNil)
		So(a.Send(nil, 3), ShouldBeNil)

		select {
		case <-doneCh:
		case <-time.After(time.Second):
			t.Fatal("Receive never observed all three messages")
		}
		So(a.Join(time.Second), ShouldBeNil)
		So(got, ShouldResemble, []any{1, 2, 3})
	})
}

// Calling Receive from a pooled Actor's chunk is rejected rather than
// blocking a shared worker.
func TestContextReceiveFromPooledActorIsInvalidOperation(t *testing.T) {
	Convey("Receive from a pooled Actor should fail with InvalidOperationError", t, func() {
		errCh := make(chan error, 1)
		a := Spawn(Config{
			Initial: func(ctx *Context, msg any) (Behavior, error) {
				_, err := ctx.Receive(time.Millisecond)
				errCh <- err
				return ctx.Stop(), nil
			},
		})
		a.Start()
		So(a.Send(nil, "go"), ShouldBeNil)

		var ioErr *InvalidOperationError
		So(errors.As(<-errCh, &ioErr), ShouldBeTrue)
	})
}

func TestBlockingActorReceiveTimesOut(t *testing.T) {
	Convey("Receive should return ErrReceiveTimeout when nothing arrives", t, func() {
		resultCh := make(chan error, 1)
		a := NewBlockingActor(BlockingConfig{
			Initial: func(ctx *Context, msg any) (Behavior, error) {
				_, err := ctx.Receive(20 * time.Millisecond)
				resultCh <- err
				return ctx.Stop(), nil
			},
		})
		a.Start()
		So(a.Send(nil, "kickoff"), ShouldBeNil)

		select {
		case err := <-resultCh:
			So(err, ShouldEqual, ErrReceiveTimeout)
		case <-time.After(time.Second):
			t.Fatal("Receive never timed out")
		}
		So(a.Join(time.Second), ShouldBeNil)
	})
}

func TestBlockingActorReactTimeoutOnEmptyMailbox(t *testing.T) {
	Convey("A BlockingActor react-timeout should fire OnTimeout when no message arrives", t, func() {
		var timedOut bool
		a := NewBlockingActor(BlockingConfig{
			InitialTimeout: 20 * time.Millisecond,
			Initial: func(ctx *Context, msg any) (Behavior, error) {
				return ctx.Stop(), nil
			},
			Hooks: Hooks{
				OnTimeout: func(ctx *Context) { timedOut = true },
			},
		})
		a.Start()

		So(a.Join(time.Second), ShouldBeNil)
		So(timedOut, ShouldBeTrue)
	})
}
