package actor

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/nqn/loom/pkg/pool"
)

func TestGroupSetPoolBeforeStartSucceeds(t *testing.T) {
	Convey("SetPool should succeed on a Group with no started actor yet", t, func() {
		g := NewGroup("g", pool.Config{})
		replacement := pool.New(pool.Config{Name: "replacement"})
		So(g.SetPool(replacement), ShouldBeNil)
	})
}

func TestGroupFreezesAfterFirstActorStarts(t *testing.T) {
	Convey("SetPool should fail once an actor has started on the Group", t, func() {
		g := NewGroup("g", pool.Config{})
		received := make(chan any, 1)

		a := Spawn(Config{
			Group: g,
			Initial: func(ctx *Context, msg any) (Behavior, error) {
				received <- msg
				return ctx.Stop(), nil
			},
		})
		a.Start()
		So(a.Send(nil, "go"), ShouldBeNil)

		select {
		case <-received:
		case <-time.After(time.Second):
			t.Fatal("actor never ran its first chunk")
		}

		err := g.SetPool(pool.New(pool.Config{Name: "too-late"}))
		var ioErr *InvalidOperationError
		So(errors.As(err, &ioErr), ShouldBeTrue)
	})
}
