package actor

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAskReturnsReply(t *testing.T) {
	Convey("Ask should deliver the target's reply synchronously", t, func() {
		echo := Spawn(Config{
			Initial: func(ctx *Context, msg any) (Behavior, error) {
				ctx.Tell(ctx.Sender(), "echo:"+msg.(string))
				return ctx.Stop(), nil
			},
		})
		echo.Start()

		reply, err := Ask(echo, "hi", time.Second)
		So(err, ShouldBeNil)
		So(reply, ShouldEqual, "echo:hi")
	})
}

func TestAskTimesOutWhenNoReply(t *testing.T) {
	Convey("Ask should return ErrAskTimeout when nothing replies", t, func() {
		silent := Spawn(Config{
			Initial: func(ctx *Context, msg any) (Behavior, error) {
				return ctx.React(func(ctx *Context, msg any) (Behavior, error) {
					return ctx.Stop(), nil
				}), nil
			},
		})
		silent.Start()

		_, err := Ask(silent, "hello?", 30*time.Millisecond)
		So(err, ShouldEqual, ErrAskTimeout)
	})
}
