package actor

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// InvalidOperationError covers send on a non-started actor (ErrNotStarted),
// Receive on a stopping actor (ErrReceiveStopped) or from outside a
// BlockingActor body, reply on an actor with replies disabled, reply with
// no current sender, and SetPool on a frozen Group. Send to an actor that
// has already stopped returns DeliveryError instead.
type InvalidOperationError struct {
	Op  string
	Why string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("actor: invalid operation %q: %s", e.Op, e.Why)
}

// DeliveryError is returned by Send when the target actor has already
// stopped and cannot accept the message.
type DeliveryError struct {
	Target  Address
	Payload any
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("actor: message to %q undeliverable, actor has stopped", e.Target)
}

// UserError wraps a panic recovered from inside a chunk or, equivalently,
// a non-nil error a Receive returns, capturing a stack trace taken at the
// point of recovery for diagnostics.
type UserError struct {
	Cause any
	Stack []byte
}

func newUserError(recovered any) *UserError {
	return &UserError{Cause: recovered, Stack: debug.Stack()}
}

func (e *UserError) Error() string {
	if err, ok := e.Cause.(error); ok {
		return fmt.Sprintf("actor: chunk failed: %v", err)
	}
	return fmt.Sprintf("actor: chunk panicked: %v", e.Cause)
}

// Unwrap lets errors.Is/errors.As see through to the recovered error, if
// the panic value (or the Receive-returned error) was itself an error.
func (e *UserError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

var (
	// ErrNotStarted is returned by Send when the target actor has not
	// been Start()-ed yet.
	ErrNotStarted error = &InvalidOperationError{Op: "Send", Why: "actor not started"}

	// ErrJoinTimeout is returned by Join when the supplied timeout
	// elapses before the actor terminates.
	ErrJoinTimeout = errors.New("actor: join timed out")

	// ErrAskTimeout is returned by Ask when no reply arrives
	// before the supplied timeout.
	ErrAskTimeout = errors.New("actor: sendAndWait timed out")

	// ErrReceiveTimeout is returned by Context.Receive when the supplied
	// timeout elapses before a message arrives.
	ErrReceiveTimeout = errors.New("actor: receive timed out")

	// ErrReceiveStopped is returned by Context.Receive when the actor is
	// stopping and no further message will ever arrive.
	ErrReceiveStopped error = &InvalidOperationError{Op: "Receive", Why: "receive called on stopping actor"}
)
