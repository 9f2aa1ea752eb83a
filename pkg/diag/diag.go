// Package diag implements the process-wide diagnostic sink referenced by
// spec.md §6: a place errors raised from lifecycle hooks, operator bodies,
// and other user callbacks land when nothing else observes them. It is the
// only piece of global state this module exposes (besides the default
// pool and default actor group), matching spec.md §9's "Global state"
// design note.
package diag

import (
	"fmt"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Sink receives diagnostic events that have nowhere else to go: operator
// body errors with no reportError override, and delivery failures on
// stopped actors with no on-delivery-error handler. Panics raised inside
// actor lifecycle hooks are not recovered and do not reach it.
type Sink interface {
	// Errorf logs a formatted error-level diagnostic, prefixed with the
	// identity of the goroutine that raised it.
	Errorf(format string, args ...any)

	// Error logs err, wrapped with msg for context, at error level.
	Error(msg string, err error)
}

type logrusSink struct {
	log *logrus.Logger
}

// New wraps logger as a Sink. A nil logger falls back to a standard
// logrus.Logger writing to stderr.
func New(logger *logrus.Logger) Sink {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
	}
	return &logrusSink{log: logger}
}

func (s *logrusSink) Errorf(format string, args ...any) {
	s.log.WithField("goroutine", goroutineID()).Errorf(format, args...)
}

func (s *logrusSink) Error(msg string, err error) {
	wrapped := errors.Wrap(err, msg)
	s.log.WithField("goroutine", goroutineID()).Error(wrapped)
}

var (
	defaultOnce sync.Once
	defaultSink Sink
)

// Default returns the process-wide default diagnostic sink.
func Default() Sink {
	defaultOnce.Do(func() {
		defaultSink = New(nil)
	})
	return defaultSink
}

// SetDefault replaces the process-wide default sink. Intended for tests
// and for host applications that want diagnostics routed through their own
// logger.
func SetDefault(s Sink) {
	defaultOnce.Do(func() {})
	defaultSink = s
}

// goroutineID extracts a best-effort goroutine identity for the "thread
// identity" prefix spec.md §6 asks diagnostics to carry. It parses the
// runtime stack header rather than depending on an unexported runtime
// symbol, so it is slow; it is only called on the error path.
func goroutineID() string {
	var buf [64]byte
	n := stackHeader(buf[:])
	return fmt.Sprintf("goroutine:%s", string(buf[:n]))
}
