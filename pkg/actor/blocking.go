package actor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nqn/loom/pkg/diag"
)

// BlockingConfig configures a BlockingActor.
type BlockingConfig struct {
	Address        Address
	Initial        Receive
	InitialTimeout time.Duration
	RepliesEnabled bool
	Hooks          Hooks
	MailboxHint    int
}

// BlockingActor is the teacher's original goroutine-per-actor adapter,
// kept for callers that want classic blocking-receive semantics (e.g.
// bridging to code that cannot tolerate a pooled continuation style) and,
// per SPEC_FULL.md's Open Question #1, the one actor flavor that may be
// restarted after a clean Stop — a pooled Actor cannot, since its chunks
// are submitted one at a time and a stopped pool-Actor has no loop left
// to resume.
//
// Grounded on _examples/ConnorDoyle-spider/pkg/actor's blocking-receive
// goroutine loop, generalized to the same Hooks/Behavior vocabulary as
// the pooled Actor so both flavors are interchangeable behind Ref.
type BlockingActor struct {
	address Address
	hooks   Hooks
	initial Receive
	initTO  time.Duration

	mu        sync.Mutex
	queue     []Envelope
	signal    chan struct{}
	running   bool
	stopped   bool
	cancel    context.CancelFunc
	doneCh    chan struct{}
	repliesOn bool
}

// NewBlockingActor constructs a BlockingActor; call Start to begin its
// receive loop.
func NewBlockingActor(cfg BlockingConfig) *BlockingActor {
	if cfg.Initial == nil {
		panic("actor: BlockingConfig.Initial must not be nil")
	}
	addr := cfg.Address
	if addr == "" {
		addr = Address(uuid.NewString())
	}
	queue := []Envelope(nil)
	if cfg.MailboxHint > 0 {
		queue = make([]Envelope, 0, cfg.MailboxHint)
	}
	initTO := cfg.InitialTimeout
	if initTO == 0 {
		initTO = NoTimeout
	}
	return &BlockingActor{
		address:   addr,
		hooks:     cfg.Hooks,
		initial:   cfg.Initial,
		initTO:    initTO,
		queue:     queue,
		signal:    make(chan struct{}, 1),
		repliesOn: cfg.RepliesEnabled,
	}
}

// Address returns the actor's address.
func (a *BlockingActor) Address() Address {
	return a.address
}

// IsActive reports whether the loop is currently running.
func (a *BlockingActor) IsActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Start launches (or relaunches, after a prior clean Stop) the receive
// loop goroutine.
func (a *BlockingActor) Start() *BlockingActor {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return a
	}
	a.running = true
	a.stopped = false
	a.doneCh = make(chan struct{})
	done := a.doneCh
	a.mu.Unlock()

	go a.loop(done)
	return a
}

// Send enqueues payload and wakes the loop if it is waiting.
func (a *BlockingActor) Send(sender Ref, payload any) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		a.notifyUndelivered(payload)
		return &DeliveryError{Target: a.address, Payload: payload}
	}
	if !a.running {
		a.mu.Unlock()
		return ErrNotStarted
	}
	a.queue = append(a.queue, Envelope{Sender: sender, Payload: payload})
	a.mu.Unlock()

	select {
	case a.signal <- struct{}{}:
	default:
	}
	return nil
}

func (a *BlockingActor) take() (Envelope, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queue) == 0 {
		return Envelope{}, false
	}
	env := a.queue[0]
	a.queue = a.queue[1:]
	return env, true
}

func (a *BlockingActor) loop(done chan struct{}) {
	fn := a.initial
	timeout := a.initTO

	if a.hooks.AfterStart != nil {
		a.hooks.AfterStart(&Context{self: a, ctx: context.Background(), repliesOn: a.repliesOn})
	}

	for {
		env, timedOut, stop := a.waitFor(timeout)
		if stop {
			ctx := &Context{self: a, ctx: context.Background(), repliesOn: a.repliesOn}
			a.terminateLoop(termNormal, ctx, nil)
			a.finish(done, nil)
			return
		}
		if timedOut {
			ctx := &Context{self: a, ctx: context.Background(), repliesOn: a.repliesOn}
			a.terminateLoop(termTimeout, ctx, nil)
			a.finish(done, nil)
			return
		}

		cctx := context.Background()
		cctx, cancel := context.WithCancel(cctx)
		a.mu.Lock()
		a.cancel = cancel
		a.mu.Unlock()

		rctx := &Context{self: a, ctx: cctx, sender: env.Sender, repliesOn: a.repliesOn}
		behavior, err := a.invoke(fn, rctx, env.Payload)
		cancel()

		a.mu.Lock()
		a.cancel = nil
		a.mu.Unlock()
		a.repliesOn = rctx.repliesOn

		if err != nil {
			if errors.Is(err, context.Canceled) {
				a.terminateLoop(termInterrupt, rctx, nil)
			} else {
				a.terminateLoop(termException, rctx, err)
			}
			a.finish(done, nil)
			return
		}
		if behavior.Next == nil {
			a.terminateLoop(termNormal, rctx, nil)
			a.finish(done, nil)
			return
		}
		fn = behavior.Next
		timeout = behavior.Timeout
	}
}

func (a *BlockingActor) invoke(fn Receive, ctx *Context, msg any) (b Behavior, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newUserError(r)
		}
	}()
	b, err = fn(ctx, msg)
	if err != nil {
		err = newUserError(err)
	}
	return b, err
}

// waitFor blocks until a message is available, the react-timeout elapses,
// or Stop requests termination.
func (a *BlockingActor) waitFor(timeout time.Duration) (env Envelope, timedOut, stop bool) {
	for {
		if env, ok := a.take(); ok {
			return env, false, false
		}
		a.mu.Lock()
		wantStop := a.stopped
		a.mu.Unlock()
		if wantStop {
			return Envelope{}, false, true
		}

		if timeout == NoTimeout {
			<-a.signal
			continue
		}
		select {
		case <-a.signal:
			continue
		case <-time.After(timeout):
			return Envelope{}, true, false
		}
	}
}

// receiveSync is the blocking adapter's take()-from-within-the-body
// operation: it lets a long-running BlockingActor Receive pull the next
// mailbox message synchronously instead of returning a Behavior and
// waiting for the loop to invoke it again. timeout <= 0 waits indefinitely;
// ctx canceled (via Stop's cancel of the running chunk) unblocks immediately
// with ctx.Err().
func (a *BlockingActor) receiveSync(ctx context.Context, timeout time.Duration) (Envelope, bool, error) {
	for {
		if env, ok := a.take(); ok {
			return env, false, nil
		}
		a.mu.Lock()
		wantStop := a.stopped
		a.mu.Unlock()
		if wantStop {
			return Envelope{}, false, ErrReceiveStopped
		}

		if timeout <= 0 {
			select {
			case <-a.signal:
				continue
			case <-ctx.Done():
				return Envelope{}, false, ctx.Err()
			}
		}
		select {
		case <-a.signal:
			continue
		case <-ctx.Done():
			return Envelope{}, false, ctx.Err()
		case <-time.After(timeout):
			return Envelope{}, true, nil
		}
	}
}

func (a *BlockingActor) terminateLoop(kind termKind, ctx *Context, err error) {
	if a.hooks.BeforeStop != nil {
		a.hooks.BeforeStop(ctx)
	}
	switch kind {
	case termTimeout:
		if a.hooks.OnTimeout != nil {
			a.hooks.OnTimeout(ctx)
		}
	case termException:
		if a.hooks.OnException != nil {
			a.hooks.OnException(ctx, err)
		}
	case termInterrupt:
		if a.hooks.OnInterrupt != nil {
			a.hooks.OnInterrupt(ctx)
		}
	}
}

func (a *BlockingActor) finish(done chan struct{}, _ error) {
	a.mu.Lock()
	a.running = false
	a.stopped = true
	drained := a.queue
	a.queue = nil
	a.mu.Unlock()

	for _, env := range drained {
		a.notifyUndelivered(env.Payload)
	}
	if a.hooks.AfterStop != nil {
		a.hooks.AfterStop(a, drained)
	}
	close(done)
}

func (a *BlockingActor) notifyUndelivered(payload any) {
	if aware, ok := payload.(DeliveryErrorAware); ok {
		aware.OnDeliveryError()
		return
	}
	if a.hooks.OnDeliveryError != nil {
		a.hooks.OnDeliveryError(a, payload)
		return
	}
	diag.Default().Errorf("actor %s: dropped undeliverable message %#v", a.address, payload)
}

// Stop requests termination: if a chunk is running, its context is
// canceled; otherwise the loop wakes and exits on its own. Unlike the
// pooled Actor, a BlockingActor may be Start()-ed again afterward.
func (a *BlockingActor) Stop() {
	a.mu.Lock()
	a.stopped = true
	cancel := a.cancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	select {
	case a.signal <- struct{}{}:
	default:
	}
}

// Join blocks until the current run of the loop has exited, or d elapses.
// d <= 0 means wait indefinitely.
func (a *BlockingActor) Join(d time.Duration) error {
	a.mu.Lock()
	done := a.doneCh
	a.mu.Unlock()
	if done == nil {
		return nil
	}
	if d <= 0 {
		<-done
		return nil
	}
	select {
	case <-done:
		return nil
	case <-time.After(d):
		return ErrJoinTimeout
	}
}
