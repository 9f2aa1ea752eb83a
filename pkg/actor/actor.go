package actor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nqn/loom/pkg/diag"
	"github.com/nqn/loom/pkg/pool"
)

// Config configures a newly spawned Actor.
type Config struct {
	// Address, if empty, is generated from a uuid.
	Address Address

	// Group schedules this actor's chunks. Defaults to DefaultGroup().
	Group *Group

	// Initial is the first Receive invoked after AfterStart. Required.
	Initial Receive

	// InitialTimeout arms a react-timeout around the very first chunk.
	// The Go zero value (unset) is treated as NoTimeout, not as an
	// immediate-fire duration; Behavior.Timeout from a running chunk's
	// ctx.ReactTimeout is where duration-exactly-zero is reachable.
	InitialTimeout time.Duration

	// RepliesEnabled sets the starting value of the replies-on flag
	// (spec.md §7); EnableSendingReplies/DisableSendingReplies still
	// toggle it at runtime. Defaults to false.
	RepliesEnabled bool

	// Hooks are this actor's lifecycle callbacks, all optional.
	Hooks Hooks

	// MailboxHint presizes the mailbox's backing slice. Optional.
	MailboxHint int
}

type termKind int

const (
	termNormal termKind = iota
	termTimeout
	termException
	termInterrupt
)

// Actor is the pooled, continuation-style actor described in spec.md §4.1
// (C1): its mailbox is a plain slice guarded by a mutex, and between
// messages it holds no goroutine of its own — the next chunk is submitted
// to its Group's pool.Pool only once a message is available, satisfying
// invariant I1 (at most one chunk queued-or-running per actor) and I2 (no
// worker thread is consumed while an actor is merely waiting).
//
// Grounded on _examples/ConnorDoyle-spider/pkg/actor/actor.go's Actor
// struct, generalized from its goroutine-per-actor blocking receive loop
// to pool-scheduled chunks.
type Actor struct {
	address Address
	group   *Group
	hooks   Hooks

	mailboxMu sync.Mutex
	queue     []Envelope
	pending   *pendingReceive
	stopped   bool
	stopReq   bool

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc

	repliesOn atomic.Bool

	startOnce      sync.Once
	started        atomic.Bool
	doneCh         chan struct{}
	initialTimeout time.Duration
}

// pendingReceive is the chunk currently armed to run on the next message,
// together with its react-timeout state.
type pendingReceive struct {
	fn      Receive
	timer   pool.Timer
	fired   atomic.Bool
}

// Spawn constructs an Actor from cfg but does not schedule any chunk yet;
// call Start to begin processing.
func Spawn(cfg Config) *Actor {
	if cfg.Initial == nil {
		panic("actor: Config.Initial must not be nil")
	}
	addr := cfg.Address
	if addr == "" {
		addr = Address(uuid.NewString())
	}
	grp := cfg.Group
	if grp == nil {
		grp = DefaultGroup()
	}

	a := &Actor{
		address: addr,
		group:   grp,
		hooks:   cfg.Hooks,
		doneCh:  make(chan struct{}),
	}
	a.repliesOn.Store(cfg.RepliesEnabled)
	if cfg.MailboxHint > 0 {
		a.queue = make([]Envelope, 0, cfg.MailboxHint)
	}
	a.pending = &pendingReceive{fn: cfg.Initial}
	a.initialTimeout = cfg.InitialTimeout
	if a.initialTimeout == 0 {
		a.initialTimeout = NoTimeout
	}
	return a
}

// Address returns the actor's address.
func (a *Actor) Address() Address {
	return a.address
}

// IsActive reports whether the actor has been started and has not yet
// terminated.
func (a *Actor) IsActive() bool {
	if !a.started.Load() {
		return false
	}
	a.mailboxMu.Lock()
	defer a.mailboxMu.Unlock()
	return !a.stopped
}

// Start begins processing: it runs Hooks.AfterStart and arms the initial
// chunk to run on the first message (arming Config.InitialTimeout, if
// any). Start is idempotent; only the first call has effect.
func (a *Actor) Start() *Actor {
	a.startOnce.Do(func() {
		initial := a.pending.fn
		a.started.Store(true)
		if a.hooks.AfterStart != nil {
			a.hooks.AfterStart(&Context{self: a, ctx: context.Background(), repliesOn: a.repliesOn.Load()})
		}

		a.mailboxMu.Lock()
		if len(a.queue) > 0 {
			env := a.queue[0]
			a.queue = a.queue[1:]
			a.pending = nil
			a.mailboxMu.Unlock()
			a.scheduleChunk(initial, env)
			return
		}
		a.armTimeoutLocked(a.pending, a.initialTimeout)
		a.mailboxMu.Unlock()
	})
	return a
}

// Send enqueues payload for delivery. If the actor is idle with a pending
// handler and no queued messages, Send adopts the message immediately and
// schedules the chunk on the Group's pool; otherwise it appends to the
// mailbox for the running (or future) chunk to pick up. Returns
// DeliveryError if the actor has already stopped, ErrNotStarted if it has
// not yet been started.
func (a *Actor) Send(sender Ref, payload any) error {
	if !a.started.Load() {
		return ErrNotStarted
	}

	env := Envelope{Sender: sender, Payload: payload}

	a.mailboxMu.Lock()
	if a.stopped {
		a.mailboxMu.Unlock()
		a.notifyUndelivered(payload)
		return &DeliveryError{Target: a.address, Payload: payload}
	}

	if a.pending != nil {
		p := a.pending
		a.pending = nil
		if p.timer != nil {
			p.timer.Stop()
		}
		a.mailboxMu.Unlock()
		a.scheduleChunk(p.fn, env)
		return nil
	}

	a.queue = append(a.queue, env)
	a.mailboxMu.Unlock()
	return nil
}

// scheduleChunk submits one chunk invocation to the actor's Group.
func (a *Actor) scheduleChunk(fn Receive, env Envelope) {
	a.group.currentPool().Execute(func() {
		a.runChunk(fn, env)
	})
}

// runChunk executes one Receive invocation under a cancelable
// context.Context, interprets its Behavior, and either arms the next
// chunk or terminates the actor.
func (a *Actor) runChunk(fn Receive, env Envelope) {
	ctx, cancel := context.WithCancel(context.Background())

	a.runMu.Lock()
	a.running = true
	a.cancel = cancel
	a.runMu.Unlock()

	cctx := &Context{self: a, ctx: ctx, sender: env.Sender, repliesOn: a.repliesOn.Load()}

	behavior, err := a.invoke(fn, cctx, env.Payload)

	a.runMu.Lock()
	a.running = false
	a.cancel = nil
	a.runMu.Unlock()
	cancel()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			a.terminate(termInterrupt, cctx)
			return
		}
		a.terminate(termException, cctx, err)
		return
	}

	a.repliesOn.Store(cctx.repliesOn)

	if behavior.Next == nil {
		a.terminate(termNormal, cctx)
		return
	}
	a.arm(behavior.Next, behavior.Timeout)
}

// invoke runs fn, wrapping both a recovered panic and a returned error
// into a *UserError so the scheduler's termination path is uniform.
func (a *Actor) invoke(fn Receive, ctx *Context, msg any) (b Behavior, err error) {
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

// arm installs the next chunk as pending, adopting an already-queued
// message immediately if one is waiting, or arming a react-timeout and
// waiting for Send otherwise.
func (a *Actor) arm(fn Receive, timeout time.Duration) {
	a.mailboxMu.Lock()
	if a.stopReq {
		a.mailboxMu.Unlock()
		a.terminate(termNormal, &Context{self: a, ctx: context.Background(), repliesOn: a.repliesOn.Load()})
		return
	}
	if len(a.queue) > 0 {
		env := a.queue[0]
		a.queue = a.queue[1:]
		a.mailboxMu.Unlock()
		a.scheduleChunk(fn, env)
		return
	}

	p := &pendingReceive{fn: fn}
	a.pending = p
	a.armTimeoutLocked(p, timeout)
	a.mailboxMu.Unlock()
}

// armTimeoutLocked schedules p's react-timeout. Caller holds mailboxMu.
func (a *Actor) armTimeoutLocked(p *pendingReceive, timeout time.Duration) {
	if timeout == NoTimeout {
		return
	}
	p.timer = a.group.currentPool().Schedule(timeout, func() {
		a.onTimeoutFire(p)
	})
}

// onTimeoutFire runs when a react-timeout elapses. It only proceeds if p
// is still the current pending handler (a concurrent Send may have
// already adopted it), preserving "fires at most once".
func (a *Actor) onTimeoutFire(p *pendingReceive) {
	if !p.fired.CompareAndSwap(false, true) {
		return
	}
	a.mailboxMu.Lock()
	if a.pending != p {
		a.mailboxMu.Unlock()
		return
	}
	a.pending = nil
	a.mailboxMu.Unlock()

	a.terminate(termTimeout, &Context{self: a, ctx: context.Background(), repliesOn: a.repliesOn.Load()})
}

// terminate runs the appropriate hook for kind, then drains the mailbox
// and marks the actor stopped. It is the single funnel every chunk path
// (normal fallthrough, explicit Stop, exception, interrupt, timeout) goes
// through, matching spec.md §7's "exactly one termination hook fires".
func (a *Actor) terminate(kind termKind, ctx *Context, err ...error) {
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
			var e error
			if len(err) > 0 {
				e = err[0]
			}
			a.hooks.OnException(ctx, e)
		}
	case termInterrupt:
		if a.hooks.OnInterrupt != nil {
			a.hooks.OnInterrupt(ctx)
		}
	}

	a.drainAndStop()
}

// drainAndStop discards any queued and pending-but-unarmed messages,
// notifying each undelivered payload, marks the actor stopped, and runs
// AfterStop. Safe to call more than once; only the first call drains.
func (a *Actor) drainAndStop() {
	a.mailboxMu.Lock()
	if a.stopped {
		a.mailboxMu.Unlock()
		return
	}
	a.stopped = true
	drained := a.queue
	a.queue = nil
	if a.pending != nil && a.pending.timer != nil {
		a.pending.timer.Stop()
	}
	a.pending = nil
	a.mailboxMu.Unlock()

	for _, env := range drained {
		a.notifyUndelivered(env.Payload)
	}

	if a.hooks.AfterStop != nil {
		a.hooks.AfterStop(a, drained)
	}
	close(a.doneCh)
}

// notifyUndelivered calls payload's own OnDeliveryError if it implements
// DeliveryErrorAware, else falls back to Hooks.OnDeliveryError, else logs
// through the process diagnostic sink so a dropped message is never
// silent.
func (a *Actor) notifyUndelivered(payload any) {
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

// Stop requests termination. If a chunk is currently running, its
// context.Context is canceled; the chunk's own completion (observing the
// cancellation, or not) decides between termInterrupt and termNormal. If
// the actor is idle, it terminates immediately.
func (a *Actor) Stop() {
	a.runMu.Lock()
	if a.running {
		if a.cancel != nil {
			a.cancel()
		}
		a.runMu.Unlock()
		a.mailboxMu.Lock()
		a.stopReq = true
		a.mailboxMu.Unlock()
		return
	}
	a.runMu.Unlock()

	a.mailboxMu.Lock()
	if a.stopped {
		a.mailboxMu.Unlock()
		return
	}
	if a.pending != nil && a.pending.timer != nil {
		a.pending.timer.Stop()
	}
	a.pending = nil
	a.mailboxMu.Unlock()

	a.terminate(termNormal, &Context{self: a, ctx: context.Background(), repliesOn: a.repliesOn.Load()})
}

// Join blocks until the actor has fully terminated (mailbox drained,
// AfterStop returned), or until d elapses, whichever comes first. d <= 0
// means wait indefinitely.
func (a *Actor) Join(d time.Duration) error {
	if d <= 0 {
		<-a.doneCh
		return nil
	}
	select {
	case <-a.doneCh:
		return nil
	case <-time.After(d):
		return ErrJoinTimeout
	}
}
