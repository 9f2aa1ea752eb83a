package operator

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/nqn/loom/pkg/actor"
	"github.com/nqn/loom/pkg/dataflow"
	"github.com/nqn/loom/pkg/diag"
)

type state int32

const (
	stateConstructed state = iota
	stateRunning
	stateStopping
	stateStopped
)

// kickoff is the self-addressed message an operator worker's AfterStart
// hook sends so Initial runs as a real scheduled chunk — a pkg/actor
// Initial only runs upon message arrival, so a worker must nudge itself
// rather than gather inline during Start.
type kickoff struct{}

// Operator is the C3 runtime: a driver actor plus up to MaxForks-1 extra
// worker actors, all running the same gather → apply → emit loop against
// a shared Options.
type Operator struct {
	inputs   []dataflow.ReadChannel
	outputs  []dataflow.WriteChannel
	bodyFn   reflect.Value
	bodyType reflect.Type
	onError  func(err error, stop func())

	state state32

	atomicEmitMu sync.Mutex

	workers []*actor.Actor
	joinWg  sync.WaitGroup
}

type state32 struct {
	v atomic.Int32
}

func (s *state32) load() state { return state(s.v.Load()) }
func (s *state32) store(n state) { s.v.Store(int32(n)) }
func (s *state32) cas(old, newState state) bool {
	return s.v.CompareAndSwap(int32(old), int32(newState))
}

// New validates opts and body, raising *ConfigurationError synchronously
// on any mismatch (spec.md §4.3: zero inputs, or arity not matching
// len(Inputs)), then spawns the driver plus MaxForks-1 extra worker
// actors and starts them gathering. body's shape is checked via
// reflection: body must be a func whose first parameter is
// *operator.Context and whose remaining parameter count equals
// len(opts.Inputs) — the Go analogue of GPars checking a Groovy
// Closure's parameter count against the operator's input list.
func New(opts Options, body any) (*Operator, error) {
	if len(opts.Inputs) == 0 {
		return nil, &ConfigurationError{Why: "operator must have at least one input"}
	}
	if opts.MaxForks < 0 {
		return nil, &ConfigurationError{Why: "MaxForks must not be negative"}
	}
	maxForks := opts.MaxForks
	if maxForks == 0 {
		maxForks = 1
	}

	bodyType := reflect.TypeOf(body)
	if bodyType == nil || bodyType.Kind() != reflect.Func {
		return nil, &ConfigurationError{Why: "body must be a function"}
	}
	wantArity := len(opts.Inputs) + 1
	if bodyType.NumIn() != wantArity {
		return nil, &ConfigurationError{Why: fmt.Sprintf(
			"body arity %d does not match %d inputs (want %d parameters including *operator.Context)",
			bodyType.NumIn(), len(opts.Inputs), wantArity)}
	}
	ctxType := reflect.TypeOf((*Context)(nil))
	if bodyType.In(0) != ctxType {
		return nil, &ConfigurationError{Why: "body's first parameter must be *operator.Context"}
	}

	op := &Operator{
		inputs:   opts.Inputs,
		outputs:  opts.Outputs,
		onError:  opts.OnError,
		bodyFn:   reflect.ValueOf(body),
		bodyType: bodyType,
	}
	op.state.store(stateRunning)

	for i := 0; i < maxForks; i++ {
		op.spawnWorker(i)
	}
	return op, nil
}

func (op *Operator) spawnWorker(idx int) {
	op.joinWg.Add(1)
	w := actor.Spawn(actor.Config{
		Address: actor.Address(fmt.Sprintf("operator-worker-%d", idx)),
		Initial: op.handleKickoffOrResult,
		Hooks: actor.Hooks{
			AfterStart: func(ctx *actor.Context) {
				_ = ctx.Self().Send(nil, kickoff{})
			},
			AfterStop: func(self actor.Ref, drained []actor.Envelope) {
				op.joinWg.Done()
			},
			OnException: func(ctx *actor.Context, err error) {
				op.reportError(err)
			},
		},
	})
	op.workers = append(op.workers, w)
	w.Start()
}

func (op *Operator) handleKickoffOrResult(ctx *actor.Context, msg any) (actor.Behavior, error) {
	return op.beginGather(ctx), nil
}

type gatherState struct {
	collected map[int]any
	count     int
}

func (op *Operator) beginGather(ctx *actor.Context) actor.Behavior {
	if op.state.load() != stateRunning {
		return ctx.Stop()
	}
	st := &gatherState{collected: make(map[int]any, len(op.inputs))}
	self := actor.AsMessageStream(ctx.Self())
	for i, in := range op.inputs {
		in.GetValAsyncAttach(i, self)
	}
	return ctx.React(op.collectReceive(st))
}

func (op *Operator) collectReceive(st *gatherState) actor.Receive {
	return func(ctx *actor.Context, msg any) (actor.Behavior, error) {
		res, ok := msg.(dataflow.Result)
		if !ok {
			return ctx.React(op.collectReceive(st)), nil
		}
		idx, _ := res.Attachment.(int)
		st.collected[idx] = res.Value
		st.count++
		if st.count < len(op.inputs) {
			return ctx.React(op.collectReceive(st)), nil
		}

		if op.state.load() != stateRunning {
			return ctx.Stop(), nil
		}

		if err := op.apply(ctx, st); err != nil {
			op.reportError(err)
		}

		if op.state.load() != stateRunning {
			return ctx.Stop(), nil
		}
		return op.beginGather(ctx), nil
	}
}

// apply invokes the user body with the gathered positional values,
// recovering a panic into an error the same way pkg/actor recovers a
// chunk panic, so a body mistake is reported via reportError rather than
// crashing the worker's underlying goroutine.
func (op *Operator) apply(ctx *actor.Context, st *gatherState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("operator: body panicked: %v", r)
		}
	}()

	args := make([]reflect.Value, len(op.inputs)+1)
	args[0] = reflect.ValueOf(&Context{op: op})
	for i := 0; i < len(op.inputs); i++ {
		v := st.collected[i]
		if v == nil {
			args[i+1] = reflect.Zero(op.bodyType.In(i + 1))
			continue
		}
		args[i+1] = reflect.ValueOf(v)
	}
	op.bodyFn.Call(args)
	return nil
}

func (op *Operator) reportError(err error) {
	if op.onError != nil {
		op.onError(err, op.Stop)
		return
	}
	diag.Default().Error("operator: body reported an error", err)
}

// Stop asks the operator to terminate at the next safe point (between a
// worker's gather and apply). It does not guarantee that values already
// gathered for an in-flight round are applied.
func (op *Operator) Stop() {
	op.state.cas(stateRunning, stateStopping)
}

// Join blocks until every worker actor has terminated.
func (op *Operator) Join() {
	op.joinWg.Wait()
	op.state.store(stateStopped)
}

// GetOutput returns outputs[0], the conventional single-output accessor.
func (op *Operator) GetOutput() dataflow.ReadChannel {
	if len(op.outputs) == 0 {
		return nil
	}
	ch, _ := op.outputs[0].(dataflow.ReadChannel)
	return ch
}

func (op *Operator) bindOutput(i int, v any) error {
	if i < 0 || i >= len(op.outputs) {
		return fmt.Errorf("operator: output index %d out of range [0,%d)", i, len(op.outputs))
	}
	return op.outputs[i].Bind(v)
}

func (op *Operator) bindAllOutputs(v any) error {
	for _, o := range op.outputs {
		if err := o.Bind(v); err != nil {
			return err
		}
	}
	return nil
}

func (op *Operator) bindAllOutputValues(vs []any) error {
	if len(vs) != len(op.outputs) {
		return fmt.Errorf("operator: got %d values for %d outputs", len(vs), len(op.outputs))
	}
	for i, o := range op.outputs {
		if err := o.Bind(vs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (op *Operator) bindAllOutputsAtomically(v any) error {
	op.atomicEmitMu.Lock()
	defer op.atomicEmitMu.Unlock()
	return op.bindAllOutputs(v)
}

func (op *Operator) bindAllOutputValuesAtomically(vs []any) error {
	op.atomicEmitMu.Lock()
	defer op.atomicEmitMu.Unlock()
	return op.bindAllOutputValues(vs)
}
