// Package operator implements the dataflow operator runtime specified in
// spec.md §4.3 (C3): gather one value from each input, apply user code,
// emit atomically or non-atomically, with bounded parallelism via
// maxForks. Grounded on _examples/ConnorDoyle-spider/pkg/actor for the
// driver/worker actors it is built from (C3-on-C1-on-C2) and on
// _examples/specialistvlad-burstgridgo for the reflect-based body-arity
// validation used at construction.
package operator

import "github.com/nqn/loom/pkg/dataflow"

// Options configures a newly constructed Operator.
type Options struct {
	// Inputs is the ordered list of channels the operator gathers from.
	// Must have at least one entry.
	Inputs []dataflow.ReadChannel

	// Outputs is the ordered list of channels the operator may bind to.
	// May be empty — a sink operator with no outputs is valid.
	Outputs []dataflow.WriteChannel

	// MaxForks bounds concurrent rounds: the driver plus MaxForks-1 extra
	// worker actors each run the same gather/apply/emit loop. Defaults
	// to 1 (no extra forks) when zero.
	MaxForks int

	// OnError overrides the default reportError handler (spec.md §4.3),
	// which logs through diag.Default() and continues. stop, called from
	// within the handler, requests the operator terminate at the next
	// safe point.
	OnError func(err error, stop func())
}
