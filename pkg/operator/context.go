package operator

// Context is the first argument to every operator body invocation,
// carrying the bind methods spec.md §4.3 specifies.
type Context struct {
	op *Operator
}

// BindOutput binds v to output i.
func (c *Context) BindOutput(i int, v any) error {
	return c.op.bindOutput(i, v)
}

// BindAllOutputs binds v to every output.
func (c *Context) BindAllOutputs(v any) error {
	return c.op.bindAllOutputs(v)
}

// BindAllOutputValues binds vs[i] to output i, positionally. len(vs) must
// equal the operator's output count.
func (c *Context) BindAllOutputValues(vs ...any) error {
	return c.op.bindAllOutputValues(vs)
}

// BindAllOutputsAtomically is BindAllOutputs under the operator's
// process-wide atomic-emit ordering guarantee (spec.md §4.3): if worker A
// begins atomic-emit before worker B, A's outputs appear before B's on
// every output channel.
func (c *Context) BindAllOutputsAtomically(v any) error {
	return c.op.bindAllOutputsAtomically(v)
}

// BindAllOutputValuesAtomically is BindAllOutputValues under the same
// atomic-emit ordering guarantee.
func (c *Context) BindAllOutputValuesAtomically(vs ...any) error {
	return c.op.bindAllOutputValuesAtomically(vs)
}

// Stop requests the operator terminate at the next safe point (between a
// worker's gather and apply phases).
func (c *Context) Stop() {
	c.op.Stop()
}
