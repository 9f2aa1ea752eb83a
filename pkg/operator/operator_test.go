package operator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nqn/loom/pkg/dataflow"
)

// S1 — Sum operator: two inputs, one output, body adds and binds the sum.
func TestOperatorSum(t *testing.T) {
	a := dataflow.NewDFQ()
	b := dataflow.NewDFQ()
	sum := dataflow.NewDFQ()

	op, err := New(Options{
		Inputs:  []dataflow.ReadChannel{a, b},
		Outputs: []dataflow.WriteChannel{sum},
	}, func(ctx *Context, x, y any) {
		ctx.BindOutput(0, x.(int)+y.(int))
	})
	require.NoError(t, err)
	require.NotNil(t, op)

	for i := 0; i < 5; i++ {
		a.Enqueue(i)
		b.Enqueue(i * 10)
	}

	for i := 0; i < 5; i++ {
		v, err := sum.GetValTimeout(time.Second)
		require.NoError(t, err)
		assert.Equal(t, i+i*10, v)
	}
}

// S2 — double-wait on the same channel: inputs [q, q], pushing 1,2,3,4
// must be consumed one-per-position in FIFO order.
func TestOperatorDoubleWaitSameChannelFIFO(t *testing.T) {
	q := dataflow.NewDFQ()
	out := dataflow.NewDFQ()

	op, err := New(Options{
		Inputs:  []dataflow.ReadChannel{q, q},
		Outputs: []dataflow.WriteChannel{out},
	}, func(ctx *Context, x, y any) {
		ctx.BindOutput(0, [2]int{x.(int), y.(int)})
	})
	require.NoError(t, err)
	require.NotNil(t, op)

	for _, v := range []int{1, 2, 3, 4} {
		q.Enqueue(v)
	}

	v, err := out.GetValTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, [2]int{1, 2}, v)

	v, err = out.GetValTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, [2]int{3, 4}, v)
}

// S4 — maxForks=5, outputs [b,c,d], body bindAllOutputsAtomically(x).
// Feeding 1..10 and reading 10 values from each of b, c, d should yield
// three equal lists (atomic emit preserves cross-output correlation).
func TestOperatorAtomicEmitPreservesCorrelation(t *testing.T) {
	in := dataflow.NewDFQ()
	b := dataflow.NewDFQ()
	c := dataflow.NewDFQ()
	d := dataflow.NewDFQ()

	op, err := New(Options{
		Inputs:   []dataflow.ReadChannel{in},
		Outputs:  []dataflow.WriteChannel{b, c, d},
		MaxForks: 5,
	}, func(ctx *Context, x any) {
		ctx.BindAllOutputsAtomically(x)
	})
	require.NoError(t, err)
	require.NotNil(t, op)

	for i := 1; i <= 10; i++ {
		in.Enqueue(i)
	}

	readAll := func(ch *dataflow.DFQ) []any {
		out := make([]any, 10)
		for i := 0; i < 10; i++ {
			v, err := ch.GetValTimeout(2 * time.Second)
			require.NoError(t, err)
			out[i] = v
		}
		return out
	}

	var wg sync.WaitGroup
	results := make([][]any, 3)
	for i, ch := range []*dataflow.DFQ{b, c, d} {
		i, ch := i, ch
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = readAll(ch)
		}()
	}
	wg.Wait()

	assert.Equal(t, results[0], results[1])
	assert.Equal(t, results[1], results[2])
}

func TestOperatorConstructionErrors(t *testing.T) {
	out := dataflow.NewDFQ()

	_, err := New(Options{
		Inputs:  nil,
		Outputs: []dataflow.WriteChannel{out},
	}, func(ctx *Context) {})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	a := dataflow.NewDFQ()
	_, err = New(Options{
		Inputs:  []dataflow.ReadChannel{a},
		Outputs: []dataflow.WriteChannel{out},
	}, func(ctx *Context, x, y any) {})
	require.ErrorAs(t, err, &cfgErr)
}

func TestOperatorStopAndJoin(t *testing.T) {
	a := dataflow.NewDFQ()
	var calls int
	var mu sync.Mutex

	op, err := New(Options{
		Inputs: []dataflow.ReadChannel{a},
	}, func(ctx *Context, x any) {
		mu.Lock()
		calls++
		mu.Unlock()
		ctx.Stop()
	})
	require.NoError(t, err)

	a.Enqueue(1)
	op.Join()

	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
}
