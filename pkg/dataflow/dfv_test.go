package dataflow

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDFVBindAndGetVal(t *testing.T) {
	v := NewDFV()
	require.False(t, v.IsBound())

	require.NoError(t, v.Bind(42))
	require.True(t, v.IsBound())

	got, err := v.GetVal()
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

// S6 — single-assignment violation.
func TestDFVSecondBindFails(t *testing.T) {
	v := NewDFV()
	require.NoError(t, v.Bind(1))

	err := v.Bind(2)
	require.Error(t, err)
	var abe *AlreadyBoundError
	require.ErrorAs(t, err, &abe)
	assert.Equal(t, 1, abe.Existing)

	got, err := v.GetVal()
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestDFVBindUniqueAcceptsEqualValue(t *testing.T) {
	v := NewDFV()
	require.NoError(t, v.Bind("x"))
	require.NoError(t, v.BindUnique("x"))

	err := v.BindUnique("y")
	require.Error(t, err)
}

func TestDFVGetValTimeoutExpires(t *testing.T) {
	v := NewDFV()
	_, err := v.GetValTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.False(t, v.IsBound())
}

func TestDFVGetValTimeoutSucceedsIfBoundInTime(t *testing.T) {
	v := NewDFV()
	go func() {
		time.Sleep(5 * time.Millisecond)
		v.Bind("hi")
	}()

	val, err := v.GetValTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hi", val)
}

func TestDFVManyBlockingWaitersSeeSameValue(t *testing.T) {
	v := NewDFV()
	var wg sync.WaitGroup
	results := make([]any, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			val, err := v.GetVal()
			require.NoError(t, err)
			results[i] = val
		}(i)
	}

	v.Bind("shared")
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
}

func TestDFVGetValAsyncDeliversInRegistrationOrder(t *testing.T) {
	v := NewDFV()
	var mu sync.Mutex
	var order []int

	for i := 0; i < 5; i++ {
		i := i
		v.GetValAsync(Func(func(msg any) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}

	v.Bind("go")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestDFVGetValAsyncAfterBindDeliversImmediately(t *testing.T) {
	v := NewDFV()
	require.NoError(t, v.Bind(7))

	var got any
	done := make(chan struct{})
	v.GetValAsync(Func(func(msg any) {
		got = msg
		close(done)
	}))
	<-done
	assert.Equal(t, 7, got)
}

func TestDFVGetValAsyncAttachCarriesAttachment(t *testing.T) {
	v := NewDFV()
	done := make(chan Result, 1)
	v.GetValAsyncAttach(3, Func(func(msg any) {
		done <- msg.(Result)
	}))
	require.NoError(t, v.Bind("value"))

	r := <-done
	assert.Equal(t, 3, r.Attachment)
	assert.Equal(t, "value", r.Value)
}
