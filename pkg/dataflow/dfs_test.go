package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDFSLeftshiftAndGetFirst(t *testing.T) {
	s := NewDFS()
	rest := s.Leftshift(1)
	assert.Equal(t, 1, s.GetFirst())
	assert.NotNil(t, rest)
}

func TestDFSIsEmptyOnEOS(t *testing.T) {
	s := NewDFS()
	rest := s.Leftshift("a")
	rest.Leftshift(EOS)

	assert.False(t, s.IsEmpty())
	assert.True(t, rest.IsEmpty())
}

func TestDFSMultipleReadersSeeSameOrder(t *testing.T) {
	s := NewDFS()
	cursor := s
	for _, v := range []any{1, 2, 3} {
		cursor = cursor.Leftshift(v)
	}
	cursor.Leftshift(EOS)

	readAll := func(start *DFS) []any {
		var out []any
		cur := start
		for !cur.IsEmpty() {
			out = append(out, cur.GetFirst())
			cur = cur.Rest()
		}
		return out
	}

	readerA := readAll(s)
	readerB := readAll(s)
	assert.Equal(t, []any{1, 2, 3}, readerA)
	assert.Equal(t, []any{1, 2, 3}, readerB)
}

func TestDFSFilter(t *testing.T) {
	s := NewDFS()
	cursor := s
	for _, v := range []any{1, 2, 3, 4, 5, 6} {
		cursor = cursor.Leftshift(v)
	}
	cursor.Leftshift(EOS)

	evens := s.Filter(func(v any) bool { return v.(int)%2 == 0 })

	var got []any
	cur := evens
	for !cur.IsEmpty() {
		got = append(got, cur.GetFirst())
		cur = cur.Rest()
	}
	assert.Equal(t, []any{2, 4, 6}, got)
}

func TestDFSMap(t *testing.T) {
	s := NewDFS()
	cursor := s
	for _, v := range []any{1, 2, 3} {
		cursor = cursor.Leftshift(v)
	}
	cursor.Leftshift(EOS)

	doubled := s.Map(func(v any) any { return v.(int) * 2 })

	var got []any
	cur := doubled
	for !cur.IsEmpty() {
		got = append(got, cur.GetFirst())
		cur = cur.Rest()
	}
	assert.Equal(t, []any{2, 4, 6}, got)
}

func TestDFSReduce(t *testing.T) {
	s := NewDFS()
	cursor := s
	for _, v := range []any{1, 2, 3, 4} {
		cursor = cursor.Leftshift(v)
	}
	cursor.Leftshift(EOS)

	sum := s.Reduce(func(acc, v any) any { return acc.(int) + v.(int) })
	assert.Equal(t, 10, sum)
}

func TestDFSReduceSeed(t *testing.T) {
	s := NewDFS()
	cursor := s
	for _, v := range []any{1, 2, 3} {
		cursor = cursor.Leftshift(v)
	}
	cursor.Leftshift(EOS)

	product := s.ReduceSeed(10, func(acc, v any) any { return acc.(int) * v.(int) })
	assert.Equal(t, 60, product)
}

func TestDFSGenerate(t *testing.T) {
	s := NewDFS()
	s.Generate(1, func(v any) any { return v.(int) + 1 }, func(v any) bool { return v.(int) <= 5 })

	var got []any
	cur := s
	for !cur.IsEmpty() {
		got = append(got, cur.GetFirst())
		cur = cur.Rest()
	}
	assert.Equal(t, []any{1, 2, 3, 4, 5}, got)
}

func TestDFSWheneverBoundFiresForFutureCells(t *testing.T) {
	s := NewDFS()
	fired := make(chan any, 10)
	s.WheneverBound(Func(func(msg any) {
		fired <- msg
	}))

	rest := s.Leftshift("first")
	rest.Leftshift("second")

	assert.Equal(t, "first", <-fired)
	assert.Equal(t, "second", <-fired)
}

func TestStreamReadWriteAdapters(t *testing.T) {
	s := NewDFS()
	w := NewStreamWriteAdapter(s)
	r := NewStreamReadAdapter(s)

	require.NoError(t, w.Bind("x"))
	require.NoError(t, w.Bind("y"))

	v1, err := r.GetVal()
	require.NoError(t, err)
	v2, err := r.GetVal()
	require.NoError(t, err)

	assert.Equal(t, "x", v1)
	assert.Equal(t, "y", v2)
}
