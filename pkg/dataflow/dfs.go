package dataflow

import "sync"

// EOS is the end-of-stream sentinel: the reserved value that marks the
// terminal cell of a DFS (spec.md §3, §6). It is the zero value of any, so
// "bind nil" is how producers close a stream.
var EOS any = nil

// DFS is a deterministic dataflow stream: a functional cons-list of DFVs.
// Each cell owns a first DFV and a lazily-created rest; many readers may
// each traverse independently and will all observe the same binding order,
// translated from
// _examples/original_source/.../stream/DataflowStream.java (spec.md
// §4.2.3).
//
// DFS is designed for a single producer per cell; concurrent producers
// must serialize externally, or go through a StreamWriteAdapter.
type DFS struct {
	first  *DFV
	shared *streamShared

	restMu sync.Mutex
	rest   *DFS
}

// streamShared holds the whenever-bound listener list threaded through
// every cell descended from the same root stream, mirroring the private
// constructor in the Java original that passes the same collection down
// the chain.
type streamShared struct {
	mu        sync.Mutex
	listeners []MessageStream
}

// NewDFS returns a new, empty stream (a single unbound cell).
func NewDFS() *DFS {
	return newDFSNode(&streamShared{})
}

func newDFSNode(shared *streamShared) *DFS {
	s := &DFS{first: NewDFV(), shared: shared}
	shared.mu.Lock()
	listeners := append([]MessageStream(nil), shared.listeners...)
	shared.mu.Unlock()
	for _, l := range listeners {
		s.first.GetValAsync(l)
	}
	return s
}

// Leftshift binds value to this cell's first slot and returns the rest of
// the stream (creating it if it doesn't exist yet), matching leftShift(v)
// in spec.md §4.2.3. Pass EOS (nil) to terminate the stream.
func (s *DFS) Leftshift(value any) *DFS {
	s.first.Bind(value)
	return s.Rest()
}

// LeftshiftChannel asynchronously binds this cell's first slot once ref
// produces a value, and returns the rest of the stream immediately.
func (s *DFS) LeftshiftChannel(ref ReadChannel) *DFS {
	ref.GetValAsync(Func(func(msg any) {
		s.first.Bind(msg)
	}))
	return s.Rest()
}

// GetFirst blocks until the first element of this cell is bound, then
// returns it.
func (s *DFS) GetFirst() any {
	v, _ := s.first.GetVal()
	return v
}

// Rest returns the remaining stream after this cell, lazily creating it on
// first access.
func (s *DFS) Rest() *DFS {
	s.restMu.Lock()
	defer s.restMu.Unlock()
	if s.rest == nil {
		s.rest = newDFSNode(s.shared)
	}
	return s.rest
}

// IsEmpty reports whether this cell's bound value is the end-of-stream
// sentinel. It blocks until the cell is bound.
func (s *DFS) IsEmpty() bool {
	return s.GetFirst() == EOS
}

// Filter builds a new stream containing only the elements for which keep
// returns true, computed with an iterative loop over cells (spec.md
// §4.2.3's "recursion-free to avoid stack growth on long streams").
func (s *DFS) Filter(keep func(any) bool) *DFS {
	result := NewDFS()
	go func() {
		cursor := s
		out := result
		for {
			if cursor.IsEmpty() {
				out.Leftshift(EOS)
				return
			}
			v := cursor.GetFirst()
			if keep(v) {
				out = out.Leftshift(v)
			}
			cursor = cursor.Rest()
		}
	}()
	return result
}

// Map builds a new stream of f applied to each element of s, computed
// iteratively.
func (s *DFS) Map(f func(any) any) *DFS {
	result := NewDFS()
	go func() {
		cursor := s
		out := result
		for {
			if cursor.IsEmpty() {
				out.Leftshift(EOS)
				return
			}
			out = out.Leftshift(f(cursor.GetFirst()))
			cursor = cursor.Rest()
		}
	}()
	return result
}

// Reduce folds f over the stream's elements, seeded with the first
// element, returning EOS if the stream is empty. Computed iteratively.
func (s *DFS) Reduce(f func(acc, v any) any) any {
	if s.IsEmpty() {
		return EOS
	}
	return s.Rest().reduce(s.GetFirst(), f)
}

// ReduceSeed folds f over the stream's elements starting from seed.
func (s *DFS) ReduceSeed(seed any, f func(acc, v any) any) any {
	return s.reduce(seed, f)
}

func (s *DFS) reduce(seed any, f func(acc, v any) any) any {
	acc := seed
	cursor := s
	for {
		if cursor.IsEmpty() {
			return acc
		}
		acc = f(acc, cursor.GetFirst())
		cursor = cursor.Rest()
	}
}

// Generate populates the stream from seed using generator to produce each
// next value and condition to decide whether generation should continue,
// an iterative unfold matching GPars' DataflowStream.generate (see
// SPEC_FULL.md §4.2's "added from the original sources"). It runs on a
// background goroutine so Generate itself returns immediately with the
// stream's head.
func (s *DFS) Generate(seed any, generator func(any) any, condition func(any) bool) *DFS {
	go func() {
		value := seed
		cursor := s
		for {
			if !condition(value) {
				cursor.Leftshift(EOS)
				return
			}
			cursor = cursor.Leftshift(value)
			value = generator(value)
		}
	}()
	return s
}

// WheneverBound registers stream to be notified of every future bind, on
// this cell and every cell created after the registration.
func (s *DFS) WheneverBound(stream MessageStream) {
	s.shared.mu.Lock()
	s.shared.listeners = append(s.shared.listeners, stream)
	s.shared.mu.Unlock()
	s.first.GetValAsync(stream)
}
