package dataflow

import (
	"sync"
	"time"
)

// StreamReadAdapter presents a DFS as a ReadChannel by keeping a private
// cursor, so a single reader can hand a stream to code (chiefly
// pkg/operator) written against ReadChannel without knowing it is backed
// by a multi-reader stream. Matches the "DataflowReadAdapter" mentioned in
// the DataflowStream.java class doc comment (SPEC_FULL.md §4.2).
type StreamReadAdapter struct {
	mu     sync.Mutex
	cursor *DFS
}

// NewStreamReadAdapter returns an adapter reading stream from its current
// head.
func NewStreamReadAdapter(stream *DFS) *StreamReadAdapter {
	return &StreamReadAdapter{cursor: stream}
}

func (a *StreamReadAdapter) advance() *DFS {
	a.mu.Lock()
	defer a.mu.Unlock()
	cur := a.cursor
	a.cursor = cur.Rest()
	return cur
}

// GetVal implements ReadChannel.
func (a *StreamReadAdapter) GetVal() (any, error) {
	return a.advance().first.GetVal()
}

// GetValTimeout implements ReadChannel.
func (a *StreamReadAdapter) GetValTimeout(d time.Duration) (any, error) {
	a.mu.Lock()
	cur := a.cursor
	a.mu.Unlock()
	val, err := cur.first.GetValTimeout(d)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	if a.cursor == cur {
		a.cursor = cur.Rest()
	}
	a.mu.Unlock()
	return val, nil
}

// GetValAsync implements ReadChannel.
func (a *StreamReadAdapter) GetValAsync(stream MessageStream) {
	cur := a.advance()
	cur.first.GetValAsync(stream)
}

// GetValAsyncAttach implements ReadChannel.
func (a *StreamReadAdapter) GetValAsyncAttach(attachment any, stream MessageStream) {
	cur := a.advance()
	cur.first.GetValAsyncAttach(attachment, stream)
}

// StreamWriteAdapter presents a DFS as a WriteChannel, serializing
// concurrent producers into the single-producer-per-cell contract DFS
// requires. Matches the "DataflowWriteAdapter" mentioned alongside
// StreamReadAdapter in the original source.
type StreamWriteAdapter struct {
	mu     sync.Mutex
	cursor *DFS
}

// NewStreamWriteAdapter returns an adapter appending to stream from its
// current head.
func NewStreamWriteAdapter(stream *DFS) *StreamWriteAdapter {
	return &StreamWriteAdapter{cursor: stream}
}

// Bind implements WriteChannel: it binds value to the adapter's current
// cell and advances to the next one.
func (a *StreamWriteAdapter) Bind(value any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cursor = a.cursor.Leftshift(value)
	return nil
}
