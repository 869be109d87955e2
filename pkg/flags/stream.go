package flags

import "context"

// Stream is an asynchronous boolean sequence expected to emit exactly one
// value and then complete. For flag evaluation it is interchangeable with
// a Deferred; the distinct shape exists because some backends naturally
// produce event streams rather than one-shot promises.
type Stream struct {
	ch chan bool
}

// NewStream creates an open stream.
func NewStream() *Stream {
	// Buffer of one so a producer can emit-and-complete without waiting
	// for the consumer.
	return &Stream{ch: make(chan bool, 1)}
}

// CompletedStream creates a stream that has already emitted val and completed.
func CompletedStream(val bool) *Stream {
	s := NewStream()
	s.Emit(val)
	s.Complete()
	return s
}

// Emit sends a value on the stream.
func (s *Stream) Emit(val bool) {
	s.ch <- val
}

// Complete closes the stream. No further emissions are allowed.
func (s *Stream) Complete() {
	close(s.ch)
}

// Next returns the next emission, blocking until one arrives, the stream
// completes, or the context is cancelled. The second return is false when
// the stream completed without a further emission.
func (s *Stream) Next(ctx context.Context) (val bool, ok bool, err error) {
	select {
	case val, ok := <-s.ch:
		return val, ok, nil
	case <-ctx.Done():
		return false, false, ctx.Err()
	}
}
