package iterator

import "context"

type Iterator[T any] interface {
	HasNext() bool
	// Next may block until an item is available or ctx is done.
	Next(ctx context.Context) (T, error)
}

// StreamingIterator is an [Iterator] over an unbounded stream whose progress can be saved and resumed from.
type StreamingIterator[T any] interface {
	Iterator[T]
	// CommitOffset persists how far the consumer has safely processed the stream.
	CommitOffset()
}
