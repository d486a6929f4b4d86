package binlog

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-mysql-org/go-mysql/replication"
)

// EventSource yields parsed binlog events in arrival order. [*replication.BinlogStreamer] satisfies it.
type EventSource interface {
	GetEvent(ctx context.Context) (*replication.BinlogEvent, error)
}

// Reader exposes a replication stream as a sequence of events.
// A Reader is owned by a single goroutine, Next must not be called concurrently.
type Reader struct {
	source EventSource
	closer func()
	closed bool
}

func NewReader(source EventSource, closer func()) *Reader {
	return &Reader{source: source, closer: closer}
}

// Open starts streaming from pos with a fresh [replication.BinlogSyncer].
func Open(cfg replication.BinlogSyncerConfig, pos LogPosition) (*Reader, error) {
	mysqlPos, err := pos.ToMySQLPosition()
	if err != nil {
		return nil, err
	}

	syncer := replication.NewBinlogSyncer(cfg)
	streamer, err := syncer.StartSync(mysqlPos)
	if err != nil {
		syncer.Close()
		return nil, &TransportError{Err: fmt.Errorf("failed to start sync at %s: %w", pos, err)}
	}

	return NewReader(streamer, syncer.Close), nil
}

// Next blocks until the next event arrives.
// It returns [io.EOF] once the source is exhausted or the reader was closed, the context's error if it was
// cancelled, and a [*TransportError] for anything else.
func (r *Reader) Next(ctx context.Context) (*replication.BinlogEvent, error) {
	if r.closed {
		return nil, io.EOF
	}

	evt, err := r.source.GetEvent(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, replication.ErrSyncClosed) {
			return nil, io.EOF
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		return nil, &TransportError{Err: err}
	}

	if evt == nil || evt.Header == nil {
		return nil, &TransportError{Err: fmt.Errorf("received an event without a header")}
	}

	return evt, nil
}

func (r *Reader) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true
	if r.closer != nil {
		r.closer()
	}
	return nil
}

type sliceSource struct {
	events []*replication.BinlogEvent
	index  int
}

// FromEvents returns a finite [EventSource] that replays events and then reports [io.EOF].
func FromEvents(events ...*replication.BinlogEvent) EventSource {
	return &sliceSource{events: events}
}

func (s *sliceSource) GetEvent(ctx context.Context) (*replication.BinlogEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.index >= len(s.events) {
		return nil, io.EOF
	}

	evt := s.events[s.index]
	s.index++
	return evt, nil
}
