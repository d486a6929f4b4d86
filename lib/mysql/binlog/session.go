package binlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-mysql-org/go-mysql/replication"
)

type State int

const (
	StateUninitialized State = iota
	StatePositionResolved
	StateStreaming
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePositionResolved:
		return "position_resolved"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session owns everything a single replication stream needs: the reader, the dispatcher with its table
// registry, and the current position.
type Session struct {
	reader     *Reader
	dispatcher *Dispatcher
	state      State

	position   LogPosition
	checkpoint LogPosition
}

func NewSession(reader *Reader, dispatcher *Dispatcher, start LogPosition) *Session {
	return &Session{
		reader:     reader,
		dispatcher: dispatcher,
		state:      StatePositionResolved,
		position:   start,
		checkpoint: start,
	}
}

func (s *Session) State() State {
	return s.state
}

// Position is where the stream resumes after the last event that was read.
func (s *Session) Position() LogPosition {
	return s.position
}

// Checkpoint is the position right after the last completed transaction.
// Resuming from the middle of a transaction would skip its table map events, so this is what should be persisted.
func (s *Session) Checkpoint() LogPosition {
	return s.checkpoint
}

func (s *Session) Registry() *Registry {
	return s.dispatcher.Registry()
}

// Next reads and dispatches one event.
//
// Errors from reading end the session: [io.EOF] and context errors close it, anything else fails it.
// Errors from dispatching only concern that event and the session keeps streaming.
func (s *Session) Next(ctx context.Context) ([]Change, error) {
	switch s.state {
	case StateClosed, StateFailed:
		return nil, fmt.Errorf("session is %s", s.state)
	}

	s.state = StateStreaming
	evt, err := s.reader.Next(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.state = StateClosed
		} else {
			s.state = StateFailed
		}
		return nil, err
	}

	s.position = s.position.advance(evt)
	if isTransactionBoundary(evt) {
		s.checkpoint = s.position
	}

	return s.dispatcher.Dispatch(evt, s.position)
}

func (s *Session) Close() error {
	if s.state != StateFailed {
		s.state = StateClosed
	}
	return s.reader.Close()
}

func isTransactionBoundary(evt *replication.BinlogEvent) bool {
	switch evt.Header.EventType {
	case replication.XID_EVENT, replication.ROTATE_EVENT:
		return true
	case replication.QUERY_EVENT:
		// Non-transactional engines end their statement group with a COMMIT query instead of an XID.
		query, ok := evt.Event.(*replication.QueryEvent)
		return ok && strings.EqualFold(strings.TrimSpace(string(query.Query)), "COMMIT")
	default:
		return false
	}
}
