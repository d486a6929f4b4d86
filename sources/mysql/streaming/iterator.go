package streaming

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/artie-labs/binlog-reader/lib/mtr"
	"github.com/artie-labs/binlog-reader/lib/mysql/binlog"
	"github.com/artie-labs/binlog-reader/lib/storage/persistedmap"
)

const offsetKey = "offset"

// Iterator turns a binlog session into batches of changes, one batch per event.
type Iterator struct {
	session        *binlog.Session
	offsets        *persistedmap.PersistedMap[binlog.LogPosition]
	commitInterval time.Duration

	done          bool
	lastCommitted binlog.LogPosition
	lastCommitAt  time.Time
}

func NewIterator(session *binlog.Session, offsets *persistedmap.PersistedMap[binlog.LogPosition], commitInterval time.Duration) *Iterator {
	return &Iterator{
		session:        session,
		offsets:        offsets,
		commitInterval: commitInterval,
		lastCommitted:  session.Checkpoint(),
		lastCommitAt:   time.Now(),
	}
}

// StartPosition returns the saved checkpoint if there is one, and otherwise asks resolve.
func StartPosition(offsets *persistedmap.PersistedMap[binlog.LogPosition], resolve func() (binlog.LogPosition, error)) (binlog.LogPosition, error) {
	if pos, isOk := offsets.Get(offsetKey); isOk {
		slog.Info("Found offsets", slog.String("offset", pos.String()))
		return pos, nil
	}

	pos, err := resolve()
	if err != nil {
		return binlog.LogPosition{}, err
	}

	slog.Info("No offsets found, starting from the end of the latest binary log", slog.String("offset", pos.String()))
	return pos, nil
}

func (i *Iterator) HasNext() bool {
	return !i.done
}

// Next returns the changes carried by the next event.
// The stream ending or ctx being cancelled ends the iteration without an error. Transport errors are returned,
// anything that only concerns a single event is logged and skipped.
func (i *Iterator) Next(ctx context.Context) ([]binlog.Change, error) {
	statsD := mtr.FromContext(ctx)
	changes, err := i.session.Next(ctx)
	if err == nil {
		statsD.Incr("binlog.events", nil)
		return changes, nil
	}

	switch i.session.State() {
	case binlog.StateClosed:
		i.done = true
		if errors.Is(err, io.EOF) {
			slog.Info("Binlog stream has ended", slog.String("position", i.session.Position().String()))
		}
		return nil, nil
	case binlog.StateFailed:
		i.done = true
		statsD.Incr("binlog.errors", map[string]string{"what": errorKind(err)})
		return nil, err
	}

	statsD.Incr("binlog.errors", map[string]string{"what": errorKind(err)})
	slog.Warn("Failed to process binlog event",
		slog.Any("err", err),
		slog.String("position", i.session.Position().String()),
		slog.Int("changes", len(changes)),
	)
	return changes, nil
}

func errorKind(err error) string {
	switch {
	case binlog.IsTransportError(err):
		return "transport"
	case errors.Is(err, binlog.ErrUnknownTable):
		return "unknown_table"
	case errors.Is(err, binlog.ErrMissingColumnValue):
		return "missing_column_value"
	case errors.Is(err, binlog.ErrMalformedIdentifier):
		return "malformed_identifier"
	default:
		return "other"
	}
}

// CommitOffset saves the session checkpoint, at most once per commit interval.
func (i *Iterator) CommitOffset() {
	if time.Since(i.lastCommitAt) < i.commitInterval {
		return
	}

	i.commit()
}

func (i *Iterator) commit() {
	checkpoint := i.session.Checkpoint()
	i.lastCommitAt = time.Now()
	if checkpoint == i.lastCommitted {
		return
	}

	slog.Info("Committing offset", slog.String("position", checkpoint.String()))
	if err := i.offsets.Set(offsetKey, checkpoint); err != nil {
		slog.Warn("Failed to commit offset", slog.Any("err", err))
		return
	}
	i.lastCommitted = checkpoint
}

// Close commits the latest checkpoint and closes the session.
func (i *Iterator) Close() error {
	i.commit()
	return i.session.Close()
}
