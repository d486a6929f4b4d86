package writers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/artie-labs/binlog-reader/lib"
	"github.com/artie-labs/binlog-reader/lib/iterator"
	"github.com/artie-labs/binlog-reader/lib/mtr"
	"github.com/artie-labs/binlog-reader/lib/mysql/binlog"
)

type DestinationWriter interface {
	Write(ctx context.Context, rawMsgs []lib.RawMessage) error
	OnComplete(ctx context.Context) error
}

type Writer struct {
	destinationWriter DestinationWriter
	logProgress       bool
}

func New(destinationWriter DestinationWriter, logProgress bool) Writer {
	return Writer{destinationWriter: destinationWriter, logProgress: logProgress}
}

// Write drains iter into the destination and returns how many changes were written.
// Offsets of a [iterator.StreamingIterator] are committed after each batch is written.
func (w *Writer) Write(ctx context.Context, iter iterator.Iterator[[]binlog.Change]) (int, error) {
	statsD := mtr.FromContext(ctx)
	start := time.Now()
	var count int
	for iter.HasNext() {
		changes, err := iter.Next(ctx)
		if err != nil {
			return count, fmt.Errorf("failed to iterate over changes: %w", err)
		}

		if len(changes) > 0 {
			msgs := make([]lib.RawMessage, len(changes))
			for i, change := range changes {
				msgs[i] = lib.FromChange(change)
			}

			writeStart := time.Now()
			if err = w.destinationWriter.Write(ctx, msgs); err != nil {
				return count, fmt.Errorf("failed to write messages: %w", err)
			}

			statsD.Timing("binlog.write", time.Since(writeStart), nil)
			statsD.Count("binlog.changes", int64(len(changes)), nil)
			count += len(changes)

			if w.logProgress {
				slog.Info("Write progress",
					slog.Int("totalSize", count),
					slog.Duration("totalDuration", time.Since(start)),
					slog.Int("batchSize", len(changes)),
					slog.Duration("batchDuration", time.Since(writeStart)),
				)
			}
		}

		// Events without changes still move the checkpoint forward.
		if streamingIter, isOk := iter.(iterator.StreamingIterator[[]binlog.Change]); isOk {
			streamingIter.CommitOffset()
		}
	}

	if count > 0 {
		if err := w.destinationWriter.OnComplete(ctx); err != nil {
			return count, fmt.Errorf("failed running destination OnComplete: %w", err)
		}
	}

	return count, nil
}
