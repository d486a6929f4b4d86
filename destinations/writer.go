package destinations

import (
	"context"
	"log/slog"

	"github.com/artie-labs/binlog-reader/lib"
)

// LogWriter prints every message instead of publishing it, handy to inspect a stream.
type LogWriter struct {
	logger *slog.Logger
}

func NewLogWriter(logger *slog.Logger) *LogWriter {
	return &LogWriter{logger: logger}
}

func (l *LogWriter) Write(_ context.Context, rawMsgs []lib.RawMessage) error {
	for _, msg := range rawMsgs {
		payload := msg.Payload().Payload
		l.logger.Info("Change",
			slog.String("table", msg.TopicSuffix()),
			slog.String("op", payload.Operation),
			slog.Any("partitionKey", msg.PartitionKey()),
			slog.Any("before", payload.Before),
			slog.Any("after", payload.After),
			slog.Int64("tsMs", payload.Source.TsMs),
		)
	}
	return nil
}

func (l *LogWriter) OnComplete(_ context.Context) error {
	return nil
}
