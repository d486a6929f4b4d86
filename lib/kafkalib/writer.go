package kafkalib

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/artie-labs/transfer/lib/jitter"
	"github.com/artie-labs/transfer/lib/size"
	"github.com/segmentio/kafka-go"

	"github.com/artie-labs/binlog-reader/config"
	"github.com/artie-labs/binlog-reader/lib"
	"github.com/artie-labs/binlog-reader/lib/mtr"
)

const (
	baseJitterMs = 300
	maxJitterMs  = 5000
	maxAttempts  = 10
)

// messageWriter is the part of [kafka.Writer] the batch writer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type BatchWriter struct {
	writer    messageWriter
	newWriter func(ctx context.Context) (messageWriter, error)
	cfg       config.Kafka
	sleep     func(time.Duration)
}

// NewBatchWriter builds a writer from the Kafka settings stored in ctx.
func NewBatchWriter(ctx context.Context) (*BatchWriter, error) {
	settings := config.FromContext(ctx)
	if settings == nil || settings.Kafka == nil {
		return nil, fmt.Errorf("kafka configuration is not set")
	}

	cfg := *settings.Kafka
	if cfg.TopicPrefix == "" {
		return nil, fmt.Errorf("kafka topic prefix cannot be empty")
	}

	newWriter := func(ctx context.Context) (messageWriter, error) {
		return NewWriter(ctx, cfg)
	}

	writer, err := newWriter(ctx)
	if err != nil {
		return nil, err
	}

	return &BatchWriter{
		writer:    writer,
		newWriter: newWriter,
		cfg:       cfg,
		sleep:     time.Sleep,
	}, nil
}

func (w *BatchWriter) reload(ctx context.Context) error {
	slog.Info("Reloading kafka writer")
	if err := w.writer.Close(); err != nil {
		return err
	}

	writer, err := w.newWriter(ctx)
	if err != nil {
		return err
	}

	w.writer = writer
	return nil
}

func (w *BatchWriter) Write(ctx context.Context, rawMsgs []lib.RawMessage) error {
	msgs, err := buildKafkaMessages(w.cfg.TopicPrefix, rawMsgs)
	if err != nil {
		return fmt.Errorf("failed to build kafka messages: %w", err)
	}

	b := NewBatch(msgs, w.cfg.GetPublishSize())
	if batchErr := b.IsValid(); batchErr != nil {
		if errors.Is(batchErr, ErrEmptyBatch) {
			return nil
		}

		return fmt.Errorf("batch is not valid: %w", batchErr)
	}

	for b.HasNext() {
		chunk := b.NextChunk()
		if err = w.publish(ctx, chunk); err != nil {
			return fmt.Errorf("failed to write message: %w, approxSize: %d", err, size.GetApproxSize(chunk))
		}
	}
	return nil
}

func (w *BatchWriter) publish(ctx context.Context, chunk []kafka.Message) error {
	tags := map[string]string{"what": "error"}
	defer func() {
		mtr.FromContext(ctx).Count("kafka.publish", int64(len(chunk)), tags)
	}()

	var kafkaErr error
	for attempts := 0; attempts < maxAttempts; attempts++ {
		if attempts > 0 {
			sleepDuration := jitter.Jitter(baseJitterMs, maxJitterMs, attempts)
			slog.Info("Failed to publish to kafka",
				slog.Any("err", kafkaErr),
				slog.Int("attempts", attempts),
				slog.Duration("sleep", sleepDuration),
			)
			w.sleep(sleepDuration)
		}

		kafkaErr = w.writer.WriteMessages(ctx, chunk...)
		if kafkaErr == nil {
			tags["what"] = "success"
			return nil
		}

		if IsExceedMaxMessageBytesErr(kafkaErr) {
			slog.Info("Skipping this chunk since the batch exceeded the server")
			tags["what"] = "skipped"
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if RetryableError(kafkaErr) {
			if reloadErr := w.reload(ctx); reloadErr != nil {
				slog.Warn("Failed to reload kafka writer", slog.Any("err", reloadErr))
			}
		}
	}

	return kafkaErr
}

func (w *BatchWriter) Close() error {
	return w.writer.Close()
}

// OnComplete is a no-op, [kafka.Writer.WriteMessages] only returns once the brokers acknowledged the batch.
func (w *BatchWriter) OnComplete(_ context.Context) error {
	return nil
}
