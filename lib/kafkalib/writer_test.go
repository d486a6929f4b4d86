package kafkalib

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/artie-labs/binlog-reader/config"
	"github.com/artie-labs/binlog-reader/lib"
	"github.com/artie-labs/binlog-reader/lib/mtr"
	"github.com/artie-labs/binlog-reader/lib/mysql/binlog"
)

type fakeWriter struct {
	errs    []error
	written [][]kafka.Message
	closed  bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}

	f.written = append(f.written, msgs)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func newTestBatchWriter(writers ...*fakeWriter) *BatchWriter {
	var reloads int
	return &BatchWriter{
		writer: writers[0],
		newWriter: func(context.Context) (messageWriter, error) {
			reloads++
			return writers[reloads], nil
		},
		cfg:   config.Kafka{TopicPrefix: "prefix", PublishSize: 2},
		sleep: func(time.Duration) {},
	}
}

func testMessages(count int) []lib.RawMessage {
	var msgs []lib.RawMessage
	for i := range count {
		msgs = append(msgs, lib.FromChange(binlog.Change{
			Schema:       "main",
			Table:        "users",
			Operation:    binlog.OperationCreate,
			After:        binlog.DecodedRecord{"id": i},
			PartitionKey: map[string]any{"id": i},
			Timestamp:    time.UnixMilli(1_000),
		}))
	}
	return msgs
}

func TestBuildKafkaMessage(t *testing.T) {
	{
		msg, err := buildKafkaMessage("topic-prefix", testMessages(1)[0])
		assert.NoError(t, err)
		assert.Equal(t, "topic-prefix.main.users", msg.Topic)
		assert.Equal(t, `{"id":0}`, string(msg.Key))
		assert.Equal(t, `{"schema":{"type":"","fields":null},"payload":{"before":null,"after":{"id":0},"source":{"connector":"mysql","ts_ms":1000,"db":"main","schema":"","table":"users"},"op":"c"}}`, string(msg.Value))
	}
	{
		// Tables without a primary key have no message key
		msg, err := buildKafkaMessage("topic-prefix", lib.FromChange(binlog.Change{Schema: "main", Table: "logs", Operation: binlog.OperationCreate}))
		assert.NoError(t, err)
		assert.Nil(t, msg.Key)
	}
}

type countingClient struct {
	mtr.NullClient
	counts map[string]int64
}

func (c *countingClient) Count(name string, value int64, tags map[string]string) {
	c.counts[name+"."+tags["what"]] += value
}

func TestNewBatchWriter(t *testing.T) {
	{
		// Nothing in the context
		_, err := NewBatchWriter(context.Background())
		assert.ErrorContains(t, err, "kafka configuration is not set")
	}
	{
		ctx := config.InjectIntoContext(context.Background(), &config.Settings{Kafka: &config.Kafka{BootstrapServers: "localhost:9092"}})
		_, err := NewBatchWriter(ctx)
		assert.ErrorContains(t, err, "kafka topic prefix cannot be empty")
	}
}

func TestBatchWriter_Write(t *testing.T) {
	statsD := &countingClient{counts: make(map[string]int64)}
	ctx := mtr.InjectIntoContext(context.Background(), statsD)
	{
		// Nothing to write
		writer := &fakeWriter{}
		assert.NoError(t, newTestBatchWriter(writer).Write(ctx, nil))
		assert.Empty(t, writer.written)
	}
	{
		// Chunked by publish size
		writer := &fakeWriter{}
		assert.NoError(t, newTestBatchWriter(writer).Write(ctx, testMessages(5)))
		assert.Len(t, writer.written, 3)
		assert.Len(t, writer.written[0], 2)
		assert.Len(t, writer.written[2], 1)
		assert.Equal(t, int64(5), statsD.counts["kafka.publish.success"])
	}
	{
		// Transient errors are retried
		writer := &fakeWriter{errs: []error{fmt.Errorf("connection refused"), fmt.Errorf("connection refused")}}
		assert.NoError(t, newTestBatchWriter(writer).Write(ctx, testMessages(1)))
		assert.Len(t, writer.written, 1)
	}
	{
		// Oversized chunks are skipped
		writer := &fakeWriter{errs: []error{kafka.MessageSizeTooLarge}}
		assert.NoError(t, newTestBatchWriter(writer).Write(ctx, testMessages(3)))
		assert.Len(t, writer.written, 1)
		assert.Len(t, writer.written[0], 1)
		assert.Equal(t, int64(2), statsD.counts["kafka.publish.skipped"])
	}
	{
		// Authorization failures reload the writer
		first := &fakeWriter{errs: []error{kafka.TopicAuthorizationFailed}}
		second := &fakeWriter{}
		batchWriter := newTestBatchWriter(first, second)
		assert.NoError(t, batchWriter.Write(ctx, testMessages(1)))
		assert.True(t, first.closed)
		assert.Empty(t, first.written)
		assert.Len(t, second.written, 1)
	}
	{
		// Gives up eventually
		var errs []error
		for range maxAttempts {
			errs = append(errs, fmt.Errorf("connection refused"))
		}
		writer := &fakeWriter{errs: errs}
		err := newTestBatchWriter(writer).Write(ctx, testMessages(1))
		assert.ErrorContains(t, err, "failed to write message: connection refused")
		assert.Empty(t, writer.written)
	}
}
