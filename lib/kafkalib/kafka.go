package kafkalib

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/aws_msk_iam_v2"

	"github.com/artie-labs/binlog-reader/config"
)

const (
	clientID = "binlog-reader"

	// Writes are synchronous and a binlog event usually carries fewer rows than a full batch,
	// so the writer should not sit on a partial batch for kafka-go's default of one second.
	batchTimeout = 10 * time.Millisecond
)

func newTransport(ctx context.Context, cfg config.Kafka) (*kafka.Transport, error) {
	transport := &kafka.Transport{
		ClientID:    clientID,
		DialTimeout: 10 * time.Second,
	}

	if cfg.AwsEnabled {
		awsConfig, err := awsCfg.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}

		transport.SASL = aws_msk_iam_v2.NewMechanism(awsConfig)
		transport.TLS = &tls.Config{}
	}

	return transport, nil
}

// NewWriter returns a writer that hashes message keys, so every row of a primary key lands on the same partition
// and keeps its binlog order.
func NewWriter(ctx context.Context, cfg config.Kafka) (*kafka.Writer, error) {
	transport, err := newTransport(ctx, cfg)
	if err != nil {
		return nil, err
	}

	addresses := cfg.BootstrapAddresses()
	slog.Info("Setting kafka bootstrap URLs", slog.Any("urls", addresses), slog.Bool("aws", cfg.AwsEnabled))
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(addresses...),
		Transport:              transport,
		Balancer:               &kafka.Hash{},
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchSize:              int(cfg.GetPublishSize()),
		BatchTimeout:           batchTimeout,
		WriteTimeout:           5 * time.Second,
	}

	if cfg.MaxRequestSize > 0 {
		writer.BatchBytes = int64(cfg.MaxRequestSize)
	}

	return writer, nil
}
