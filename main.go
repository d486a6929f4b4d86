package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/artie-labs/binlog-reader/config"
	"github.com/artie-labs/binlog-reader/destinations"
	"github.com/artie-labs/binlog-reader/lib/kafkalib"
	"github.com/artie-labs/binlog-reader/lib/logger"
	"github.com/artie-labs/binlog-reader/lib/mtr"
	"github.com/artie-labs/binlog-reader/sources"
	"github.com/artie-labs/binlog-reader/sources/mysql"
	"github.com/artie-labs/binlog-reader/writers"
)

func setUpMetrics(cfg *config.Metrics) (mtr.Client, error) {
	if cfg == nil {
		return mtr.NullClient{}, nil
	}

	slog.Info("Creating metrics client")
	return mtr.New(cfg.Namespace, cfg.Tags, 0.5)
}

func setUpKafka(ctx context.Context) (*kafkalib.BatchWriter, error) {
	if cfg := config.FromContext(ctx).Kafka; cfg != nil {
		slog.Info("Kafka config",
			slog.Bool("aws", cfg.AwsEnabled),
			slog.String("kafkaBootstrapServer", cfg.BootstrapServers),
			slog.String("topicPrefix", cfg.TopicPrefix),
			slog.Any("publishSize", cfg.GetPublishSize()),
			slog.Uint64("maxRequestSize", cfg.MaxRequestSize),
		)
	}
	return kafkalib.NewBatchWriter(ctx)
}

func buildDestinationWriter(ctx context.Context) (writers.DestinationWriter, func(), error) {
	switch config.FromContext(ctx).Destination {
	case config.DestinationLog:
		return destinations.NewLogWriter(slog.Default()), func() {}, nil
	default:
		writer, err := setUpKafka(ctx)
		if err != nil {
			return nil, nil, err
		}

		return writer, func() {
			if err := writer.Close(); err != nil {
				slog.Warn("Failed to close kafka writer", slog.Any("err", err))
			}
		}, nil
	}
}

func run(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	statsD, err := setUpMetrics(cfg.Metrics)
	if err != nil {
		return fmt.Errorf("failed to set up metrics: %w", err)
	}
	defer statsD.Flush()

	ctx = mtr.InjectIntoContext(ctx, statsD)

	destinationWriter, closeDestination, err := buildDestinationWriter(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up %s destination: %w", cfg.Destination, err)
	}
	defer closeDestination()

	var source sources.Source
	source, err = mysql.Load(ctx, *cfg.MySQL)
	if err != nil {
		return fmt.Errorf("failed to load MySQL source: %w", err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			slog.Warn("Failed to close MySQL source", slog.Any("err", err))
		}
	}()

	return source.Run(ctx, writers.New(destinationWriter, false))
}

func main() {
	var configFilePath string
	flag.StringVar(&configFilePath, "config", "", "path to config file")
	flag.Parse()

	cfg, err := config.ReadConfig(configFilePath)
	if err != nil {
		logger.Fatal("Failed to read config file", slog.Any("err", err))
	}

	_logger, cleanUpHandlers := logger.NewLogger(cfg)
	slog.SetDefault(_logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(config.InjectIntoContext(ctx, cfg)); err != nil {
		logger.Fatal("Failed to stream binlog", slog.Any("err", err))
	}

	slog.Info("Shutting down")
	cleanUpHandlers()
}
