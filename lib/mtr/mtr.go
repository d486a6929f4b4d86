package mtr

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/artie-labs/transfer/lib/stringutil"

	"github.com/artie-labs/binlog-reader/constants"
)

func New(namespace string, tags []string, samplingRate float64) (Client, error) {
	host := os.Getenv("TELEMETRY_HOST")
	port := os.Getenv("TELEMETRY_PORT")
	address := DefaultAddr
	if !stringutil.Empty(host, port) {
		address = fmt.Sprintf("%s:%s", host, port)
		slog.Info("Overriding telemetry address with env vars", slog.String("address", address))
	}

	datadogClient, err := statsd.New(address,
		statsd.WithNamespace(stringutil.Override(DefaultNamespace, namespace)),
		statsd.WithTags(tags),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create statsd client: %w", err)
	}

	return &statsClient{
		client: datadogClient,
		rate:   samplingRate,
	}, nil
}

func InjectIntoContext(ctx context.Context, client Client) context.Context {
	return context.WithValue(ctx, constants.MtrKey, client)
}

// FromContext returns the client stored in ctx, or a client that drops everything when there is none.
func FromContext(ctx context.Context) Client {
	client, isOk := ctx.Value(constants.MtrKey).(Client)
	if !isOk || client == nil {
		return NullClient{}
	}
	return client
}
