package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/artie-labs/binlog-reader/lib/mysql/converters"
)

func TestSettings_Validate(t *testing.T) {
	kafkaCfg := &Kafka{
		BootstrapServers: "localhost:9092",
		TopicPrefix:      "prefix",
	}

	type _tc struct {
		name        string
		settings    *Settings
		expectedErr string
	}

	tcs := []_tc{
		{
			name:        "nil",
			expectedErr: "config is nil",
		},
		{
			name:        "nil mysql",
			settings:    &Settings{Destination: DestinationKafka, Kafka: kafkaCfg},
			expectedErr: "mysql validation failed: MySQL config is nil",
		},
		{
			name:        "invalid destination",
			settings:    &Settings{MySQL: createValidConfig(), Destination: "foo"},
			expectedErr: "invalid destination: 'foo'",
		},
		{
			name:        "nil kafka",
			settings:    &Settings{MySQL: createValidConfig(), Destination: DestinationKafka},
			expectedErr: "kafka validation failed: kafka config is nil",
		},
		{
			name:        "kafka without topic prefix",
			settings:    &Settings{MySQL: createValidConfig(), Destination: DestinationKafka, Kafka: &Kafka{BootstrapServers: "localhost:9092"}},
			expectedErr: "kafka validation failed: topic prefix not passed in",
		},
		{
			name:     "kafka",
			settings: &Settings{MySQL: createValidConfig(), Destination: DestinationKafka, Kafka: kafkaCfg},
		},
		{
			name:     "log does not need kafka",
			settings: &Settings{MySQL: createValidConfig(), Destination: DestinationLog},
		},
	}

	for _, tc := range tcs {
		err := tc.settings.Validate()
		if tc.expectedErr != "" {
			assert.ErrorContains(t, err, tc.expectedErr, tc.name)
		} else {
			assert.NoError(t, err, tc.name)
		}
	}
}

func TestKafka(t *testing.T) {
	k := Kafka{BootstrapServers: "a:9092,b:9092"}
	assert.Equal(t, []string{"a:9092", "b:9092"}, k.BootstrapAddresses())
	assert.Equal(t, uint(2_500), k.GetPublishSize())

	k.PublishSize = 10
	assert.Equal(t, uint(10), k.GetPublishSize())
}

const configYAML = `
mysql:
  host: localhost
  port: 3306
  username: reader
  password: secret
  database: main
  tables:
    - name: users
      columns:
        - name: id
          role: uuid
        - ordinal: 3
          role: json
  streamingSettings:
    offsetFile: /tmp/binlog-offsets.yaml
    serverID: 42
    heartbeatPeriod: 10s
    excludedTables:
      - heartbeat
      - main.audit
reporting:
  sentry:
    dsn: https://key@sentry.example.com/1
metrics:
  namespace: binlog.
  tags:
    - env:test
`

func TestReadConfig(t *testing.T) {
	{
		// Missing file
		_, err := ReadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
	}
	{
		// Invalid yaml
		fp := filepath.Join(t.TempDir(), "config.yaml")
		assert.NoError(t, os.WriteFile(fp, []byte("mysql: ["), 0o644))
		_, err := ReadConfig(fp)
		assert.ErrorContains(t, err, "failed to unmarshal config file")
	}
	{
		// Destination defaults to kafka
		fp := filepath.Join(t.TempDir(), "config.yaml")
		assert.NoError(t, os.WriteFile(fp, []byte(configYAML), 0o644))
		_, err := ReadConfig(fp)
		assert.ErrorContains(t, err, "kafka validation failed: kafka config is nil")
	}
	{
		fp := filepath.Join(t.TempDir(), "config.yaml")
		assert.NoError(t, os.WriteFile(fp, []byte(configYAML+"destination: log\n"), 0o644))
		settings, err := ReadConfig(fp)
		assert.NoError(t, err)
		assert.Equal(t, DestinationLog, settings.Destination)
		assert.Equal(t, "reader:secret@tcp(localhost:3306)/main", settings.MySQL.ToDSN())
		assert.Equal(t, uint32(42), settings.MySQL.StreamingSettings.GetServerID())
		assert.Equal(t, 10*time.Second, settings.MySQL.StreamingSettings.GetHeartbeatPeriod())
		assert.Equal(t, 5*time.Second, settings.MySQL.StreamingSettings.GetCommitInterval())
		assert.Equal(t, []string{"heartbeat", "main.audit"}, settings.MySQL.StreamingSettings.GetExcludedTables())
		assert.Equal(t, converters.RoleUUID, settings.MySQL.Tables[0].Columns[0].Role)
		assert.Equal(t, 3, *settings.MySQL.Tables[0].Columns[1].Ordinal)
		assert.Equal(t, "https://key@sentry.example.com/1", settings.Reporting.Sentry.DSN)
		assert.Equal(t, []string{"env:test"}, settings.Metrics.Tags)
	}
}

func TestFromContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	settings := &Settings{Destination: DestinationLog}
	assert.Equal(t, settings, FromContext(InjectIntoContext(context.Background(), settings)))
}
