package config

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artie-labs/binlog-reader/constants"
)

type Destination string

const (
	DestinationKafka Destination = "kafka"
	DestinationLog   Destination = "log"
)

type Kafka struct {
	BootstrapServers string `yaml:"bootstrapServers"`
	TopicPrefix      string `yaml:"topicPrefix"`
	AwsEnabled       bool   `yaml:"awsEnabled"`
	PublishSize      uint   `yaml:"publishSize,omitempty"`
	MaxRequestSize   uint64 `yaml:"maxRequestSize,omitempty"`
}

func (k *Kafka) BootstrapAddresses() []string {
	return strings.Split(k.BootstrapServers, ",")
}

func (k *Kafka) GetPublishSize() uint {
	return cmp.Or(k.PublishSize, constants.DefaultPublishSize)
}

func (k *Kafka) Validate() error {
	if k == nil {
		return fmt.Errorf("kafka config is nil")
	}

	if k.BootstrapServers == "" {
		return fmt.Errorf("bootstrap servers not passed in")
	}

	if k.TopicPrefix == "" {
		return fmt.Errorf("topic prefix not passed in")
	}

	return nil
}

type Reporting struct {
	Sentry *Sentry `yaml:"sentry"`
}

type Sentry struct {
	DSN string `yaml:"dsn"`
}

type Metrics struct {
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

type Settings struct {
	Destination Destination `yaml:"destination"`
	MySQL       *MySQL      `yaml:"mysql"`
	Kafka       *Kafka      `yaml:"kafka"`
	Reporting   *Reporting  `yaml:"reporting"`
	Metrics     *Metrics    `yaml:"metrics"`
}

func (s *Settings) Validate() error {
	if s == nil {
		return fmt.Errorf("config is nil")
	}

	if err := s.MySQL.Validate(); err != nil {
		return fmt.Errorf("mysql validation failed: %w", err)
	}

	switch s.Destination {
	case DestinationKafka:
		if err := s.Kafka.Validate(); err != nil {
			return fmt.Errorf("kafka validation failed: %w", err)
		}
	case DestinationLog:
	default:
		return fmt.Errorf("invalid destination: '%s'", s.Destination)
	}

	return nil
}

func ReadConfig(fp string) (*Settings, error) {
	bytes, err := os.ReadFile(fp)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var settings Settings
	if err = yaml.Unmarshal(bytes, &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	if settings.Destination == "" {
		settings.Destination = DestinationKafka
	}

	if err = settings.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config file: %w", err)
	}

	return &settings, nil
}

func InjectIntoContext(ctx context.Context, settings *Settings) context.Context {
	return context.WithValue(ctx, constants.ConfigKey, settings)
}

func FromContext(ctx context.Context) *Settings {
	settings, isOk := ctx.Value(constants.ConfigKey).(*Settings)
	if !isOk {
		return nil
	}

	return settings
}
