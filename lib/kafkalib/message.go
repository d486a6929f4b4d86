package kafkalib

import (
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/artie-labs/binlog-reader/lib"
)

func buildKafkaMessage(topicPrefix string, msg lib.RawMessage) (kafka.Message, error) {
	valueBytes, err := json.Marshal(msg.Payload())
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var keyBytes []byte
	if len(msg.PartitionKey()) > 0 {
		if keyBytes, err = json.Marshal(msg.PartitionKey()); err != nil {
			return kafka.Message{}, fmt.Errorf("failed to marshal partition key: %w", err)
		}
	}

	return kafka.Message{
		Topic: fmt.Sprintf("%s.%s", topicPrefix, msg.TopicSuffix()),
		Key:   keyBytes,
		Value: valueBytes,
	}, nil
}

func buildKafkaMessages(topicPrefix string, msgs []lib.RawMessage) ([]kafka.Message, error) {
	result := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		kMsg, err := buildKafkaMessage(topicPrefix, msg)
		if err != nil {
			return nil, err
		}
		result[i] = kMsg
	}
	return result, nil
}
