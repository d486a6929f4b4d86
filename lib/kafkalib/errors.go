package kafkalib

import (
	"errors"
	"strings"

	"github.com/segmentio/kafka-go"
)

func IsExceedMaxMessageBytesErr(err error) bool {
	if err == nil {
		return false
	}

	var tooLarge kafka.MessageTooLargeError
	if errors.As(err, &tooLarge) || errors.Is(err, kafka.MessageSizeTooLarge) {
		return true
	}

	// Errors that went through a broker response only keep the message.
	return strings.Contains(err.Error(), kafka.MessageSizeTooLarge.Title())
}

// RetryableError - returns true if the error is retryable
// If it's retryable, you need to reload the Kafka client.
func RetryableError(err error) bool {
	return errors.Is(err, kafka.TopicAuthorizationFailed) || errors.Is(err, kafka.UnknownTopicOrPartition)
}
