package kafkalib

import (
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
)

var ErrEmptyBatch = errors.New("batch is empty")

// Batch splits messages into chunks of at most chunkSize that are published one at a time.
type Batch struct {
	msgs        []kafka.Message
	chunkSize   uint
	iteratorIdx uint
}

func NewBatch(messages []kafka.Message, chunkSize uint) *Batch {
	return &Batch{
		msgs:      messages,
		chunkSize: chunkSize,
	}
}

func (b *Batch) IsValid() error {
	if len(b.msgs) == 0 {
		return ErrEmptyBatch
	}

	if b.chunkSize < 1 {
		return fmt.Errorf("chunk size is too small")
	}

	return nil
}

func (b *Batch) HasNext() bool {
	return uint(len(b.msgs)) > b.iteratorIdx
}

func (b *Batch) NextChunk() []kafka.Message {
	start := b.iteratorIdx
	if start >= uint(len(b.msgs)) {
		return nil
	}

	end := min(start+b.chunkSize, uint(len(b.msgs)))
	b.iteratorIdx = end
	return b.msgs[start:end]
}
