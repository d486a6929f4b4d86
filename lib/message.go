package lib

import (
	"github.com/artie-labs/transfer/lib/cdc/util"

	"github.com/artie-labs/binlog-reader/lib/mysql/binlog"
)

const connector = "mysql"

type RawMessage struct {
	topicSuffix  string
	partitionKey map[string]any
	payload      util.SchemaEventPayload
}

func NewRawMessage(topicSuffix string, partitionKey map[string]any, payload util.SchemaEventPayload) RawMessage {
	return RawMessage{
		topicSuffix:  topicSuffix,
		partitionKey: partitionKey,
		payload:      payload,
	}
}

// FromChange wraps a decoded change in a Debezium style envelope, one topic per table.
func FromChange(change binlog.Change) RawMessage {
	payload := util.SchemaEventPayload{
		Payload: util.Payload{
			Before: change.Before,
			After:  change.After,
			Source: util.Source{
				Connector: connector,
				TsMs:      change.Timestamp.UnixMilli(),
				Database:  change.Schema,
				Table:     change.Table,
			},
			Operation: string(change.Operation),
		},
	}

	return NewRawMessage(change.Schema+"."+change.Table, change.PartitionKey, payload)
}

func (r RawMessage) TopicSuffix() string {
	return r.topicSuffix
}

func (r RawMessage) PartitionKey() map[string]any {
	return r.partitionKey
}

func (r RawMessage) Payload() util.SchemaEventPayload {
	return r.payload
}
