package binlog

import (
	"fmt"
	"iter"
	"time"

	"github.com/go-mysql-org/go-mysql/replication"
)

type Operation string

const (
	OperationCreate Operation = "c"
	OperationUpdate Operation = "u"
	OperationDelete Operation = "d"
)

func isRowsEvent(evtType replication.EventType) bool {
	_, err := convertHeaderToOperation(evtType)
	return err == nil
}

func convertHeaderToOperation(evtType replication.EventType) (Operation, error) {
	switch evtType {
	case replication.WRITE_ROWS_EVENTv0, replication.WRITE_ROWS_EVENTv1, replication.WRITE_ROWS_EVENTv2:
		return OperationCreate, nil
	case replication.UPDATE_ROWS_EVENTv0, replication.UPDATE_ROWS_EVENTv1, replication.UPDATE_ROWS_EVENTv2:
		return OperationUpdate, nil
	case replication.DELETE_ROWS_EVENTv0, replication.DELETE_ROWS_EVENTv1, replication.DELETE_ROWS_EVENTv2:
		return OperationDelete, nil
	default:
		return "", fmt.Errorf("unexpected event type %s", evtType)
	}
}

// splitIntoBeforeAndAfter pairs row images. Update events carry a before image followed by an after image.
func splitIntoBeforeAndAfter(operation Operation, rows [][]any) (iter.Seq2[[]any, []any], error) {
	switch operation {
	case OperationCreate:
		return func(yield func([]any, []any) bool) {
			for _, row := range rows {
				if !yield(nil, row) {
					return
				}
			}
		}, nil
	case OperationUpdate:
		if len(rows)%2 != 0 {
			return nil, fmt.Errorf("update row count is not divisible by two: %d", len(rows))
		}

		return func(yield func([]any, []any) bool) {
			for i := 0; i < len(rows); i += 2 {
				if !yield(rows[i], rows[i+1]) {
					return
				}
			}
		}, nil
	case OperationDelete:
		return func(yield func([]any, []any) bool) {
			for _, row := range rows {
				if !yield(row, nil) {
					return
				}
			}
		}, nil
	default:
		return nil, fmt.Errorf("unsupported operation: %q", operation)
	}
}

func getTimeFromEvent(evt *replication.BinlogEvent) time.Time {
	if evt == nil || evt.Header == nil {
		return time.Time{}
	}

	// MySQL binlog only has second precision.
	return time.Unix(int64(evt.Header.Timestamp), 0)
}
