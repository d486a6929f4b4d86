package binlog

import (
	"errors"
	"fmt"

	"github.com/artie-labs/binlog-reader/lib/mysql/converters"
)

var (
	ErrNoLogsAvailable     = errors.New("no binary logs available")
	ErrUnknownTable        = errors.New("unknown table")
	ErrMissingColumnValue  = errors.New("missing column value")
	ErrMalformedIdentifier = converters.ErrMalformedIdentifier
)

// TransportError is returned when the replication connection or its framing fails.
// The stream cannot be resumed from the same [Reader] after one.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("binlog transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
