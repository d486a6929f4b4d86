package binlog

import (
	"fmt"
	"math"

	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/go-mysql-org/go-mysql/replication"
)

// BinaryLog is one row of SHOW BINARY LOGS.
type BinaryLog struct {
	Name      string
	Size      uint64
	Encrypted string
}

// LogPosition identifies an exact point in the replication history that a stream can be opened at.
type LogPosition struct {
	File      string `yaml:"file"`
	Offset    uint64 `yaml:"offset"`
	Encrypted string `yaml:"encrypted,omitempty"`
}

func (p LogPosition) String() string {
	return fmt.Sprintf("File: %q, Offset: %d", p.File, p.Offset)
}

func (p LogPosition) ToMySQLPosition() (mysql.Position, error) {
	if p.Offset > math.MaxUint32 {
		return mysql.Position{}, fmt.Errorf("offset %d does not fit in a binlog position", p.Offset)
	}
	return mysql.Position{Name: p.File, Pos: uint32(p.Offset)}, nil
}

// advance returns the position that follows evt.
func (p LogPosition) advance(evt *replication.BinlogEvent) LogPosition {
	if evt == nil || evt.Header == nil {
		return p
	}

	switch evt.Header.EventType {
	case replication.ROTATE_EVENT:
		// When we encounter a rotate event, we'll then update the log file
		if rotate, ok := evt.Event.(*replication.RotateEvent); ok {
			p.File = string(rotate.NextLogName)
			p.Offset = rotate.Position
		}
		return p
	case replication.HEARTBEAT_EVENT:
		return p
	}

	// Artificial events carry a zero log position.
	if evt.Header.LogPos > 0 {
		p.Offset = uint64(evt.Header.LogPos)
	}
	return p
}

// ResolveStartPosition picks where streaming should begin: the end of the last log the server reported.
// The server lists logs in the order they were written, so no sorting is done here.
func ResolveStartPosition(logs []BinaryLog) (LogPosition, error) {
	if len(logs) == 0 {
		return LogPosition{}, ErrNoLogsAvailable
	}

	last := logs[len(logs)-1]
	return LogPosition{
		File:      last.Name,
		Offset:    last.Size,
		Encrypted: last.Encrypted,
	}, nil
}
