package binlog

import (
	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/go-mysql-org/go-mysql/replication"
)

type testColumn struct {
	name     string
	colType  byte
	meta     uint16
	nullable bool
}

func binary16Column(name string) testColumn {
	return testColumn{name: name, colType: mysql.MYSQL_TYPE_STRING, meta: uint16(mysql.MYSQL_TYPE_STRING)<<8 | 16}
}

func newTableMapEvent(tableID uint64, schemaName, table string, cols ...testColumn) *replication.TableMapEvent {
	evt := &replication.TableMapEvent{
		TableID:     tableID,
		Schema:      []byte(schemaName),
		Table:       []byte(table),
		ColumnCount: uint64(len(cols)),
		NullBitmap:  make([]byte, (len(cols)+7)/8),
	}

	for i, col := range cols {
		evt.ColumnType = append(evt.ColumnType, col.colType)
		evt.ColumnMeta = append(evt.ColumnMeta, col.meta)
		if col.name != "" {
			evt.ColumnName = append(evt.ColumnName, []byte(col.name))
		}
		if col.nullable {
			evt.NullBitmap[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return evt
}

func tableMapBinlogEvent(logPos uint32, evt *replication.TableMapEvent) *replication.BinlogEvent {
	return &replication.BinlogEvent{
		Header: &replication.EventHeader{EventType: replication.TABLE_MAP_EVENT, LogPos: logPos},
		Event:  evt,
	}
}

func rowsBinlogEvent(evtType replication.EventType, logPos uint32, tableID uint64, rows ...[]any) *replication.BinlogEvent {
	return &replication.BinlogEvent{
		Header: &replication.EventHeader{EventType: evtType, LogPos: logPos, Timestamp: 1_700_000_000},
		Event:  &replication.RowsEvent{TableID: tableID, Rows: rows},
	}
}

func xidBinlogEvent(logPos uint32) *replication.BinlogEvent {
	return &replication.BinlogEvent{
		Header: &replication.EventHeader{EventType: replication.XID_EVENT, LogPos: logPos},
		Event:  &replication.XIDEvent{XID: uint64(logPos)},
	}
}

func queryBinlogEvent(logPos uint32, query string) *replication.BinlogEvent {
	return &replication.BinlogEvent{
		Header: &replication.EventHeader{EventType: replication.QUERY_EVENT, LogPos: logPos},
		Event:  &replication.QueryEvent{Query: []byte(query)},
	}
}

func rotateBinlogEvent(next string, pos uint64) *replication.BinlogEvent {
	return &replication.BinlogEvent{
		Header: &replication.EventHeader{EventType: replication.ROTATE_EVENT},
		Event:  &replication.RotateEvent{NextLogName: []byte(next), Position: pos},
	}
}

type countingDecoder struct {
	calls   int
	decoder RowDecoder
}

func (c *countingDecoder) Decode(raw RawRow, desc TableDescriptor) (DecodedRecord, error) {
	c.calls++
	return c.decoder.Decode(raw, desc)
}

func newCountingDecoder() *countingDecoder {
	return &countingDecoder{decoder: &Decoder{}}
}
