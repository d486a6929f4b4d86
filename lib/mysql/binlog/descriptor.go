package binlog

import (
	"fmt"

	"github.com/go-mysql-org/go-mysql/replication"

	"github.com/artie-labs/binlog-reader/lib/mysql/schema"
)

type ColumnSpec struct {
	Ordinal  int
	Name     string
	Type     schema.DataType
	Nullable bool
	// Length is the declared byte length of CHAR and BINARY columns, zero otherwise.
	Length int
}

// TableDescriptor is the layout a TABLE_MAP_EVENT announced for a table id.
type TableDescriptor struct {
	TableID uint64
	Schema  string
	Table   string
	Columns []ColumnSpec
	// PrimaryKeys holds column ordinals, only sent when binlog_row_metadata=FULL.
	PrimaryKeys []int
}

func (t TableDescriptor) QualifiedName() string {
	return fmt.Sprintf("%s.%s", t.Schema, t.Table)
}

func NewTableDescriptor(evt *replication.TableMapEvent) (TableDescriptor, error) {
	if evt == nil {
		return TableDescriptor{}, fmt.Errorf("table map event is nil")
	}

	desc := TableDescriptor{
		TableID: evt.TableID,
		Schema:  string(evt.Schema),
		Table:   string(evt.Table),
		Columns: make([]ColumnSpec, len(evt.ColumnType)),
	}

	for i, colType := range evt.ColumnType {
		var meta uint16
		if i < len(evt.ColumnMeta) {
			meta = evt.ColumnMeta[i]
		}

		desc.Columns[i] = ColumnSpec{
			Ordinal:  i,
			Name:     columnName(evt, i),
			Type:     schema.ParseBinlogType(colType, meta),
			Nullable: isBitSet(evt.NullBitmap, i),
			Length:   schema.FixedLength(colType, meta),
		}
	}

	for _, pk := range evt.PrimaryKey {
		desc.PrimaryKeys = append(desc.PrimaryKeys, int(pk))
	}

	return desc, nil
}

// Column names are only available if `binlog_row_metadata` is set to `FULL`.
// They also only work on versions >= MySQL 8.0.1
// See: https://dev.mysql.com/doc/refman/8.4/en/replication-options-binary-log.html#sysvar_binlog_row_metadata
func columnName(evt *replication.TableMapEvent, i int) string {
	if i < len(evt.ColumnName) && len(evt.ColumnName[i]) > 0 {
		return string(evt.ColumnName[i])
	}
	return fmt.Sprintf("@%d", i)
}

func isBitSet(bitmap []byte, i int) bool {
	if i/8 >= len(bitmap) {
		return false
	}
	return bitmap[i/8]&(1<<(uint(i)%8)) != 0
}
