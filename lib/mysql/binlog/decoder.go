package binlog

import (
	"fmt"

	"github.com/artie-labs/binlog-reader/lib/mysql/converters"
	"github.com/artie-labs/binlog-reader/lib/mysql/schema"
)

// RawRow is one row image with one entry per column, nil entries are SQL NULL.
type RawRow []any

// DecodedRecord maps column names to decoded values. It is built once per row image and not mutated afterwards.
type DecodedRecord map[string]any

// ColumnRole binds a decode rule to a column, matched by name or by ordinal position.
type ColumnRole struct {
	Name    string
	Ordinal *int
	Role    converters.Role
}

func (c ColumnRole) matches(col ColumnSpec) bool {
	if c.Name != "" {
		return c.Name == col.Name
	}
	return c.Ordinal != nil && *c.Ordinal == col.Ordinal
}

type RowDecoder interface {
	Decode(raw RawRow, desc TableDescriptor) (DecodedRecord, error)
}

type Decoder struct {
	// roles is keyed by table name or by "schema.table".
	roles map[string][]ColumnRole
}

func NewDecoder(roles map[string][]ColumnRole) (*Decoder, error) {
	for table, tableRoles := range roles {
		for _, role := range tableRoles {
			if role.Name == "" && role.Ordinal == nil {
				return nil, fmt.Errorf("column role for table %q needs a name or an ordinal", table)
			}

			if err := role.Role.Validate(); err != nil {
				return nil, fmt.Errorf("invalid column role for table %q: %w", table, err)
			}
		}
	}

	return &Decoder{roles: roles}, nil
}

func (d *Decoder) roleFor(desc TableDescriptor, col ColumnSpec) converters.Role {
	var ordinalMatch converters.Role
	for _, key := range []string{desc.QualifiedName(), desc.Table} {
		for _, role := range d.roles[key] {
			if !role.matches(col) {
				continue
			}

			if role.Name != "" {
				return role.Role
			}

			if ordinalMatch == "" {
				ordinalMatch = role.Role
			}
		}
	}
	return ordinalMatch
}

// Decode converts raw into a [DecodedRecord] following desc's column order.
//
// A column whose position is past the end of raw is an error. So is a nil value for a column the table map
// marked as NOT NULL, since the server left it out of the row image rather than sending NULL.
func (d *Decoder) Decode(raw RawRow, desc TableDescriptor) (DecodedRecord, error) {
	record := make(DecodedRecord, len(desc.Columns))
	for _, col := range desc.Columns {
		if col.Ordinal < 0 || col.Ordinal >= len(raw) {
			return nil, fmt.Errorf("%w: column %q (position %d) of %s, row has %d values",
				ErrMissingColumnValue, col.Name, col.Ordinal, desc.QualifiedName(), len(raw))
		}

		value := raw[col.Ordinal]
		if value == nil {
			if !col.Nullable {
				return nil, fmt.Errorf("%w: column %q of %s is not nullable but no value was sent",
					ErrMissingColumnValue, col.Name, desc.QualifiedName())
			}

			record[col.Name] = nil
			continue
		}

		role := d.roleFor(desc, col)
		converter, err := converters.ValueConverterForRole(role)
		if err != nil {
			return nil, err
		}

		if role == converters.RoleUUID {
			value = padFixedLength(value, col)
		}

		converted, err := converter.Convert(value)
		if err != nil {
			return nil, fmt.Errorf("failed to decode column %q of %s: %w", col.Name, desc.QualifiedName(), err)
		}

		record[col.Name] = converted
	}

	return record, nil
}

// padFixedLength restores the trailing 0x00 bytes the server strips from BINARY(n) values before writing them
// to the binlog. Only binary roles use it: the binlog does not say whether a fixed length column is BINARY or
// a space padded CHAR.
func padFixedLength(value any, col ColumnSpec) any {
	if col.Type != schema.Char || col.Length == 0 {
		return value
	}

	var bytes []byte
	switch castValue := value.(type) {
	case []byte:
		bytes = castValue
	case string:
		bytes = []byte(castValue)
	default:
		return value
	}

	if len(bytes) >= col.Length {
		return value
	}

	padded := make([]byte, col.Length)
	copy(padded, bytes)
	return padded
}
