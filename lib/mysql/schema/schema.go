package schema

import (
	"fmt"

	"github.com/go-mysql-org/go-mysql/mysql"
)

type DataType int

const (
	// Unknown is any column type this build does not recognise, its values are passed through untouched.
	Unknown DataType = iota
	// Integer Types (Exact Value)
	TinyInt
	SmallInt
	MediumInt
	Int
	BigInt
	// Fixed-Point Types (Exact Value)
	Decimal
	// Floating-Point Types (Approximate Value)
	Float
	Double
	// Bit-Value Type
	Bit
	// Date and Time Data Types
	Date
	DateTime
	Timestamp
	Time
	Year
	// String Types
	// The binlog does not separate CHAR from BINARY or VARCHAR from VARBINARY, the charset lives in optional metadata.
	Char
	Varchar
	Blob
	Enum
	Set
	// JSON
	JSON
	// Spatial Data Types
	Geometry
	// Null is only sent by servers for columns declared with the NULL type.
	Null
)

var dataTypeNames = map[DataType]string{
	Unknown:   "unknown",
	TinyInt:   "tinyint",
	SmallInt:  "smallint",
	MediumInt: "mediumint",
	Int:       "int",
	BigInt:    "bigint",
	Decimal:   "decimal",
	Float:     "float",
	Double:    "double",
	Bit:       "bit",
	Date:      "date",
	DateTime:  "datetime",
	Timestamp: "timestamp",
	Time:      "time",
	Year:      "year",
	Char:      "char",
	Varchar:   "varchar",
	Blob:      "blob",
	Enum:      "enum",
	Set:       "set",
	JSON:      "json",
	Geometry:  "geometry",
	Null:      "null",
}

func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", int(d))
}

// RealType returns the column type byte a TABLE_MAP_EVENT actually describes.
// ENUM and SET columns are announced as MYSQL_TYPE_STRING with the real type packed into the metadata high byte.
func RealType(colType byte, meta uint16) byte {
	if colType != mysql.MYSQL_TYPE_STRING || meta < 256 {
		return colType
	}

	b0 := uint8(meta >> 8)
	if b0&0x30 != 0x30 {
		// Long CHAR columns steal two bits of the real type for their length.
		return b0 | 0x30
	}
	return b0
}

// FixedLength returns the declared byte length of a CHAR or BINARY column, zero for every other type.
func FixedLength(colType byte, meta uint16) int {
	if RealType(colType, meta) != mysql.MYSQL_TYPE_STRING {
		return 0
	}

	if meta < 256 {
		return int(meta)
	}

	b0, b1 := uint8(meta>>8), uint8(meta&0xff)
	if b0&0x30 != 0x30 {
		return int(uint16(b1) | uint16((b0&0x30)^0x30)<<4)
	}
	return int(b1)
}

// ParseBinlogType maps a binlog column type byte (with its metadata) to a [DataType].
// Types that are not recognised map to [Unknown].
func ParseBinlogType(colType byte, meta uint16) DataType {
	switch RealType(colType, meta) {
	case mysql.MYSQL_TYPE_TINY:
		return TinyInt
	case mysql.MYSQL_TYPE_SHORT:
		return SmallInt
	case mysql.MYSQL_TYPE_INT24:
		return MediumInt
	case mysql.MYSQL_TYPE_LONG:
		return Int
	case mysql.MYSQL_TYPE_LONGLONG:
		return BigInt
	case mysql.MYSQL_TYPE_DECIMAL, mysql.MYSQL_TYPE_NEWDECIMAL:
		return Decimal
	case mysql.MYSQL_TYPE_FLOAT:
		return Float
	case mysql.MYSQL_TYPE_DOUBLE:
		return Double
	case mysql.MYSQL_TYPE_BIT:
		return Bit
	case mysql.MYSQL_TYPE_DATE, mysql.MYSQL_TYPE_NEWDATE:
		return Date
	case mysql.MYSQL_TYPE_DATETIME, mysql.MYSQL_TYPE_DATETIME2:
		return DateTime
	case mysql.MYSQL_TYPE_TIMESTAMP, mysql.MYSQL_TYPE_TIMESTAMP2:
		return Timestamp
	case mysql.MYSQL_TYPE_TIME, mysql.MYSQL_TYPE_TIME2:
		return Time
	case mysql.MYSQL_TYPE_YEAR:
		return Year
	case mysql.MYSQL_TYPE_STRING:
		return Char
	case mysql.MYSQL_TYPE_VARCHAR, mysql.MYSQL_TYPE_VAR_STRING:
		return Varchar
	case mysql.MYSQL_TYPE_TINY_BLOB, mysql.MYSQL_TYPE_MEDIUM_BLOB, mysql.MYSQL_TYPE_LONG_BLOB, mysql.MYSQL_TYPE_BLOB:
		return Blob
	case mysql.MYSQL_TYPE_ENUM:
		return Enum
	case mysql.MYSQL_TYPE_SET:
		return Set
	case mysql.MYSQL_TYPE_JSON:
		return JSON
	case mysql.MYSQL_TYPE_GEOMETRY:
		return Geometry
	case mysql.MYSQL_TYPE_NULL:
		return Null
	default:
		return Unknown
	}
}
