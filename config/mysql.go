package config

import (
	"cmp"
	"fmt"
	"math"
	"time"

	"github.com/artie-labs/transfer/lib/stringutil"
	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/go-sql-driver/mysql"

	"github.com/artie-labs/binlog-reader/constants"
	"github.com/artie-labs/binlog-reader/lib/mysql/binlog"
	"github.com/artie-labs/binlog-reader/lib/mysql/converters"
)

type MySQLStreamingSettings struct {
	OffsetFile      string        `yaml:"offsetFile"`
	HeartbeatPeriod time.Duration `yaml:"heartbeatPeriod,omitempty"`
	CommitInterval  time.Duration `yaml:"commitInterval,omitempty"`

	// ServerID - Unique ID in the cluster.
	ServerID uint32 `yaml:"serverID,omitempty"`

	// ExcludedTables are never decoded, either a table name or "schema.table". Defaults to [constants.DefaultExcludedTables].
	ExcludedTables []string `yaml:"excludedTables,omitempty"`

	// MaxReconnectAttempts is handed to the binlog syncer, zero keeps its default.
	MaxReconnectAttempts int `yaml:"maxReconnectAttempts,omitempty"`
}

func (m MySQLStreamingSettings) GetServerID() uint32 {
	return cmp.Or(m.ServerID, constants.DefaultServerID)
}

func (m MySQLStreamingSettings) GetHeartbeatPeriod() time.Duration {
	return cmp.Or(m.HeartbeatPeriod, constants.DefaultHeartbeatPeriod)
}

func (m MySQLStreamingSettings) GetCommitInterval() time.Duration {
	return cmp.Or(m.CommitInterval, constants.DefaultCommitInterval)
}

func (m MySQLStreamingSettings) GetExcludedTables() []string {
	if m.ExcludedTables == nil {
		return constants.DefaultExcludedTables
	}
	return m.ExcludedTables
}

type MySQL struct {
	Host              string                 `yaml:"host"`
	Port              int                    `yaml:"port"`
	Username          string                 `yaml:"username"`
	Password          string                 `yaml:"password"`
	Database          string                 `yaml:"database"`
	Tables            []*MySQLTable          `yaml:"tables"`
	StreamingSettings MySQLStreamingSettings `yaml:"streamingSettings"`
}

func (m *MySQL) ToDSN() string {
	config := mysql.NewConfig()
	config.User = m.Username
	config.Passwd = m.Password
	config.Net = "tcp"
	config.Addr = fmt.Sprintf("%s:%d", m.Host, m.Port)
	config.DBName = m.Database
	return config.FormatDSN()
}

func (m *MySQL) BinlogSyncerConfig() replication.BinlogSyncerConfig {
	return replication.BinlogSyncerConfig{
		ServerID:             m.StreamingSettings.GetServerID(),
		Flavor:               "mysql",
		Host:                 m.Host,
		Port:                 uint16(m.Port),
		User:                 m.Username,
		Password:             m.Password,
		HeartbeatPeriod:      m.StreamingSettings.GetHeartbeatPeriod(),
		MaxReconnectAttempts: m.StreamingSettings.MaxReconnectAttempts,
	}
}

// IncludedTables returns the configured table names, an empty list means every table.
func (m *MySQL) IncludedTables() []string {
	var tables []string
	for _, table := range m.Tables {
		tables = append(tables, table.Name)
	}
	return tables
}

// ColumnRoles returns the decode roles of every configured table, keyed by table name.
func (m *MySQL) ColumnRoles() map[string][]binlog.ColumnRole {
	roles := make(map[string][]binlog.ColumnRole)
	for _, table := range m.Tables {
		for _, column := range table.Columns {
			roles[table.Name] = append(roles[table.Name], binlog.ColumnRole{
				Name:    column.Name,
				Ordinal: column.Ordinal,
				Role:    column.Role,
			})
		}
	}
	return roles
}

type MySQLTable struct {
	// Name is either the table name or "schema.table".
	Name    string         `yaml:"name"`
	Columns []*MySQLColumn `yaml:"columns,omitempty"`
}

// MySQLColumn picks a column by name or by ordinal position and says how its payload is decoded.
type MySQLColumn struct {
	Name    string          `yaml:"name,omitempty"`
	Ordinal *int            `yaml:"ordinal,omitempty"`
	Role    converters.Role `yaml:"role"`
}

func (m *MySQLColumn) Validate() error {
	if m.Name == "" && m.Ordinal == nil {
		return fmt.Errorf("column must have a name or an ordinal")
	}

	if m.Ordinal != nil && *m.Ordinal < 0 {
		return fmt.Errorf("column ordinal must be >= 0, got %d", *m.Ordinal)
	}

	return m.Role.Validate()
}

func (m *MySQL) Validate() error {
	if m == nil {
		return fmt.Errorf("MySQL config is nil")
	}

	if stringutil.Empty(m.Host, m.Username, m.Password, m.Database) {
		return fmt.Errorf("one of the MySQL settings is empty: host, username, password, database")
	}

	if m.Port <= 0 {
		return fmt.Errorf("port is not set or <= 0")
	} else if m.Port > math.MaxUint16 {
		return fmt.Errorf("port is > %d", math.MaxUint16)
	}

	if m.StreamingSettings.OffsetFile == "" {
		return fmt.Errorf("offset file is not set")
	}

	for _, table := range m.Tables {
		if table.Name == "" {
			return fmt.Errorf("table name must be passed in")
		}

		for _, column := range table.Columns {
			if err := column.Validate(); err != nil {
				return fmt.Errorf("invalid column for table %q: %w", table.Name, err)
			}
		}
	}

	return nil
}
