package constants

import "time"

type contextKey string

const (
	ConfigKey contextKey = "__cfg"
	MtrKey    contextKey = "__mtr"
)

const (
	DefaultPublishSize = 2_500

	// DefaultServerID is the replica id announced to the source server, it must be unique in the cluster.
	DefaultServerID        = 1_000
	DefaultHeartbeatPeriod = 30 * time.Second

	// DefaultCommitInterval is how often the streaming checkpoint is flushed to the offset file.
	DefaultCommitInterval = 5 * time.Second
)

// DefaultExcludedTables are written to by replication tooling and never carry business data.
var DefaultExcludedTables = []string{"heartbeat"}
