package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/artie-labs/transfer/lib/retry"

	"github.com/artie-labs/binlog-reader/lib/mysql/binlog"
)

const (
	jitterBaseMs = 300
	jitterMaxMs  = 5000
)

func NewRetryConfig(errorRetries int) (retry.RetryConfig, error) {
	retryCfg, err := retry.NewJitterRetryConfig(jitterBaseMs, jitterMaxMs, errorRetries, retry.AlwaysRetry)
	if err != nil {
		return retryCfg, fmt.Errorf("failed to build retry config: %w", err)
	}
	return retryCfg, nil
}

// ShowBinaryLogs lists the server's binary logs in the order the server reports them.
// MySQL 8.0.14 added an Encrypted column, older servers only return the name and the size.
func ShowBinaryLogs(ctx context.Context, db *sql.DB, retryCfg retry.RetryConfig) ([]binlog.BinaryLog, error) {
	rows, err := retry.WithRetriesAndResult(retryCfg, func(_ int, _ error) (*sql.Rows, error) {
		return db.QueryContext(ctx, "SHOW BINARY LOGS")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to show binary logs: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	if len(columns) != 2 && len(columns) != 3 {
		return nil, fmt.Errorf("expected 2 or 3 columns from SHOW BINARY LOGS, got %d", len(columns))
	}

	var logs []binlog.BinaryLog
	for rows.Next() {
		var log binlog.BinaryLog
		dest := []any{&log.Name, &log.Size}
		if len(columns) == 3 {
			dest = append(dest, &log.Encrypted)
		}

		if err = rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		logs = append(logs, log)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate over binary logs: %w", err)
	}

	return logs, nil
}
