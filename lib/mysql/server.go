package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type Settings struct {
	Version string
	SQLMode []string
	// RowMetadata is binlog_row_metadata, column names are only sent in table map events when it is FULL.
	RowMetadata string
}

func RetrieveSettings(ctx context.Context, db *sql.DB) (Settings, error) {
	var version string
	if err := db.QueryRowContext(ctx, "SELECT VERSION();").Scan(&version); err != nil {
		return Settings{}, fmt.Errorf("failed to retrieve MySQL version: %w", err)
	}

	var sqlMode string
	if err := db.QueryRowContext(ctx, "SELECT @@SESSION.sql_mode;").Scan(&sqlMode); err != nil {
		return Settings{}, fmt.Errorf("failed to retrieve MySQL session sql_mode: %w", err)
	}

	// binlog_row_metadata only exists on MySQL >= 8.0.1.
	rowMetadata, err := fetchVariable(ctx, db, "binlog_row_metadata")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Settings{}, err
	}

	return Settings{
		Version:     version,
		SQLMode:     strings.Split(sqlMode, ","),
		RowMetadata: rowMetadata,
	}, nil
}

func (s Settings) HasFullRowMetadata() bool {
	return strings.EqualFold(s.RowMetadata, "FULL")
}

func fetchVariable(ctx context.Context, db *sql.DB, name string) (string, error) {
	var variableName string
	var value string
	if err := db.QueryRowContext(ctx, "SHOW VARIABLES WHERE variable_name = ?", name).Scan(&variableName, &value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("failed to query for %q variable: %w", name, err)
	} else if variableName != name {
		return "", fmt.Errorf("the variable %q was returned instead of %q", variableName, name)
	}

	return value, nil
}

var requiredVariables = []struct {
	name  string
	value string
}{
	{name: "binlog_format", value: "ROW"},
	{name: "binlog_row_image", value: "FULL"},
}

// ValidateMySQL checks that the server writes row based events with full row images.
// Minimal images leave out unchanged columns and would surface as missing column values.
func ValidateMySQL(ctx context.Context, db *sql.DB) error {
	for _, required := range requiredVariables {
		value, err := fetchVariable(ctx, db, required.name)
		if err != nil {
			return fmt.Errorf("failed to fetch %q: %w", required.name, err)
		}

		if strings.ToUpper(value) != required.value {
			return fmt.Errorf("'%s' must be set to '%s', current value is '%s'", required.name, required.value, value)
		}
	}

	return nil
}
