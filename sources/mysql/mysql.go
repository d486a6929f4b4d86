package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"

	"github.com/artie-labs/binlog-reader/config"
	"github.com/artie-labs/binlog-reader/lib/mysql"
	"github.com/artie-labs/binlog-reader/lib/mysql/binlog"
	"github.com/artie-labs/binlog-reader/lib/storage/persistedmap"
	"github.com/artie-labs/binlog-reader/sources/mysql/streaming"
	"github.com/artie-labs/binlog-reader/writers"
)

const showBinaryLogsRetries = 3

type Source struct {
	db       *sql.DB
	iterator *streaming.Iterator
}

func Load(ctx context.Context, cfg config.MySQL) (*Source, error) {
	db, err := sql.Open("mysql", cfg.ToDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	iter, err := buildStreamingIterator(ctx, db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Source{db: db, iterator: iter}, nil
}

func buildStreamingIterator(ctx context.Context, db *sql.DB, cfg config.MySQL) (*streaming.Iterator, error) {
	settings, err := mysql.RetrieveSettings(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve MySQL settings: %w", err)
	}

	slog.Info("Loading MySQL connector",
		slog.String("version", settings.Version),
		slog.Any("sqlMode", settings.SQLMode),
	)

	if !settings.HasFullRowMetadata() {
		slog.Warn("'binlog_row_metadata' is not set to 'FULL', columns will be named by their position and can only be matched by ordinal",
			slog.String("binlogRowMetadata", settings.RowMetadata),
		)
	}

	if err = mysql.ValidateMySQL(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to validate MySQL: %w", err)
	}

	decoder, err := binlog.NewDecoder(cfg.ColumnRoles())
	if err != nil {
		return nil, fmt.Errorf("failed to build row decoder: %w", err)
	}

	offsets := persistedmap.NewPersistedMap[binlog.LogPosition](cfg.StreamingSettings.OffsetFile)
	pos, err := streaming.StartPosition(offsets, func() (binlog.LogPosition, error) {
		retryCfg, err := mysql.NewRetryConfig(showBinaryLogsRetries)
		if err != nil {
			return binlog.LogPosition{}, err
		}

		logs, err := mysql.ShowBinaryLogs(ctx, db, retryCfg)
		if err != nil {
			return binlog.LogPosition{}, err
		}

		return binlog.ResolveStartPosition(logs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve start position: %w", err)
	}

	reader, err := binlog.Open(cfg.BinlogSyncerConfig(), pos)
	if err != nil {
		return nil, fmt.Errorf("failed to open binlog stream: %w", err)
	}

	filter := binlog.NewTableFilter(cfg.IncludedTables(), cfg.StreamingSettings.GetExcludedTables())
	dispatcher := binlog.NewDispatcher(binlog.NewRegistry(), filter, decoder)
	session := binlog.NewSession(reader, dispatcher, pos)
	return streaming.NewIterator(session, offsets, cfg.StreamingSettings.GetCommitInterval()), nil
}

func (s *Source) Close() error {
	iterErr := s.iterator.Close()
	if err := s.db.Close(); err != nil {
		return err
	}
	return iterErr
}

func (s *Source) Run(ctx context.Context, writer writers.Writer) error {
	count, err := writer.Write(ctx, s.iterator)
	slog.Info("Stopped streaming", slog.Int("changes", count))
	return err
}
