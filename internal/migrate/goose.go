package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
)

// slogGooseLogger routes goose output through slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements goose.Logger.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf implements goose.Logger. It does not exit; goose returns the error.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// gooseEngine applies migrations with goose's global API. goose state is
// process wide; provisioning runs are sequential so it is configured per call.
type gooseEngine struct {
	dialect string
	table   string
	logger  *slog.Logger
}

func (e *gooseEngine) configure() error {
	goose.SetLogger(&slogGooseLogger{logger: e.logger})
	goose.SetTableName(e.table)
	if err := goose.SetDialect(e.dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect %q: %w", e.dialect, err)
	}
	return nil
}

func (e *gooseEngine) up(ctx context.Context, db *sql.DB, migrations []Migration) error {
	if err := e.configure(); err != nil {
		return err
	}

	goose.SetBaseFS(newUnionFS(migrations))
	defer goose.SetBaseFS(nil)

	if err := goose.UpContext(ctx, db, ".", goose.WithAllowMissing()); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}
	return nil
}

// applied reads goose's version table. goose appends a row per up or down, so
// the latest row per version decides whether it is applied.
func (e *gooseEngine) applied(ctx context.Context, db *sql.DB) ([]Record, error) {
	if err := e.configure(); err != nil {
		return nil, err
	}

	// EnsureDBVersion creates the table when missing.
	if _, err := goose.EnsureDBVersionContext(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.table, err)
	}

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT version_id, is_applied, tstamp FROM %s ORDER BY id", e.table))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.table, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	latest := make(map[int64]Record)
	for rows.Next() {
		var (
			version   int64
			isApplied bool
			tstamp    any
		)
		if err := rows.Scan(&version, &isApplied, &tstamp); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", e.table, err)
		}
		if version == 0 {
			continue
		}
		if !isApplied {
			delete(latest, version)
			continue
		}
		latest[version] = Record{Version: version, AppliedAt: parseTimestamp(tstamp)}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.table, err)
	}

	return sortedRecords(latest), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// parseTimestamp accepts the tstamp column as drivers return it: a time.Time,
// or text for SQLite builds that do not parse declared TIMESTAMP columns.
func parseTimestamp(v any) time.Time {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return time.Time{}
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
