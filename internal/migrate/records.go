package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"
)

// Record is one applied migration.
type Record struct {
	Version   int64
	AppliedAt time.Time
}

func sortedRecords(m map[int64]Record) []Record {
	out := make([]Record, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// recordDialect is the SQL a recordEngine needs from its database.
type recordDialect struct {
	// tableExists counts tables named by its single parameter (upper case).
	tableExists string
	createTable string
	insert      string
}

var oracleRecords = recordDialect{
	tableExists: "SELECT COUNT(*) FROM user_tables WHERE table_name = :1",
	createTable: "CREATE TABLE %s (version_id NUMBER(19) NOT NULL PRIMARY KEY, applied_at TIMESTAMP NOT NULL)",
	insert:      "INSERT INTO %s (version_id, applied_at) VALUES (:1, :2)",
}

var firebirdRecords = recordDialect{
	tableExists: "SELECT COUNT(*) FROM RDB$RELATIONS WHERE RDB$RELATION_NAME = ?",
	createTable: "CREATE TABLE %s (version_id BIGINT NOT NULL PRIMARY KEY, applied_at TIMESTAMP NOT NULL)",
	insert:      "INSERT INTO %s (version_id, applied_at) VALUES (?, ?)",
}

// recordEngine applies goose-annotated migrations statement by statement and
// records each version in its own table right after it succeeds.
type recordEngine struct {
	dialect recordDialect
	table   string
	logger  *slog.Logger
	now     func() time.Time
}

func (e *recordEngine) ensureTable(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx, e.dialect.tableExists, strings.ToUpper(e.table)).Scan(&n); err != nil {
		return fmt.Errorf("failed to look up %s: %w", e.table, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(e.dialect.createTable, e.table)); err != nil {
		return fmt.Errorf("failed to create %s: %w", e.table, err)
	}
	return nil
}

func (e *recordEngine) applied(ctx context.Context, db *sql.DB) ([]Record, error) {
	if err := e.ensureTable(ctx, db); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT version_id, applied_at FROM %s ORDER BY version_id", e.table))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.table, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make(map[int64]Record)
	for rows.Next() {
		var (
			version   int64
			appliedAt any
		)
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", e.table, err)
		}
		records[version] = Record{Version: version, AppliedAt: parseTimestamp(appliedAt)}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.table, err)
	}
	return sortedRecords(records), nil
}

func (e *recordEngine) up(ctx context.Context, db *sql.DB, migrations []Migration) error {
	done, err := e.applied(ctx, db)
	if err != nil {
		return err
	}
	applied := make(map[int64]bool, len(done))
	for _, r := range done {
		applied[r.Version] = true
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		start := time.Now()
		if err := e.apply(ctx, db, m); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrMigrationFailed, m.Filename(), err)
		}
		e.logger.Debug("applied migration",
			"version", m.Version,
			"file", m.Filename(),
			"duration_ms", time.Since(start).Milliseconds())
	}
	return nil
}

func (e *recordEngine) apply(ctx context.Context, db *sql.DB, m Migration) error {
	f, err := os.Open(m.Path)
	if err != nil {
		return err
	}
	statements, err := parseUp(f)
	_ = f.Close()
	if err != nil {
		return err
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(e.dialect.insert, e.table), m.Version, e.now().UTC())
	return err
}
