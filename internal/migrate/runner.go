package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/dbsetup/internal/adapter"
)

// DefaultTable is the migration record table.
const DefaultTable = "schema_migrations"

type engine interface {
	applied(ctx context.Context, db *sql.DB) ([]Record, error)
	up(ctx context.Context, db *sql.DB, migrations []Migration) error
}

// Runner applies migrations and reports applied versions.
type Runner struct {
	table  string
	logger *slog.Logger
}

// NewRunner returns a runner recording versions in table.
func NewRunner(table string, logger *slog.Logger) *Runner {
	if table == "" {
		table = DefaultTable
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{table: table, logger: logger.With("component", "migrate")}
}

func (r *Runner) engineFor(kind adapter.Kind) (engine, error) {
	switch kind {
	case adapter.PostgreSQL:
		return &gooseEngine{dialect: "postgres", table: r.table, logger: r.logger}, nil
	case adapter.MySQL:
		return &gooseEngine{dialect: "mysql", table: r.table, logger: r.logger}, nil
	case adapter.SQLite:
		return &gooseEngine{dialect: "sqlite3", table: r.table, logger: r.logger}, nil
	case adapter.SQLServer:
		return &gooseEngine{dialect: "mssql", table: r.table, logger: r.logger}, nil
	case adapter.Oracle:
		return &recordEngine{dialect: oracleRecords, table: r.table, logger: r.logger, now: time.Now}, nil
	case adapter.Firebird:
		return &recordEngine{dialect: firebirdRecords, table: r.table, logger: r.logger, now: time.Now}, nil
	default:
		return nil, fmt.Errorf("no migration engine for adapter %s", kind)
	}
}

// Migrate applies every pending migration in dirs in ascending version order
// and returns the records it added. It stops at the first failure; earlier
// migrations stay applied.
func (r *Runner) Migrate(ctx context.Context, db *sql.DB, kind adapter.Kind, dirs []string) ([]Record, error) {
	eng, err := r.engineFor(kind)
	if err != nil {
		return nil, err
	}

	migrations, err := Collect(dirs)
	if err != nil {
		return nil, err
	}

	before, err := eng.applied(ctx, db)
	if err != nil {
		return nil, err
	}

	pending := pendingCount(migrations, before)
	r.logger.Info("migrating",
		"directories", strings.Join(dirs, ","),
		"found", len(migrations),
		"pending", pending)

	if pending == 0 {
		return nil, nil
	}

	start := time.Now()
	upErr := eng.up(ctx, db, migrations)

	after, err := eng.applied(ctx, db)
	if err != nil {
		if upErr != nil {
			return nil, upErr
		}
		return nil, err
	}
	added := difference(after, before)

	if upErr != nil {
		r.logger.Error("migration failed",
			"applied", len(added),
			"error", upErr)
		return added, upErr
	}

	r.logger.Info("migrations applied",
		"applied", len(added),
		"duration_ms", time.Since(start).Milliseconds())
	return added, nil
}

// Applied lists the migrations recorded in db.
func (r *Runner) Applied(ctx context.Context, db *sql.DB, kind adapter.Kind) ([]Record, error) {
	eng, err := r.engineFor(kind)
	if err != nil {
		return nil, err
	}
	return eng.applied(ctx, db)
}

func pendingCount(migrations []Migration, applied []Record) int {
	done := make(map[int64]bool, len(applied))
	for _, rec := range applied {
		done[rec.Version] = true
	}

	n := 0
	for _, m := range migrations {
		if !done[m.Version] {
			n++
		}
	}
	return n
}

func difference(after, before []Record) []Record {
	seen := make(map[int64]bool, len(before))
	for _, rec := range before {
		seen[rec.Version] = true
	}

	var out []Record
	for _, rec := range after {
		if !seen[rec.Version] {
			out = append(out, rec)
		}
	}
	return out
}
