package migrate

import "errors"

var (
	// ErrMigrationFailed wraps any failure applying or recording a migration.
	// Migrations applied before the failure stay applied.
	ErrMigrationFailed = errors.New("migration failed")

	// ErrDuplicateVersion means two migration files share a version.
	ErrDuplicateVersion = errors.New("duplicate migration version")

	// ErrInvalidMigration means a migration file name or body is malformed.
	ErrInvalidMigration = errors.New("invalid migration")
)
