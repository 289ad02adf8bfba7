package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/phrazzld/dbsetup/internal/adapter"
	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/conn"
)

// Strategy drops and creates databases for one adapter family.
type Strategy interface {
	// Drop removes the database. A missing database is not an error.
	Drop(ctx context.Context, d config.Descriptor) error

	// Create makes the database. An existing database yields
	// StatusAlreadyExists; failures are *CreationError.
	Create(ctx context.Context, d config.Descriptor) (Status, error)
}

// Deps are the collaborators shared by every strategy.
type Deps struct {
	// Handle owns the run's single connection. After a successful Create it
	// holds a session on the target database as the configured user.
	Handle *conn.Handle

	// Credentials is consulted at most once, when dropping or creating is denied.
	// Defaults to NoCredentials.
	Credentials CredentialProvider

	// Getenv resolves CHARSET and COLLATION. Defaults to os.Getenv.
	Getenv func(string) string

	Logger *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Handle == nil {
		d.Handle = conn.NewHandle(conn.SQLConnector{}, d.Logger)
	}
	if d.Credentials == nil {
		d.Credentials = NoCredentials{}
	}
	if d.Getenv == nil {
		d.Getenv = os.Getenv
	}
	return d
}

// For returns the strategy for kind.
func For(kind adapter.Kind, deps Deps) (Strategy, error) {
	deps = deps.withDefaults()
	logger := deps.Logger.With("component", "backend", "adapter", kind.String())
	deps.Logger = logger

	switch kind {
	case adapter.SQLite:
		return &sqliteStrategy{deps: deps}, nil
	case adapter.MySQL:
		return newServerStrategy(deps, mysqlDialect{}), nil
	case adapter.PostgreSQL:
		return newServerStrategy(deps, postgresDialect{}), nil
	case adapter.SQLServer:
		return newServerStrategy(deps, sqlserverDialect{}), nil
	case adapter.Oracle:
		return newServerStrategy(deps, oracleDialect{}), nil
	case adapter.Firebird:
		return newServerStrategy(deps, firebirdDialect{}), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAdapter, kind)
	}
}

// ForDescriptor is For with the offending adapter name in the error.
func ForDescriptor(d config.Descriptor, deps Deps) (Strategy, error) {
	if d.Kind == adapter.Unsupported {
		return nil, fmt.Errorf("%w: cannot reset databases for %q", ErrUnsupportedAdapter, d.AdapterName)
	}
	return For(d.Kind, deps)
}

// Reset drops then creates the database described by d.
func Reset(ctx context.Context, s Strategy, d config.Descriptor) (Status, error) {
	if err := s.Drop(ctx, d); err != nil {
		return 0, fmt.Errorf("failed to drop database %q: %w", d.Database, err)
	}
	return s.Create(ctx, d)
}
