package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/conn"
	"github.com/phrazzld/dbsetup/internal/redact"
)

// dialect holds the adapter-specific statements of a server backend.
type dialect interface {
	// adminDescriptor is the connection used for drop and create, authenticated
	// as whoever as carries.
	adminDescriptor(as config.Descriptor) config.Descriptor

	drop(ctx context.Context, h *conn.Handle, d config.Descriptor) error
	create(ctx context.Context, s conn.Session, d config.Descriptor, opts Options) error

	// grant gives the configured user full privileges on the database created
	// by an administrator.
	grant(ctx context.Context, s conn.Session, d config.Descriptor) error
}

type serverStrategy struct {
	deps    Deps
	dialect dialect

	// The credential provider is asked at most once; Drop and Create share
	// its answer.
	asked    bool
	admin    Credentials
	adminErr error
}

func newServerStrategy(deps Deps, d dialect) *serverStrategy {
	return &serverStrategy{deps: deps, dialect: d}
}

// Drop removes the database as the configured user. When that is denied it
// retries once with administrative credentials.
func (s *serverStrategy) Drop(ctx context.Context, d config.Descriptor) error {
	logger := s.deps.Logger.With("database", d.Database)
	logger.Debug("dropping database")

	err := s.dialect.drop(ctx, s.deps.Handle, d)
	if err == nil || !conn.IsAccessDenied(err) {
		return err
	}

	logger.Warn("access denied dropping database, escalating to administrative credentials",
		"username", d.Username)

	creds, credErr := s.adminCredentials(ctx, d, err)
	if credErr != nil {
		return errors.Join(err, credErr)
	}
	return s.dialect.drop(ctx, s.deps.Handle, d.WithCredentials(creds.Username, creds.Password))
}

func (s *serverStrategy) adminCredentials(ctx context.Context, d config.Descriptor, cause error) (Credentials, error) {
	if !s.asked {
		s.asked = true
		s.admin, s.adminErr = s.deps.Credentials.AdminCredentials(ctx, d, cause)
	}
	return s.admin, s.adminErr
}

// Create connects to the target first; success means it already exists.
// Otherwise it creates the database as the configured user and, on access
// denied, escalates once through the credential provider.
func (s *serverStrategy) Create(ctx context.Context, d config.Descriptor) (Status, error) {
	logger := s.deps.Logger.With("database", d.Database)

	_, err := s.deps.Handle.Establish(ctx, d)
	if err == nil {
		logger.Info("database already exists")
		return StatusAlreadyExists, nil
	}
	logger.Debug("target database not reachable, creating",
		"error", redact.Secrets(err.Error(), d.Password))

	opts := ResolveOptions(d, s.deps.Getenv)

	err = s.createAs(ctx, d, d, opts, false)
	if err == nil {
		logger.Info("database created")
		return StatusCreated, nil
	}
	if !conn.IsAccessDenied(err) {
		return 0, newCreationError(d.AdapterName, d.Database, opts, err)
	}

	logger.Warn("access denied creating database, escalating to administrative credentials",
		"username", d.Username)

	creds, credErr := s.adminCredentials(ctx, d, err)
	if credErr != nil {
		return 0, newCreationError(d.AdapterName, d.Database, opts, errors.Join(err, credErr))
	}

	admin := d.WithCredentials(creds.Username, creds.Password)
	if err := s.createAs(ctx, d, admin, opts, true); err != nil {
		return 0, newCreationError(d.AdapterName, d.Database, opts, err)
	}

	logger.Info("database created with administrative credentials", "admin", creds.Username)
	return StatusCreated, nil
}

// createAs creates d over an administrative connection authenticated as as,
// optionally grants privileges, and reconnects to d as the configured user.
func (s *serverStrategy) createAs(
	ctx context.Context,
	d config.Descriptor,
	as config.Descriptor,
	opts Options,
	grant bool,
) error {
	session, err := s.deps.Handle.Establish(ctx, s.dialect.adminDescriptor(as))
	if err != nil {
		return err
	}

	if err := s.dialect.create(ctx, session, d, opts); err != nil {
		return err
	}

	if grant && as.Username != d.Username {
		if err := s.dialect.grant(ctx, session, d); err != nil {
			return fmt.Errorf("failed to grant privileges to %q: %w", d.Username, err)
		}
	}

	if _, err := s.deps.Handle.Establish(ctx, d); err != nil {
		return fmt.Errorf("failed to reconnect to created database: %w", err)
	}
	return nil
}

// execAll runs statements in order on s.
func execAll(ctx context.Context, s conn.Session, statements ...string) error {
	for _, stmt := range statements {
		if _, err := s.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
