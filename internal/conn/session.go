package conn

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/dbsetup/internal/adapter"
	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/redact"
)

// EstablishTimeout bounds a single connection attempt including its ping.
const EstablishTimeout = 10 * time.Second

// Session is the part of a database connection the provisioner needs.
// *sql.DB satisfies it.
type Session interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PingContext(ctx context.Context) error
	Close() error
}

// Connector establishes sessions for descriptors.
type Connector interface {
	Establish(ctx context.Context, d config.Descriptor) (Session, error)
}

// SQLConnector opens database/sql connections using the registered drivers.
type SQLConnector struct{}

// Establish opens a connection for d and verifies it with a ping. For SQLite
// the ping creates the database file; for server backends it proves that the
// target database exists and accepts the configured credentials.
func (SQLConnector) Establish(ctx context.Context, d config.Descriptor) (Session, error) {
	driver, dsn, err := DSN(d)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection to %q: %w", d.Kind, d.Database, err)
	}

	// Provisioning is sequential; keep the footprint to a single idle connection.
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Every connection to :memory: opens its own empty database.
	if InMemory(d) {
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	}

	pingCtx, cancel := context.WithTimeout(ctx, EstablishTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database %q: %w", d.Kind, d.Database, err)
	}

	return db, nil
}

// InMemory reports whether d is an in-memory SQLite database.
func InMemory(d config.Descriptor) bool {
	return d.Kind == adapter.SQLite && (d.Database == "" || d.Database == ":memory:")
}

// Handle owns the single current session of a provisioning run. Every
// Establish closes the previous session before opening the next one, so at
// most one session is live at any time.
type Handle struct {
	connector  Connector
	logger     *slog.Logger
	current    Session
	descriptor config.Descriptor
}

// NewHandle returns a handle that establishes sessions through connector.
func NewHandle(connector Connector, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{connector: connector, logger: logger}
}

// Establish supersedes the current session with a new one for d.
// The previous session is closed even when the new attempt fails.
func (h *Handle) Establish(ctx context.Context, d config.Descriptor) (Session, error) {
	if err := h.Close(); err != nil {
		h.logger.Warn("failed to close previous session",
			"error", redact.Error(err))
	}

	h.logger.Debug("establishing connection", "descriptor", d)

	s, err := h.connector.Establish(ctx, d)
	if err != nil {
		return nil, err
	}

	h.current = s
	h.descriptor = d
	return s, nil
}

// Current returns the live session, or nil when none is established.
func (h *Handle) Current() Session {
	return h.current
}

// Descriptor returns the descriptor of the live session.
func (h *Handle) Descriptor() config.Descriptor {
	return h.descriptor
}

// DB returns the live session as a *sql.DB, which migration engines require.
func (h *Handle) DB() (*sql.DB, error) {
	if h.current == nil {
		return nil, fmt.Errorf("no connection established")
	}
	db, ok := h.current.(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("current session %T is not a *sql.DB", h.current)
	}
	return db, nil
}

// Close releases the live session, if any.
func (h *Handle) Close() error {
	if h.current == nil {
		return nil
	}
	err := h.current.Close()
	h.current = nil
	h.descriptor = config.Descriptor{}
	return err
}
