package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/conn"
	"github.com/phrazzld/dbsetup/internal/provision"
)

// SetupTimeout bounds one provisioning run started from test code.
const SetupTimeout = 2 * time.Minute

var (
	provisionedMu sync.Mutex
	provisioned   = map[string]error{}
)

// MustSetup provisions env for the project containing the working directory.
// It panics on failure, which aborts TestMain before any test runs.
func MustSetup(env string, opts ...provision.Option) {
	if err := setupOnce(env, opts...); err != nil {
		// ALLOW-PANIC
		panic(fmt.Sprintf("testdb: failed to provision %q: %v", env, err))
	}
}

// SetupWithT provisions env once per process and returns an open connection
// to it. The connection is closed when t finishes.
func SetupWithT(t *testing.T, env string, opts ...provision.Option) *sql.DB {
	t.Helper()

	if err := setupOnce(env, opts...); err != nil {
		t.Fatalf("failed to provision %q: %v", env, err)
	}

	db, err := Open(env)
	if err != nil {
		t.Fatalf("failed to connect to %q: %v", env, err)
	}

	t.Cleanup(func() {
		CleanupDB(t, db)
	})
	return db
}

// Open connects to the already provisioned env.
func Open(env string) (*sql.DB, error) {
	root, err := config.FindRoot(".")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	d, err := config.NewResolver(cfg).Resolve(env)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), conn.EstablishTimeout)
	defer cancel()

	session, err := conn.SQLConnector{}.Establish(ctx, d)
	if err != nil {
		return nil, err
	}
	return session.(*sql.DB), nil
}

// setupOnce provisions each (root, env) pair at most once per process. A
// failure is remembered so later callers fail fast with the same error.
func setupOnce(env string, opts ...provision.Option) error {
	root, err := config.FindRoot(".")
	if err != nil {
		return err
	}
	key := root + "\x00" + env

	provisionedMu.Lock()
	defer provisionedMu.Unlock()

	if err, ok := provisioned[key]; ok {
		return err
	}

	err = provisionRoot(root, env, opts...)
	provisioned[key] = err
	return err
}

func provisionRoot(root, env string, opts ...provision.Option) error {
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), SetupTimeout)
	defer cancel()

	return provision.New(cfg, opts...).Setup(ctx, env)
}

// CleanupDB closes db, logging rather than failing on error.
func CleanupDB(t *testing.T, db *sql.DB) {
	t.Helper()
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		t.Logf("Warning: failed to close database connection: %v", err)
	}
}
