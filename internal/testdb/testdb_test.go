package testdb

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/platform/logger"
	"github.com/phrazzld/dbsetup/internal/provision"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// useProject creates a SQLite project and points DBSETUP_ROOT at it.
func useProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "config/database.yml", "test:\n  adapter: sqlite3\n  database: db/test.db\n")
	writeFile(t, root, "db/schema.yml", "tables:\n  - name: widgets\n    columns:\n      - {name: name, type: string}\n")
	t.Setenv(config.EnvRoot, root)
	return root
}

func quietLogger(t *testing.T) provision.Option {
	log, _ := logger.NewTestLogger(t)
	return provision.WithLogger(log)
}

func countWidgets(t *testing.T, q interface {
	QueryRow(query string, args ...any) *sql.Row
}) int {
	t.Helper()
	var n int
	require.NoError(t, q.QueryRow("SELECT COUNT(*) FROM widgets").Scan(&n))
	return n
}

func TestSetupWithT_ProvisionsAndConnects(t *testing.T) {
	useProject(t)

	db := SetupWithT(t, "test", quietLogger(t))
	require.NotNil(t, db)
	assert.Equal(t, 0, countWidgets(t, db))
}

func TestSetupWithT_ProvisionsOncePerProcess(t *testing.T) {
	useProject(t)

	db := SetupWithT(t, "test", quietLogger(t))
	_, err := db.Exec("INSERT INTO widgets (name) VALUES ('kept')")
	require.NoError(t, err)

	// A second call reuses the database instead of rebuilding it.
	again := SetupWithT(t, "test", quietLogger(t))
	assert.Equal(t, 1, countWidgets(t, again))
}

func TestMustSetup_PanicsOnUnknownEnvironment(t *testing.T) {
	useProject(t)

	assert.Panics(t, func() {
		MustSetup("staging", quietLogger(t))
	})
}

func TestOpen_NoProjectRoot(t *testing.T) {
	t.Setenv(config.EnvRoot, t.TempDir())

	_, err := Open("test")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrRootNotFound)
}

func TestWithTx_RollsBack(t *testing.T) {
	useProject(t)
	db := SetupWithT(t, "test", quietLogger(t))

	WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		_, err := tx.Exec("INSERT INTO widgets (name) VALUES ('temporary')")
		require.NoError(t, err)
		assert.Equal(t, 1, countWidgets(t, tx))
	})

	assert.Equal(t, 0, countWidgets(t, db))
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	useProject(t)
	db := SetupWithT(t, "test", quietLogger(t))

	assert.PanicsWithValue(t, "boom", func() {
		WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			_, err := tx.Exec("INSERT INTO widgets (name) VALUES ('temporary')")
			require.NoError(t, err)
			panic("boom")
		})
	})

	assert.Equal(t, 0, countWidgets(t, db))
}

func TestWithTx_CommittedByCallback(t *testing.T) {
	useProject(t)
	db := SetupWithT(t, "test", quietLogger(t))

	WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		_, err := tx.Exec("INSERT INTO widgets (name) VALUES ('committed')")
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
	})

	assert.Equal(t, 1, countWidgets(t, db))
}

func TestCleanupDB_NilIsNoop(t *testing.T) {
	CleanupDB(t, nil)
}
