package provision

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/dbsetup/internal/backend"
	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/conn"
	"github.com/phrazzld/dbsetup/internal/platform/logger"
	"github.com/phrazzld/dbsetup/internal/schema"
)

const twoTableSchema = `
tables:
  - name: users
    columns:
      - {name: email, type: string, null: false}
  - name: posts
    timestamps: true
    columns:
      - {name: user_id, type: bigint, references: users}
      - {name: title, type: string}
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// newProject lays out a project whose "test" environment is a SQLite file,
// with a two-table schema and three migrations spread over two directories.
func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, root, "config/database.yml", "test:\n  adapter: sqlite3\n  database: db/test.db\n")
	writeFile(t, root, "config/dbsetup.yml", "migrations_paths:\n  - engine/db/migrate\n")
	writeFile(t, root, "db/schema.yml", twoTableSchema)

	writeFile(t, root, "db/migrate/1_add_name_to_users.sql",
		"-- +goose Up\nALTER TABLE users ADD COLUMN name TEXT;\n")
	writeFile(t, root, "engine/db/migrate/2_index_posts_title.sql",
		"-- +goose Up\nCREATE INDEX index_posts_on_title ON posts (title);\n")
	writeFile(t, root, "db/migrate/3_seed_users.sql",
		"-- +goose Up\nINSERT INTO users (email, name) VALUES ('a@example.com', 'A');\n")

	return root
}

func loadConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	cfg, err := config.Load(root)
	require.NoError(t, err)
	return cfg
}

func userTables(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table'
AND name NOT LIKE 'sqlite_%' AND name <> 'schema_migrations' ORDER BY name`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestSetup_SQLiteEndToEnd(t *testing.T) {
	root := newProject(t)
	dbPath := filepath.Join(root, "db", "test.db")

	// A stale database from an earlier run must not survive.
	stale, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = stale.Exec("CREATE TABLE leftovers (id INTEGER)")
	require.NoError(t, err)
	require.NoError(t, stale.Close())

	log, buf := logger.NewTestLogger(t)
	p := New(loadConfig(t, root), WithLogger(log))

	res, err := p.SetupWithResult(context.Background(), "test")
	require.NoError(t, err)

	assert.Equal(t, backend.StatusCreated, res.Status)
	assert.Equal(t, filepath.Join(root, "db", "schema.yml"), res.SchemaFile)
	assert.Len(t, res.Applied, 3)
	assert.NotEmpty(t, res.CorrelationID)
	assert.Contains(t, buf.String(), res.CorrelationID)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, []string{"posts", "users"}, userTables(t, db))

	var records int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM schema_migrations WHERE version_id > 0 AND is_applied").Scan(&records))
	assert.Equal(t, 3, records)

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM users WHERE email = 'a@example.com'").Scan(&name))
	assert.Equal(t, "A", name)

	var ddl string
	require.NoError(t, db.QueryRow("SELECT sql FROM sqlite_master WHERE name = 'users'").Scan(&ddl))
	assert.Contains(t, ddl, "NOT NULL")
	_, err = db.Exec("INSERT INTO users (name) VALUES ('no email')")
	assert.Error(t, err, "email is declared null: false")
}

func TestSetup_RepeatedRunsStartClean(t *testing.T) {
	root := newProject(t)
	p := New(loadConfig(t, root), WithLogger(logger.New(&logger.TestLogBuffer{}, "error")))
	ctx := context.Background()

	require.NoError(t, p.Setup(ctx, "test"))
	res, err := p.SetupWithResult(ctx, "test")
	require.NoError(t, err)

	assert.Equal(t, backend.StatusCreated, res.Status)
	assert.Len(t, res.Applied, 3, "reset drops recorded migrations along with the database")
}

func TestSetup_EnvironmentSpecificSchema(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, "db/schema_test.yml", twoTableSchema+`  - name: audits
    columns:
      - {name: action, type: string}
`)

	p := New(loadConfig(t, root), WithLogger(logger.New(&logger.TestLogBuffer{}, "error")))
	res, err := p.SetupWithResult(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "db", "schema_test.yml"), res.SchemaFile)

	db, err := sql.Open("sqlite", filepath.Join(root, "db", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	assert.Equal(t, []string{"audits", "posts", "users"}, userTables(t, db))
}

func TestSetup_Errors(t *testing.T) {
	quiet := WithLogger(logger.New(&logger.TestLogBuffer{}, "error"))

	t.Run("unknown environment", func(t *testing.T) {
		err := New(loadConfig(t, newProject(t)), quiet).Setup(context.Background(), "staging")
		require.ErrorIs(t, err, config.ErrConfigNotFound)
		assert.Contains(t, err.Error(), "staging")
	})

	t.Run("unsupported adapter", func(t *testing.T) {
		root := newProject(t)
		writeFile(t, root, "config/database.yml", "test:\n  adapter: couchdb\n  database: app\n")

		err := New(loadConfig(t, root), quiet).Setup(context.Background(), "test")
		require.ErrorIs(t, err, backend.ErrUnsupportedAdapter)
		assert.Contains(t, err.Error(), "couchdb")
	})

	t.Run("unknown schema format touches nothing", func(t *testing.T) {
		root := newProject(t)
		cfg := loadConfig(t, root)
		cfg.SchemaFormat = "ruby"
		connector := &recordingConnector{}

		err := New(cfg, quiet, WithConnector(connector)).Setup(context.Background(), "test")
		require.ErrorIs(t, err, schema.ErrUnknownSchemaFormat)
		assert.Zero(t, connector.calls)
		assert.NoFileExists(t, filepath.Join(root, "db", "test.db"))
	})

	t.Run("missing schema file", func(t *testing.T) {
		root := newProject(t)
		require.NoError(t, os.Remove(filepath.Join(root, "db", "schema.yml")))

		err := New(loadConfig(t, root), quiet).Setup(context.Background(), "test")
		require.ErrorIs(t, err, schema.ErrSchemaFileMissing)
	})
}

type recordingConnector struct {
	calls      int
	stdoutName string
	err        error
}

func (c *recordingConnector) Establish(context.Context, config.Descriptor) (conn.Session, error) {
	c.calls++
	c.stdoutName = os.Stdout.Name()
	return nil, c.err
}

func TestSetup_SilencesAndRestoresStdout(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "config/database.yml",
		"test:\n  adapter: postgresql\n  database: app_test\n  username: app\n")
	original := os.Stdout

	connector := &recordingConnector{err: errors.New("connection refused")}
	p := New(loadConfig(t, root),
		WithLogger(logger.New(&logger.TestLogBuffer{}, "error")),
		WithConnector(connector))

	err := p.Setup(context.Background(), "test")
	require.Error(t, err)

	assert.Equal(t, 1, connector.calls)
	assert.Equal(t, os.DevNull, connector.stdoutName)
	assert.Same(t, original, os.Stdout)
}

func TestNew_PromptDegradesUnderCI(t *testing.T) {
	cfg := &config.Config{AdminCredentials: "prompt"}
	log, buf := logger.NewTestLogger(t)

	ci := New(cfg, WithLogger(log), WithGetenv(func(key string) string {
		if key == "GITHUB_ACTIONS" {
			return "true"
		}
		return ""
	}))
	assert.IsType(t, backend.EnvCredentials{}, ci.credentials)
	assert.Contains(t, buf.String(), "github-actions")

	local := New(cfg, WithLogger(log), WithGetenv(func(string) string { return "" }))
	assert.IsType(t, backend.Prompt{}, local.credentials)
}

func TestNew_ExplicitCredentialsWin(t *testing.T) {
	cfg := &config.Config{AdminCredentials: "env"}
	p := New(cfg, WithCredentials(backend.NoCredentials{}))
	assert.IsType(t, backend.NoCredentials{}, p.credentials)
}
