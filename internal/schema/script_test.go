package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/dbsetup/internal/adapter"
)

const usersScript = `
tables:
  - name: users
    timestamps: true
    columns:
      - {name: email, type: string, null: false}
      - {name: admin, type: boolean, default: false}
    indexes:
      - {columns: [email], unique: true}
  - name: posts
    columns:
      - {name: user_id, type: bigint, references: users}
      - {name: price, type: decimal, precision: 10, scale: 2}
statements:
  - INSERT INTO users (email, created_at, updated_at) VALUES ('a@example.com', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
`

func TestParseScript(t *testing.T) {
	s, err := ParseScript(strings.NewReader(usersScript))
	require.NoError(t, err)

	require.Len(t, s.Tables, 2)
	assert.Equal(t, "users", s.Tables[0].Name)
	assert.False(t, s.Tables[0].Columns[0].Nullable())
	assert.True(t, s.Tables[1].Columns[0].Nullable())
	assert.Len(t, s.Statements, 1)
}

func TestParseScript_NullKey(t *testing.T) {
	doc := `
tables:
  - name: t
    columns:
      - name: a
        type: string
        null: false
      - {name: b, type: string, null: true}
      - {name: c, type: string}
`
	s, err := ParseScript(strings.NewReader(doc))
	require.NoError(t, err)

	cols := s.Tables[0].Columns
	require.NotNil(t, cols[0].Null)
	assert.False(t, cols[0].Nullable())
	assert.True(t, cols[1].Nullable())
	assert.Nil(t, cols[2].Null)

	_, err = ParseScript(strings.NewReader("tables:\n  - name: t\n    columns: [{name: a, type: string, null: false, nul: true}]\n"))
	require.ErrorIs(t, err, ErrInvalidScript, "unknown keys are still rejected")
}

func TestParseScript_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown key":     "tables:\n  - name: t\n    colums: []\n",
		"missing name":    "tables:\n  - columns: [{name: a, type: string}]\n",
		"missing type":    "tables:\n  - name: t\n    columns: [{name: a}]\n",
		"empty index":     "tables:\n  - name: t\n    indexes: [{columns: []}]\n",
		"duplicate table": "tables:\n  - name: t\n  - name: t\n",
		"malformed":       "tables: [",
		"blank statement": "statements: ['']\n",
		"negative limit":  "tables:\n  - name: t\n    columns: [{name: a, type: string, limit: -1}]\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScript(strings.NewReader(doc))
			require.ErrorIs(t, err, ErrInvalidScript)
		})
	}
}

func TestParseScript_Empty(t *testing.T) {
	s, err := ParseScript(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, s.Tables)
}

func TestRender_PostgreSQL(t *testing.T) {
	s, err := ParseScript(strings.NewReader(usersScript))
	require.NoError(t, err)

	stmts, err := Render(s, adapter.PostgreSQL)
	require.NoError(t, err)
	require.Len(t, stmts, 4)

	assert.Equal(t, `CREATE TABLE "users" (
  "id" BIGSERIAL PRIMARY KEY,
  "email" VARCHAR(255) NOT NULL,
  "admin" BOOLEAN DEFAULT FALSE,
  "created_at" TIMESTAMP(6) NOT NULL,
  "updated_at" TIMESTAMP(6) NOT NULL
)`, stmts[0])
	assert.Equal(t, `CREATE TABLE "posts" (
  "id" BIGSERIAL PRIMARY KEY,
  "user_id" BIGINT,
  "price" DECIMAL(10,2),
  FOREIGN KEY ("user_id") REFERENCES "users" ("id")
)`, stmts[1])
	assert.Equal(t, `CREATE UNIQUE INDEX "index_users_on_email" ON "users" ("email")`, stmts[2])
	assert.True(t, strings.HasPrefix(stmts[3], "INSERT INTO users"))
}

func TestRender_DialectTypes(t *testing.T) {
	s := &Script{Tables: []Table{{
		Name:       "events",
		PrimaryKey: PrimaryKeyNone,
		Columns: []Column{
			{Name: "payload", Type: "json"},
			{Name: "code", Type: "string", Limit: 12},
			{Name: "raw", SQLType: "CHAR(3)"},
		},
	}}}

	tests := []struct {
		kind adapter.Kind
		want string
	}{
		{adapter.MySQL, "CREATE TABLE `events` (\n  `payload` JSON,\n  `code` VARCHAR(12),\n  `raw` CHAR(3)\n)"},
		{adapter.SQLite, "CREATE TABLE \"events\" (\n  \"payload\" TEXT,\n  \"code\" VARCHAR(12),\n  \"raw\" CHAR(3)\n)"},
		{adapter.SQLServer, "CREATE TABLE [events] (\n  [payload] NVARCHAR(MAX),\n  [code] NVARCHAR(12),\n  [raw] CHAR(3)\n)"},
		{adapter.Oracle, "CREATE TABLE events (\n  payload CLOB,\n  code VARCHAR2(12),\n  raw CHAR(3)\n)"},
		{adapter.Firebird, "CREATE TABLE events (\n  payload BLOB SUB_TYPE TEXT,\n  code VARCHAR(12),\n  raw CHAR(3)\n)"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			stmts, err := Render(s, tt.kind)
			require.NoError(t, err)
			require.Len(t, stmts, 1)
			assert.Equal(t, tt.want, stmts[0])
		})
	}
}

func TestRender_UnknownType(t *testing.T) {
	s := &Script{Tables: []Table{{Name: "t", Columns: []Column{{Name: "a", Type: "geometry"}}}}}
	_, err := Render(s, adapter.SQLite)
	require.ErrorIs(t, err, ErrInvalidScript)
}

func TestRender_UnsupportedAdapter(t *testing.T) {
	_, err := Render(&Script{}, adapter.Unsupported)
	require.Error(t, err)
}

func TestSplitDump(t *testing.T) {
	dump := "CREATE TABLE a (id INT);\n\nCREATE TABLE b (id INT);\n\n\n"
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)"}, SplitDump(dump))
}
