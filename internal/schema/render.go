package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phrazzld/dbsetup/internal/adapter"
)

const defaultStringLimit = 255

type dialect struct {
	quote      func(string) string
	primaryKey string
	types      map[string]string
	boolean    [2]string // false, true literals
}

var (
	quoteDouble = func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }
	quoteNone   = func(s string) string { return s }
)

var dialects = map[adapter.Kind]dialect{
	adapter.MySQL: {
		quote:      func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
		primaryKey: "BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY",
		types: map[string]string{
			"string": "VARCHAR(%d)", "text": "TEXT", "integer": "INT", "bigint": "BIGINT",
			"float": "DOUBLE", "decimal": "DECIMAL", "boolean": "TINYINT(1)", "date": "DATE",
			"datetime": "DATETIME(6)", "timestamp": "TIMESTAMP", "time": "TIME",
			"binary": "BLOB", "json": "JSON",
		},
		boolean: [2]string{"0", "1"},
	},
	adapter.PostgreSQL: {
		quote:      quoteDouble,
		primaryKey: "BIGSERIAL PRIMARY KEY",
		types: map[string]string{
			"string": "VARCHAR(%d)", "text": "TEXT", "integer": "INTEGER", "bigint": "BIGINT",
			"float": "DOUBLE PRECISION", "decimal": "DECIMAL", "boolean": "BOOLEAN", "date": "DATE",
			"datetime": "TIMESTAMP(6)", "timestamp": "TIMESTAMP(6)", "time": "TIME",
			"binary": "BYTEA", "json": "JSONB",
		},
		boolean: [2]string{"FALSE", "TRUE"},
	},
	adapter.SQLite: {
		quote:      quoteDouble,
		primaryKey: "INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL",
		types: map[string]string{
			"string": "VARCHAR(%d)", "text": "TEXT", "integer": "INTEGER", "bigint": "BIGINT",
			"float": "REAL", "decimal": "DECIMAL", "boolean": "BOOLEAN", "date": "DATE",
			"datetime": "DATETIME", "timestamp": "DATETIME", "time": "TIME",
			"binary": "BLOB", "json": "TEXT",
		},
		boolean: [2]string{"0", "1"},
	},
	adapter.SQLServer: {
		quote:      func(s string) string { return "[" + strings.ReplaceAll(s, "]", "]]") + "]" },
		primaryKey: "BIGINT IDENTITY(1,1) NOT NULL PRIMARY KEY",
		types: map[string]string{
			"string": "NVARCHAR(%d)", "text": "NVARCHAR(MAX)", "integer": "INT", "bigint": "BIGINT",
			"float": "FLOAT", "decimal": "DECIMAL", "boolean": "BIT", "date": "DATE",
			"datetime": "DATETIME2(6)", "timestamp": "DATETIME2(6)", "time": "TIME",
			"binary": "VARBINARY(MAX)", "json": "NVARCHAR(MAX)",
		},
		boolean: [2]string{"0", "1"},
	},
	// Oracle and Firebird fold unquoted names to upper case; quoting would
	// make every later reference case sensitive.
	adapter.Oracle: {
		quote:      quoteNone,
		primaryKey: "NUMBER(19) GENERATED BY DEFAULT ON NULL AS IDENTITY PRIMARY KEY",
		types: map[string]string{
			"string": "VARCHAR2(%d)", "text": "CLOB", "integer": "NUMBER(10)", "bigint": "NUMBER(19)",
			"float": "BINARY_DOUBLE", "decimal": "NUMBER", "boolean": "NUMBER(1)", "date": "DATE",
			"datetime": "TIMESTAMP(6)", "timestamp": "TIMESTAMP(6)", "time": "TIMESTAMP(6)",
			"binary": "BLOB", "json": "CLOB",
		},
		boolean: [2]string{"0", "1"},
	},
	adapter.Firebird: {
		quote:      quoteNone,
		primaryKey: "BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY",
		types: map[string]string{
			"string": "VARCHAR(%d)", "text": "BLOB SUB_TYPE TEXT", "integer": "INTEGER", "bigint": "BIGINT",
			"float": "DOUBLE PRECISION", "decimal": "DECIMAL", "boolean": "BOOLEAN", "date": "DATE",
			"datetime": "TIMESTAMP", "timestamp": "TIMESTAMP", "time": "TIME",
			"binary": "BLOB", "json": "BLOB SUB_TYPE TEXT",
		},
		boolean: [2]string{"FALSE", "TRUE"},
	},
}

// Render turns a script into the ordered DDL statements for kind: every
// CREATE TABLE, then every CREATE INDEX, then the raw statements.
func Render(s *Script, kind adapter.Kind) ([]string, error) {
	dl, ok := dialects[kind]
	if !ok {
		return nil, fmt.Errorf("no schema dialect for adapter %s", kind)
	}

	var tables, indexes []string
	for _, t := range s.Tables {
		stmt, err := dl.createTable(t)
		if err != nil {
			return nil, fmt.Errorf("%w: table %q: %v", ErrInvalidScript, t.Name, err)
		}
		tables = append(tables, stmt)

		for _, idx := range t.Indexes {
			indexes = append(indexes, dl.createIndex(t.Name, idx))
		}
	}

	out := make([]string, 0, len(tables)+len(indexes)+len(s.Statements))
	out = append(out, tables...)
	out = append(out, indexes...)
	out = append(out, s.Statements...)
	return out, nil
}

func (dl dialect) createTable(t Table) (string, error) {
	var defs []string

	switch t.PrimaryKey {
	case PrimaryKeyNone:
	case "":
		defs = append(defs, dl.quote("id")+" "+dl.primaryKey)
	default:
		defs = append(defs, dl.quote(t.PrimaryKey)+" "+dl.primaryKey)
	}

	columns := t.Columns
	if t.Timestamps {
		notNull := false
		columns = append(columns[:len(columns):len(columns)],
			Column{Name: "created_at", Type: "datetime", Null: &notNull},
			Column{Name: "updated_at", Type: "datetime", Null: &notNull},
		)
	}

	var foreignKeys []string
	for _, c := range columns {
		def, err := dl.column(c)
		if err != nil {
			return "", err
		}
		defs = append(defs, def)

		if c.References != "" {
			foreignKeys = append(foreignKeys, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
				dl.quote(c.Name), dl.quote(c.References), dl.quote("id")))
		}
	}
	defs = append(defs, foreignKeys...)

	if len(defs) == 0 {
		return "", fmt.Errorf("no columns")
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", dl.quote(t.Name), strings.Join(defs, ",\n  ")), nil
}

func (dl dialect) column(c Column) (string, error) {
	typ, err := dl.columnType(c)
	if err != nil {
		return "", err
	}

	def := dl.quote(c.Name) + " " + typ
	if c.Default != nil {
		lit, err := dl.literal(c.Default)
		if err != nil {
			return "", fmt.Errorf("column %q: %v", c.Name, err)
		}
		def += " DEFAULT " + lit
	}
	if !c.Nullable() {
		def += " NOT NULL"
	}
	return def, nil
}

func (dl dialect) columnType(c Column) (string, error) {
	if c.SQLType != "" {
		return c.SQLType, nil
	}

	typ, ok := dl.types[strings.ToLower(c.Type)]
	if !ok {
		return "", fmt.Errorf("column %q: unknown type %q", c.Name, c.Type)
	}

	switch {
	case strings.Contains(typ, "%d"):
		limit := c.Limit
		if limit == 0 {
			limit = defaultStringLimit
		}
		return fmt.Sprintf(typ, limit), nil
	case c.Precision > 0 && (typ == "DECIMAL" || typ == "NUMBER"):
		return fmt.Sprintf("%s(%d,%d)", typ, c.Precision, c.Scale), nil
	default:
		return typ, nil
	}
}

func (dl dialect) literal(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'", nil
	case bool:
		if val {
			return dl.boolean[1], nil
		}
		return dl.boolean[0], nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported default %v (%T)", v, v)
	}
}

func (dl dialect) createIndex(table string, idx Index) string {
	name := idx.Name
	if name == "" {
		name = "index_" + table + "_on_" + strings.Join(idx.Columns, "_and_")
	}

	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = dl.quote(c)
	}

	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", unique, dl.quote(name), dl.quote(table), strings.Join(cols, ", "))
}
