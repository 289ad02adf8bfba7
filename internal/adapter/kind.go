// Package adapter names the database engine families that can be provisioned
// and maps configured adapter names onto them.
package adapter

import (
	"regexp"
	"strings"
)

// Kind is a closed set of supported adapter families. Unsupported is a real
// value: it is what Parse returns for names it does not recognise, so that
// callers can report the offending name instead of silently falling through.
type Kind int

const (
	Unsupported Kind = iota
	MySQL
	PostgreSQL
	SQLite
	SQLServer
	Oracle
	Firebird
)

var (
	mysqlPattern    = regexp.MustCompile(`mysql|trilogy`)
	postgresPattern = regexp.MustCompile(`^(jdbc)?(postgres|postgresql|postgis|pgx)$`)
	sqlitePattern   = regexp.MustCompile(`sqlite`)
)

// Parse matches an adapter name from configuration against the known families.
// Matching is case-insensitive and tolerant of the common driver spellings
// (mysql2, jdbcmysql, sqlite3, postgres, pgx, mssql, oci).
func Parse(name string) Kind {
	n := strings.ToLower(strings.TrimSpace(name))

	switch {
	case n == "":
		return Unsupported
	case mysqlPattern.MatchString(n):
		return MySQL
	case postgresPattern.MatchString(n):
		return PostgreSQL
	case sqlitePattern.MatchString(n):
		return SQLite
	case n == "sqlserver" || n == "mssql":
		return SQLServer
	case n == "oci" || n == "oracle" || n == "oracle_enhanced":
		return Oracle
	case n == "firebird" || n == "fb":
		return Firebird
	default:
		return Unsupported
	}
}

// String returns the canonical lower-case name of the family.
func (k Kind) String() string {
	switch k {
	case MySQL:
		return "mysql"
	case PostgreSQL:
		return "postgresql"
	case SQLite:
		return "sqlite"
	case SQLServer:
		return "sqlserver"
	case Oracle:
		return "oracle"
	case Firebird:
		return "firebird"
	default:
		return "unsupported"
	}
}

// Supported reports whether k names a family with a provisioning strategy.
func (k Kind) Supported() bool {
	return k != Unsupported
}

// FileBased reports whether the database lives in a local file that is
// created by opening a connection and destroyed by deleting the file.
func (k Kind) FileBased() bool {
	return k == SQLite
}

// DriverName is the database/sql driver name registered for the family.
func (k Kind) DriverName() string {
	switch k {
	case MySQL:
		return "mysql"
	case PostgreSQL:
		return "pgx"
	case SQLite:
		return "sqlite"
	case SQLServer:
		return "sqlserver"
	case Oracle:
		return "oracle"
	case Firebird:
		return "firebirdsql"
	default:
		return ""
	}
}
