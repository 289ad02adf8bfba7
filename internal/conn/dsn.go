package conn

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "github.com/microsoft/go-mssqldb"
	_ "github.com/nakagami/firebirdsql"
	go_ora "github.com/sijms/go-ora/v2"
	_ "modernc.org/sqlite"

	"github.com/phrazzld/dbsetup/internal/adapter"
	"github.com/phrazzld/dbsetup/internal/config"
)

// OptionCreateDatabase asks the Firebird driver to create the database file on
// connect. It is consumed by DSN and never sent to the server.
const OptionCreateDatabase = "create_database"

// OptionGrantHost is the host part of the MySQL account granted privileges
// after escalation. It is read by the backend and never sent to the server.
const OptionGrantHost = "grant_host"

const firebirdCreateDriver = "firebirdsql_createdb"

var defaultPorts = map[adapter.Kind]int{
	adapter.MySQL:      3306,
	adapter.PostgreSQL: 5432,
	adapter.SQLServer:  1433,
	adapter.Oracle:     1521,
	adapter.Firebird:   3050,
}

// DSN returns the database/sql driver name and data source name for d.
func DSN(d config.Descriptor) (driver string, dsn string, err error) {
	switch d.Kind {
	case adapter.MySQL:
		return d.Kind.DriverName(), mysqlDSN(d), nil
	case adapter.PostgreSQL:
		return d.Kind.DriverName(), postgresDSN(d), nil
	case adapter.SQLite:
		return d.Kind.DriverName(), sqliteDSN(d), nil
	case adapter.SQLServer:
		return d.Kind.DriverName(), sqlserverDSN(d), nil
	case adapter.Oracle:
		return d.Kind.DriverName(), oracleDSN(d), nil
	case adapter.Firebird:
		driver := d.Kind.DriverName()
		if d.Option(OptionCreateDatabase) == "true" {
			driver = firebirdCreateDriver
		}
		return driver, firebirdDSN(d), nil
	default:
		return "", "", fmt.Errorf("no driver for adapter %q", d.AdapterName)
	}
}

func host(d config.Descriptor) string {
	if d.Host == "" {
		return "localhost"
	}
	return d.Host
}

func port(d config.Descriptor) int {
	if d.Port != 0 {
		return d.Port
	}
	return defaultPorts[d.Kind]
}

func hostPort(d config.Descriptor) string {
	return net.JoinHostPort(host(d), strconv.Itoa(port(d)))
}

// driverOptions returns d.Options minus keys consumed by this package, sorted by key.
func driverOptions(d config.Descriptor, consumed ...string) [][2]string {
	skip := map[string]bool{OptionCreateDatabase: true, OptionGrantHost: true}
	for _, k := range consumed {
		skip[k] = true
	}

	opts := make([][2]string, 0, len(d.Options))
	for k, v := range d.Options {
		if !skip[k] {
			opts = append(opts, [2]string{k, v})
		}
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i][0] < opts[j][0] })
	return opts
}

func mysqlDSN(d config.Descriptor) string {
	cfg := mysql.NewConfig()
	cfg.User = d.Username
	cfg.Passwd = d.Password
	cfg.DBName = d.Database
	cfg.MultiStatements = true
	cfg.ParseTime = true

	if socket := d.Option("socket"); socket != "" {
		cfg.Net = "unix"
		cfg.Addr = socket
	} else {
		cfg.Net = "tcp"
		cfg.Addr = hostPort(d)
	}

	if d.Collation != "" {
		cfg.Collation = d.Collation
	}

	params := map[string]string{}
	if d.Charset != "" {
		params["charset"] = d.Charset
	}
	for _, kv := range driverOptions(d, "socket") {
		params[kv[0]] = kv[1]
	}
	if len(params) > 0 {
		cfg.Params = params
	}

	return cfg.FormatDSN()
}

func postgresDSN(d config.Descriptor) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   hostPort(d),
		Path:   "/" + d.Database,
	}
	if d.Username != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.Username, d.Password)
		} else {
			u.User = url.User(d.Username)
		}
	}

	q := url.Values{}
	if d.SchemaSearchPath != "" {
		q.Set("search_path", d.SchemaSearchPath)
	}
	for _, kv := range driverOptions(d) {
		q.Set(kv[0], kv[1])
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func sqliteDSN(d config.Descriptor) string {
	path := d.Database
	if path == "" {
		path = ":memory:"
	}

	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	for _, kv := range driverOptions(d) {
		q.Add(kv[0], kv[1])
	}
	return path + "?" + q.Encode()
}

func sqlserverDSN(d config.Descriptor) string {
	u := url.URL{
		Scheme: "sqlserver",
		Host:   hostPort(d),
	}
	if d.Username != "" {
		u.User = url.UserPassword(d.Username, d.Password)
	}

	q := url.Values{}
	if d.Database != "" {
		q.Set("database", d.Database)
	}
	for _, kv := range driverOptions(d) {
		q.Set(kv[0], kv[1])
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func oracleDSN(d config.Descriptor) string {
	opts := make(map[string]string)
	for _, kv := range driverOptions(d) {
		opts[kv[0]] = kv[1]
	}
	return go_ora.BuildUrl(host(d), port(d), d.Database, d.Username, d.Password, opts)
}

func firebirdDSN(d config.Descriptor) string {
	var b strings.Builder
	b.WriteString(d.Username)
	if d.Password != "" {
		b.WriteString(":")
		b.WriteString(d.Password)
	}
	b.WriteString("@")
	b.WriteString(hostPort(d))
	if !strings.HasPrefix(d.Database, "/") {
		b.WriteString("/")
	}
	b.WriteString(d.Database)

	q := url.Values{}
	for _, kv := range driverOptions(d) {
		q.Set(kv[0], kv[1])
	}
	if len(q) > 0 {
		b.WriteString("?")
		b.WriteString(q.Encode())
	}
	return b.String()
}
