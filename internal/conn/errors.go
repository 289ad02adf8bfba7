package conn

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/sijms/go-ora/v2/network"
)

// ErrAccessDenied marks failures caused by the server refusing the configured
// credentials or privileges. Connectors that cannot surface a driver error may
// wrap it directly.
var ErrAccessDenied = errors.New("access denied")

// Server error codes that mean "these credentials may not do this".
const (
	mysqlDBAccessDenied   = 1044 // ER_DBACCESS_DENIED_ERROR
	mysqlAccessDenied     = 1045 // ER_ACCESS_DENIED_ERROR
	mysqlSpecificAccess   = 1227 // ER_SPECIFIC_ACCESS_DENIED_ERROR
	pgInvalidAuthSpec     = "28000"
	pgInvalidPassword     = "28P01"
	pgInsufficientPriv    = "42501"
	mssqlLoginFailed      = 18456
	mssqlPermissionDenied = 262
	oraInvalidLogin       = 1017
	oraInsufficientPriv   = 1031
	oraNoCreateSession    = 1045
)

// IsAccessDenied reports whether err is an authentication or authorisation
// failure, as opposed to any other connection or statement failure. It is the
// only condition that triggers credential escalation.
func IsAccessDenied(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAccessDenied) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDBAccessDenied, mysqlAccessDenied, mysqlSpecificAccess:
			return true
		}
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgInvalidAuthSpec, pgInvalidPassword, pgInsufficientPriv:
			return true
		}
		return false
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return msErr.Number == mssqlLoginFailed || msErr.Number == mssqlPermissionDenied
	}

	var oraErr *network.OracleError
	if errors.As(err, &oraErr) {
		switch oraErr.ErrCode {
		case oraInvalidLogin, oraInsufficientPriv, oraNoCreateSession:
			return true
		}
	}

	return false
}
