package backend

import (
	"context"
	"fmt"

	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/conn"
)

type sqlserverDialect struct{}

func (sqlserverDialect) adminDescriptor(as config.Descriptor) config.Descriptor {
	return as.WithDatabase("master")
}

func (m sqlserverDialect) drop(ctx context.Context, h *conn.Handle, d config.Descriptor) error {
	s, err := h.Establish(ctx, m.adminDescriptor(d))
	if err != nil {
		return err
	}

	name := quoteBracket(d.Database)
	return execAll(ctx, s, fmt.Sprintf(`IF DB_ID(%s) IS NOT NULL
BEGIN
	ALTER DATABASE %s SET SINGLE_USER WITH ROLLBACK IMMEDIATE;
	DROP DATABASE %s;
END`, "N"+quoteLiteral(d.Database), name, name))
}

// create applies a collation only when one is configured; the MySQL-style
// default is not a SQL Server collation.
func (sqlserverDialect) create(ctx context.Context, s conn.Session, d config.Descriptor, _ Options) error {
	stmt := "CREATE DATABASE " + quoteBracket(d.Database)
	if d.Collation != "" {
		stmt += " COLLATE " + d.Collation
	}
	return execAll(ctx, s, stmt)
}

func (sqlserverDialect) grant(ctx context.Context, s conn.Session, d config.Descriptor) error {
	user := quoteBracket(d.Username)
	return execAll(ctx, s, fmt.Sprintf(`USE %s;
IF USER_ID(%s) IS NULL CREATE USER %s FOR LOGIN %s;
ALTER ROLE db_owner ADD MEMBER %s;`,
		quoteBracket(d.Database), "N"+quoteLiteral(d.Username), user, user, user))
}
