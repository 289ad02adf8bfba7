package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/conn"
)

// In Oracle the schema is the user: the database name is the service, and
// creating the "database" means creating the configured user.
type oracleDialect struct{}

func (oracleDialect) adminDescriptor(as config.Descriptor) config.Descriptor {
	return as
}

const oracleDropObjects = `BEGIN
  FOR o IN (SELECT object_name, object_type FROM user_objects
            WHERE object_type IN ('TABLE', 'VIEW', 'SEQUENCE', 'SYNONYM', 'PROCEDURE',
                                  'FUNCTION', 'PACKAGE', 'TYPE', 'MATERIALIZED VIEW')) LOOP
    BEGIN
      IF o.object_type = 'TABLE' THEN
        EXECUTE IMMEDIATE 'DROP TABLE "' || o.object_name || '" CASCADE CONSTRAINTS PURGE';
      ELSIF o.object_type = 'TYPE' THEN
        EXECUTE IMMEDIATE 'DROP TYPE "' || o.object_name || '" FORCE';
      ELSE
        EXECUTE IMMEDIATE 'DROP ' || o.object_type || ' "' || o.object_name || '"';
      END IF;
    EXCEPTION
      WHEN OTHERS THEN NULL;
    END;
  END LOOP;
END;`

// drop removes every object owned by the configured user. A user that cannot
// log in owns nothing reachable, so access denied is treated as absent.
func (oracleDialect) drop(ctx context.Context, h *conn.Handle, d config.Descriptor) error {
	s, err := h.Establish(ctx, d)
	if err != nil {
		if conn.IsAccessDenied(err) {
			return nil
		}
		return err
	}
	return execAll(ctx, s, oracleDropObjects)
}

func (oracleDialect) create(ctx context.Context, s conn.Session, d config.Descriptor, _ Options) error {
	return execAll(ctx, s, fmt.Sprintf("CREATE USER %s IDENTIFIED BY %s",
		oracleUser(d), quoteDouble(d.Password)))
}

func (oracleDialect) grant(ctx context.Context, s conn.Session, d config.Descriptor) error {
	return execAll(ctx, s, fmt.Sprintf("GRANT CONNECT, RESOURCE, UNLIMITED TABLESPACE TO %s",
		oracleUser(d)))
}

// oracleUser is the configured user as Oracle stores an unquoted name.
func oracleUser(d config.Descriptor) string {
	return quoteDouble(strings.ToUpper(d.Username))
}
