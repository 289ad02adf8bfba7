package backend

import (
	"context"
	"fmt"

	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/conn"
)

// MaintenanceDatabase is the database administrative PostgreSQL connections use.
const MaintenanceDatabase = "postgres"

type postgresDialect struct{}

func (postgresDialect) adminDescriptor(as config.Descriptor) config.Descriptor {
	admin := as.WithDatabase(MaintenanceDatabase)
	admin.SchemaSearchPath = "public"
	return admin
}

// drop terminates other sessions on the target first; DROP DATABASE fails
// while any are connected.
func (p postgresDialect) drop(ctx context.Context, h *conn.Handle, d config.Descriptor) error {
	s, err := h.Establish(ctx, p.adminDescriptor(d))
	if err != nil {
		return err
	}

	const terminate = `SELECT pg_terminate_backend(pid) FROM pg_stat_activity
WHERE datname = $1 AND pid <> pg_backend_pid()`
	if _, err := s.ExecContext(ctx, terminate, d.Database); err != nil {
		return fmt.Errorf("failed to terminate sessions on %q: %w", d.Database, err)
	}

	return execAll(ctx, s, "DROP DATABASE IF EXISTS "+quoteDouble(d.Database))
}

func (postgresDialect) create(ctx context.Context, s conn.Session, d config.Descriptor, opts Options) error {
	return execAll(ctx, s, fmt.Sprintf("CREATE DATABASE %s ENCODING %s",
		quoteDouble(d.Database), quoteLiteral(opts.Encoding)))
}

func (postgresDialect) grant(ctx context.Context, s conn.Session, d config.Descriptor) error {
	return execAll(ctx, s,
		fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s", quoteDouble(d.Database), quoteDouble(d.Username)),
		fmt.Sprintf("ALTER DATABASE %s OWNER TO %s", quoteDouble(d.Database), quoteDouble(d.Username)),
	)
}
