package backend

import (
	"context"
	"fmt"

	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/conn"
)

// OptionGrantHost is the host part of the account granted privileges after
// escalation. Defaults to localhost.
const OptionGrantHost = conn.OptionGrantHost

type mysqlDialect struct{}

// adminDescriptor connects without selecting a database.
func (mysqlDialect) adminDescriptor(as config.Descriptor) config.Descriptor {
	return as.WithDatabase("")
}

func (m mysqlDialect) drop(ctx context.Context, h *conn.Handle, d config.Descriptor) error {
	s, err := h.Establish(ctx, m.adminDescriptor(d))
	if err != nil {
		return err
	}
	return execAll(ctx, s, "DROP DATABASE IF EXISTS "+quoteBacktick(d.Database))
}

func (mysqlDialect) create(ctx context.Context, s conn.Session, d config.Descriptor, opts Options) error {
	return execAll(ctx, s, fmt.Sprintf("CREATE DATABASE %s DEFAULT CHARACTER SET %s COLLATE %s",
		quoteBacktick(d.Database), opts.Charset, opts.Collation))
}

func (mysqlDialect) grant(ctx context.Context, s conn.Session, d config.Descriptor) error {
	host := d.Option(OptionGrantHost)
	if host == "" {
		host = "localhost"
	}
	account := quoteLiteral(d.Username) + "@" + quoteLiteral(host)

	return execAll(ctx, s,
		fmt.Sprintf("CREATE USER IF NOT EXISTS %s IDENTIFIED BY %s", account, quoteLiteral(d.Password)),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON %s.* TO %s WITH GRANT OPTION", quoteBacktick(d.Database), account),
	)
}
