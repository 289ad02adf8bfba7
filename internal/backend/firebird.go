package backend

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/conn"
)

type firebirdDialect struct{}

// adminDescriptor asks the driver to create the database file on connect.
func (firebirdDialect) adminDescriptor(as config.Descriptor) config.Descriptor {
	return as.WithOption(conn.OptionCreateDatabase, "true")
}

const firebirdDropObjects = `EXECUTE BLOCK AS
  DECLARE VARIABLE rel VARCHAR(63);
  DECLARE VARIABLE obj VARCHAR(63);
BEGIN
  FOR SELECT TRIM(RDB$RELATION_NAME), TRIM(RDB$CONSTRAINT_NAME) FROM RDB$RELATION_CONSTRAINTS
      WHERE RDB$CONSTRAINT_TYPE = 'FOREIGN KEY' INTO :rel, :obj DO
    EXECUTE STATEMENT 'ALTER TABLE "' || :rel || '" DROP CONSTRAINT "' || :obj || '"';
  FOR SELECT TRIM(RDB$RELATION_NAME) FROM RDB$RELATIONS
      WHERE COALESCE(RDB$SYSTEM_FLAG, 0) = 0 AND RDB$VIEW_BLR IS NOT NULL INTO :obj DO
    EXECUTE STATEMENT 'DROP VIEW "' || :obj || '"';
  FOR SELECT TRIM(RDB$RELATION_NAME) FROM RDB$RELATIONS
      WHERE COALESCE(RDB$SYSTEM_FLAG, 0) = 0 AND RDB$VIEW_BLR IS NULL INTO :obj DO
    EXECUTE STATEMENT 'DROP TABLE "' || :obj || '"';
  FOR SELECT TRIM(RDB$GENERATOR_NAME) FROM RDB$GENERATORS
      WHERE COALESCE(RDB$SYSTEM_FLAG, 0) = 0 INTO :obj DO
    EXECUTE STATEMENT 'DROP SEQUENCE "' || :obj || '"';
END`

// drop deletes the database file when the server is local and the database
// is named by an absolute path. Otherwise the file is out of reach (a remote
// server or a server-side alias), so every user object is dropped instead; a
// database the server reports as missing is treated as absent.
func (firebirdDialect) drop(ctx context.Context, h *conn.Handle, d config.Descriptor) error {
	if d.LocalHost() && filepath.IsAbs(d.Database) {
		if err := os.Remove(d.Database); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}

	s, err := h.Establish(ctx, d)
	if isFirebirdMissing(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return execAll(ctx, s, firebirdDropObjects)
}

// isFirebirdMissing reports whether err is the server's failure to open a
// database file that does not exist (isc_io_error on open).
func isFirebirdMissing(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "error while trying to open file") ||
		strings.Contains(msg, `i/o error during "open"`) ||
		strings.Contains(msg, "no such file or directory")
}

// create has nothing to do: connecting through adminDescriptor created the file.
func (firebirdDialect) create(context.Context, conn.Session, config.Descriptor, Options) error {
	return nil
}

// grant is a no-op. Firebird privileges are per object, and the objects do
// not exist until the schema is loaded.
func (firebirdDialect) grant(context.Context, conn.Session, config.Descriptor) error {
	return nil
}
