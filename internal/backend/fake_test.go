package backend

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/phrazzld/dbsetup/internal/config"
	"github.com/phrazzld/dbsetup/internal/conn"
)

// fakeServer simulates a database server reachable through conn.Handle.
type fakeServer struct {
	mu sync.Mutex

	// databases that exist.
	databases map[string]bool
	// passwords of accounts allowed to log in.
	accounts map[string]string
	// users allowed to run CREATE statements.
	creators map[string]bool
	// denyDrop restricts DROP to creators, as MySQL does for users without
	// global privileges.
	denyDrop bool

	established []config.Descriptor
	executed    []string
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		databases: map[string]bool{"": true, "postgres": true, "master": true},
		accounts:  map[string]string{},
		creators:  map[string]bool{},
	}
}

func (f *fakeServer) Establish(_ context.Context, d config.Descriptor) (conn.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.established = append(f.established, d)

	if pw, ok := f.accounts[d.Username]; !ok || pw != d.Password {
		return nil, conn.ErrAccessDenied
	}
	if !f.databases[d.Database] {
		return nil, errUnknownDatabase
	}
	return &fakeSession{server: f, user: d.Username}, nil
}

func (f *fakeServer) statements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.executed...)
}

type fakeError string

func (e fakeError) Error() string { return string(e) }

const errUnknownDatabase = fakeError("unknown database")

type fakeSession struct {
	server *fakeServer
	user   string
}

func (s *fakeSession) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	f := s.server
	f.mu.Lock()
	defer f.mu.Unlock()

	f.executed = append(f.executed, query)

	if strings.HasPrefix(query, "CREATE DATABASE") {
		if !f.creators[s.user] {
			return nil, conn.ErrAccessDenied
		}
		f.databases[createdName(query)] = true
	}
	if strings.HasPrefix(query, "DROP DATABASE IF EXISTS") {
		if f.denyDrop && !f.creators[s.user] {
			return nil, conn.ErrAccessDenied
		}
		delete(f.databases, createdName(query))
	}
	return nil, nil
}

func (s *fakeSession) PingContext(context.Context) error { return nil }
func (s *fakeSession) Close() error                      { return nil }

// createdName extracts the quoted database name from a CREATE or DROP statement.
func createdName(query string) string {
	for _, q := range []string{"`", `"`} {
		if i := strings.Index(query, q); i >= 0 {
			rest := query[i+1:]
			if j := strings.Index(rest, q); j >= 0 {
				return rest[:j]
			}
		}
	}
	return ""
}
