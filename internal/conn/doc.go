// Package conn is the connection layer used during provisioning: it builds
// driver DSNs from descriptors, establishes sessions, keeps exactly one current
// session per run, and classifies driver errors.
//
// Importing this package registers the database/sql drivers for every
// supported adapter family.
package conn
