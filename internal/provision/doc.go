// Package provision orchestrates a test-database run: reset the database,
// load its schema, then apply pending migrations, with stdout silenced for
// the duration.
package provision
