// Package migrate applies versioned SQL migrations gathered from one or more
// directories. PostgreSQL, MySQL, SQLite and SQL Server run through goose;
// Oracle and Firebird, which goose does not support, use a small record-table
// engine that reads the same goose annotations.
package migrate
