// Package history persists a record of every ticket run in a local SQLite
// database so past submissions can be listed and looked up by issue key.
//
// The store uses WAL journaling and retries SQLITE_BUSY errors so the CLI and
// a running server can share one database file.
package history
