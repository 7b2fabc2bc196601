// Package archive provides durable backends for audit records.
//
// The in-process audit log keeps only the most recent records. An archive
// keeps everything the recorder mirrors into it until retention prunes it.
//
// Two backends are provided:
//
//   - MemoryArchive: map-backed, for tests and single-process use
//   - SQLiteArchive: file-backed SQLite with WAL mode
//
// SQLiteArchive works with either SQLite driver. The pure-Go
// modernc.org/sqlite driver ("sqlite") is the default; the cgo
// github.com/mattn/go-sqlite3 driver ("sqlite3") can be selected with
// SQLiteConfig.Driver.
//
// Records are stored as JSON alongside indexed columns used for filtering.
// The write-once part of the record and the mutable outcome block live in
// separate columns, so outcome updates never rewrite the sealed fields.
package archive
