// Package sqlite provides a unified SQLite-based implementation of the
// driven storage ports.
//
// It uses modernc.org/sqlite, a pure Go SQLite build, so the binary needs
// no CGO. A single database file backs:
//
//   - SourceStore: native and virtual sources
//   - DocumentStore: stored items and their chunks
//   - JobStore: ingestion jobs
//   - SearchEngine: FTS5 keyword search over chunks
//   - VectorIndex: exact cosine search over chunk embeddings
//   - SchedulerStore: scheduled task state and history
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files and is applied in its own transaction.
//
// # Concurrency
//
// The database runs in WAL mode with a busy timeout, so the serve process
// and one-shot CLI commands can share it. Uniqueness of virtual sources and
// of (owner, canonical URL) is enforced by indexes, not by callers.
package sqlite
