// Package sqlite provides the SQLite implementation of driven.VersionStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Three tables are created: documents, chunks (append-only, unique per
// document, version and ordinal) and vectors (chunk to index row mapping).
//
// # Data Location
//
// By default, the database is stored at ~/.ragvault/data/metadata.db
//
// # Thread Safety
//
// All operations are thread-safe. Version claims run inside BEGIN IMMEDIATE
// transactions so two writers never observe the same max_version.
package sqlite
