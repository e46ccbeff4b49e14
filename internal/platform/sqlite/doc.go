// Package sqlite provides a durable store.KVStore backed by an embedded
// SQLite database (modernc.org/sqlite, no cgo). The schema is managed with
// goose migrations embedded in the binary.
package sqlite
