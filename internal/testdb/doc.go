// Package testdb provides helpers for PostgreSQL integration tests. Tests
// that need a database call GetTestDB, which skips them unless DATABASE_URL
// or TEMPO_TEST_DB_URL is set.
package testdb
