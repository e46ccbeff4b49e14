// Package postgres stores the sessions of the reference session endpoint in
// PostgreSQL. It opens connections through the pgx database/sql driver,
// applies the embedded goose migrations and maps PostgreSQL error codes onto
// the store package's sentinel errors.
package postgres
