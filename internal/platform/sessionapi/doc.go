// Package sessionapi is the HTTP client for the external session endpoint.
// It opens and closes work sessions for timer runs and resolves category
// hourly rates. Every request carries an HS256 bearer token for the
// configured user.
package sessionapi
