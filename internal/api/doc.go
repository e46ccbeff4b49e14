// Package api exposes the engine over HTTP. Handlers decode and validate
// JSON bodies, call the timer registry and the task workflow, and translate
// errors into status codes without leaking internal details. The package
// also hosts the reference session endpoint the engine syncs runs to.
package api
