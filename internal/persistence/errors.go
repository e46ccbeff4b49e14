package persistence

import "errors"

// ErrMalformedSnapshot describes persisted data that cannot be used. Load
// functions log it and fall back to fresh state instead of returning it.
var ErrMalformedSnapshot = errors.New("malformed snapshot")
