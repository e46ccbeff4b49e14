package auth

import "errors"

// Token errors. ValidateToken returns exactly one of the first three.
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken is used by callers that require a bearer token.
	ErrMissingToken = errors.New("authentication token is missing")

	ErrSecretTooShort = errors.New("jwt secret must be at least 32 characters")
)
