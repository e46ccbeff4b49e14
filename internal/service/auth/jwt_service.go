// Package auth signs and verifies the HS256 bearer tokens exchanged with the
// session endpoint.
package auth

import (
	"context"
	"time"
)

// JWTService issues tokens to the session client and checks them on the
// session endpoint. Both sides share one secret.
type JWTService interface {
	// GenerateToken signs a token whose subject is the user id.
	GenerateToken(ctx context.Context, subject string) (string, error)

	// ValidateToken verifies signature, issuer and time claims.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is what a valid token says about its bearer.
type Claims struct {
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
