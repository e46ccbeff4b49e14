package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/tempo/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func newTestService(t *testing.T, secret string, lifetime time.Duration, now time.Time) JWTService {
	t.Helper()
	svc, err := newHMACService(secret, lifetime, func() time.Time { return now })
	require.NoError(t, err)
	return svc
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetime: time.Minute})
	assert.ErrorIs(t, err, ErrSecretTooShort)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetime: time.Minute})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()
	fixedTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, testSecret, time.Hour, fixedTime)

	token, err := svc.GenerateToken(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	_, err = svc.GenerateToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()
	fixedTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	lifetime := time.Hour

	tests := []struct {
		name      string
		setupFunc func(t *testing.T) (JWTService, string)
		wantErr   error
	}{
		{
			name: "valid token",
			setupFunc: func(t *testing.T) (JWTService, string) {
				svc := newTestService(t, testSecret, lifetime, fixedTime)
				token, err := svc.GenerateToken(context.Background(), "user-1")
				require.NoError(t, err)
				return svc, token
			},
		},
		{
			name: "expired token",
			setupFunc: func(t *testing.T) (JWTService, string) {
				gen := newTestService(t, testSecret, lifetime, fixedTime)
				token, err := gen.GenerateToken(context.Background(), "user-1")
				require.NoError(t, err)
				return newTestService(t, testSecret, lifetime, fixedTime.Add(lifetime+time.Hour)), token
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "issued in the future",
			setupFunc: func(t *testing.T) (JWTService, string) {
				gen := newTestService(t, testSecret, lifetime, fixedTime.Add(time.Hour))
				token, err := gen.GenerateToken(context.Background(), "user-1")
				require.NoError(t, err)
				return newTestService(t, testSecret, lifetime, fixedTime), token
			},
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "invalid signature",
			setupFunc: func(t *testing.T) (JWTService, string) {
				gen := newTestService(t, testSecret, lifetime, fixedTime)
				token, err := gen.GenerateToken(context.Background(), "user-1")
				require.NoError(t, err)
				return newTestService(t, "wrong-secret-that-is-long-enough-for-testing", lifetime, fixedTime), token
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong issuer",
			setupFunc: func(t *testing.T) (JWTService, string) {
				claims := jwt.RegisteredClaims{
					Issuer:    "someone-else",
					Subject:   "user-1",
					ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
				}
				token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
				require.NoError(t, err)
				return newTestService(t, testSecret, lifetime, fixedTime), token
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "malformed token",
			setupFunc: func(t *testing.T) (JWTService, string) {
				return newTestService(t, testSecret, lifetime, fixedTime), "this.is.not.a.valid.jwt.token"
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing token",
			setupFunc: func(t *testing.T) (JWTService, string) {
				return newTestService(t, testSecret, lifetime, fixedTime), ""
			},
			wantErr: ErrMissingToken,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, token := tt.setupFunc(t)
			claims, err := svc.ValidateToken(context.Background(), token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", claims.Subject)
		})
	}
}
