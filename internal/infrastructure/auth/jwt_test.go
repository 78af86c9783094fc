package auth

import (
	"testing"
	"time"

	"github.com/fieldbook/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                testSecret,
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "fieldbook-test",
	})
}

func TestNewJWTService(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:                "test-secret",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}

	svc := NewJWTService(cfg)

	assert.Equal(t, []byte(cfg.Secret), svc.secret)
	assert.Equal(t, cfg.AccessTokenExpiration, svc.expiration)
	assert.Equal(t, cfg.Issuer, svc.issuer)
	assert.NotNil(t, svc.parser)
}

func TestValidateAccessToken_Success(t *testing.T) {
	svc := newTestJWTService()
	ownerID := uuid.New()

	token, expiresAt, err := svc.GenerateAccessToken(ownerID, "pat@example.com")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	got, err := claims.OwnerUUID()
	require.NoError(t, err)
	assert.Equal(t, ownerID, got)
	assert.Equal(t, "pat@example.com", claims.Email)
	assert.Equal(t, ownerID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.False(t, claims.IssuedAtTime().IsZero())
	assert.Greater(t, claims.RemainingTTL(), 14*time.Minute)
}

func TestValidateAccessToken_Errors(t *testing.T) {
	svc := newTestJWTService()

	sign := func(t *testing.T, claims *Claims, secret string) string {
		t.Helper()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	registered := func(offset time.Duration) jwt.RegisteredClaims {
		now := time.Now()
		return jwt.RegisteredClaims{
			Issuer:    "fieldbook-test",
			ExpiresAt: jwt.NewNumericDate(now.Add(offset + time.Hour)),
			NotBefore: jwt.NewNumericDate(now.Add(offset)),
			IssuedAt:  jwt.NewNumericDate(now),
		}
	}

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "garbage",
			token:   func(t *testing.T) string { return "invalid-token" },
			wantErr: ErrInvalidToken,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return sign(t, &Claims{RegisteredClaims: registered(-2 * time.Hour), OwnerID: uuid.NewString()}, testSecret)
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "not yet valid",
			token: func(t *testing.T) string {
				return sign(t, &Claims{RegisteredClaims: registered(time.Hour), OwnerID: uuid.NewString()}, testSecret)
			},
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "different secret",
			token: func(t *testing.T) string {
				return sign(t, &Claims{RegisteredClaims: registered(0), OwnerID: uuid.NewString()}, "another-secret-key-of-32-chars!!")
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing owner",
			token: func(t *testing.T) string {
				return sign(t, &Claims{RegisteredClaims: registered(0)}, testSecret)
			},
			wantErr: ErrMissingOwnerID,
		},
		{
			name: "malformed owner",
			token: func(t *testing.T) string {
				return sign(t, &Claims{RegisteredClaims: registered(0), OwnerID: "not-a-uuid"}, testSecret)
			},
			wantErr: ErrInvalidClaims,
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				rc := registered(0)
				rc.Issuer = "someone-else"
				return sign(t, &Claims{RegisteredClaims: rc, OwnerID: uuid.NewString()}, testSecret)
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "no expiry",
			token: func(t *testing.T) string {
				rc := registered(0)
				rc.ExpiresAt = nil
				return sign(t, &Claims{RegisteredClaims: rc, OwnerID: uuid.NewString()}, testSecret)
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "within clock skew",
			token: func(t *testing.T) string {
				return sign(t, &Claims{RegisteredClaims: registered(10 * time.Second), OwnerID: uuid.NewString()}, testSecret)
			},
			wantErr: nil,
		},
		{
			name: "unsigned",
			token: func(t *testing.T) string {
				token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{RegisteredClaims: registered(0), OwnerID: uuid.NewString()}).
					SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return token
			},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token(t))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClaims_RemainingTTL(t *testing.T) {
	assert.Zero(t, (&Claims{}).RemainingTTL())

	past := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}}
	assert.Zero(t, past.RemainingTTL())
}
