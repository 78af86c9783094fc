package auth

import (
	"errors"
	"time"

	"github.com/fieldbook/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingOwnerID   = errors.New("missing owner_id in claims")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// clockSkew tolerates small clock differences with the identity provider
const clockSkew = 30 * time.Second

// Claims identifies the contractor (owner) a request acts for.
// Every document the request touches is scoped to OwnerID.
type Claims struct {
	jwt.RegisteredClaims
	OwnerID string `json:"owner_id"`
	Email   string `json:"email,omitempty"`
}

// Validate runs after the registered claims pass; jwt.Parser calls it
func (c *Claims) Validate() error {
	if c.OwnerID == "" {
		return ErrMissingOwnerID
	}
	if _, err := uuid.Parse(c.OwnerID); err != nil {
		return ErrInvalidClaims
	}
	return nil
}

// OwnerUUID parses OwnerID
func (c *Claims) OwnerUUID() (uuid.UUID, error) {
	return uuid.Parse(c.OwnerID)
}

// IssuedAtTime returns iat, or the zero time when absent
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// RemainingTTL is how long the token stays valid, never negative
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}

// JWTService validates HS256 access tokens issued by the identity provider.
// GenerateAccessToken exists for tests and local tooling.
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	parser     *jwt.Parser
}

// NewJWTService creates a new JWT service. A configured issuer must match
// the iss claim of every token.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: cfg.AccessTokenExpiration,
		issuer:     cfg.Issuer,
		parser:     jwt.NewParser(opts...),
	}
}

// GenerateAccessToken signs an access token for the owner
func (s *JWTService) GenerateAccessToken(ownerID uuid.UUID, email string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiration)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   ownerID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OwnerID: ownerID.String(),
		Email:   email,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateAccessToken verifies signature and claims. Errors are reduced to
// the package's sentinel errors so callers never see parser internals.
func (s *JWTService) ValidateAccessToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case errors.Is(err, ErrMissingOwnerID):
		return nil, ErrMissingOwnerID
	case errors.Is(err, ErrInvalidClaims):
		return nil, ErrInvalidClaims
	default:
		return nil, ErrInvalidToken
	}
}
