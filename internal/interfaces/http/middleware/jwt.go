package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fieldbook/backend/internal/infrastructure/auth"
	"github.com/fieldbook/backend/internal/infrastructure/logger"
	"github.com/fieldbook/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTOwnerIDKey = "jwt_owner_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is optional; nil skips revocation checks
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths are exact paths served without a token
	SkipPaths []string
	// SkipPathPrefixes are path prefixes served without a token, such as
	// the public change order approval pages
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService:       jwtService,
		SkipPaths:        []string{"/health", "/ready", "/api/v1/health"},
		SkipPathPrefixes: []string{"/api/v1/public/"},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig authenticates the bearer token and stores the
// owner it names on both the gin and the request context
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if skipAuth(c.Request.URL.Path, cfg) {
			c.Next()
			return
		}

		tokenString, ok := bearerToken(c.GetHeader(AuthHeaderKey))
		if !ok {
			abortUnauthorized(c, log, auth.ErrInvalidToken)
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			abortUnauthorized(c, log, err)
			return
		}

		if cfg.TokenBlacklist != nil {
			ctx := c.Request.Context()
			revoked, err := cfg.TokenBlacklist.IsRevoked(ctx, claims.ID)
			if err == nil && !revoked {
				revoked, err = cfg.TokenBlacklist.IsOwnerRevoked(ctx, claims.OwnerID, claims.IssuedAtTime())
			}
			switch {
			case err != nil:
				// Fail open: a blacklist outage must not lock every owner out
				log.Error("Failed to check token revocation",
					zap.String("jti", claims.ID), zap.Error(err))
			case revoked:
				abortUnauthorized(c, log, auth.ErrTokenBlacklisted)
				return
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTOwnerIDKey, claims.OwnerID)

		ctx := c.Request.Context()
		ctx, _ = logger.WithOwnerID(ctx, logger.FromContext(ctx), claims.OwnerID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func skipAuth(path string, cfg JWTMiddlewareConfig) bool {
	for _, p := range cfg.SkipPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error) {
	code, message := "UNAUTHORIZED", "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		code, message = dto.ErrCodeTokenRevoked, "Token has been revoked"
	}

	log.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, c.GetString(RequestIDKey)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTOwnerID retrieves the owner ID from JWT claims in context
func GetJWTOwnerID(c *gin.Context) string {
	return c.GetString(JWTOwnerIDKey)
}
