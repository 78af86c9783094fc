package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fieldbook/backend/internal/infrastructure/auth"
	"github.com/fieldbook/backend/internal/infrastructure/config"
	"github.com/fieldbook/backend/internal/infrastructure/logger"
	"github.com/fieldbook/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(ttl time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: ttl,
		Issuer:                "test-issuer",
	})
}

func newJWTRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), JWTAuthMiddlewareWithConfig(cfg))
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"owner_id":     GetJWTOwnerID(c),
			"ctx_owner_id": logger.GetOwnerID(c.Request.Context()),
		})
	}
	router.GET("/api/v1/estimates", handler)
	router.GET("/api/v1/public/change-orders/:token", handler)
	router.GET("/health", handler)
	return router
}

func doGet(router http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	ownerID := uuid.New()
	token, _, err := svc.GenerateAccessToken(ownerID, "pat@example.com")
	require.NoError(t, err)

	w := doGet(newJWTRouter(DefaultJWTConfig(svc)), "/api/v1/estimates", token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"owner_id":"`+ownerID.String()+`"`)
	assert.Contains(t, w.Body.String(), `"ctx_owner_id":"`+ownerID.String()+`"`)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	expired, _, err := newTestJWTService(-time.Minute).GenerateAccessToken(uuid.New(), "")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		code  string
	}{
		{"missing header", "", "UNAUTHORIZED"},
		{"garbage token", "not-a-jwt", "UNAUTHORIZED"},
		{"expired token", expired, dto.ErrCodeTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(newJWTRouter(DefaultJWTConfig(svc)), "/api/v1/estimates", tt.token)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			info := decodeError(t, w)
			assert.Equal(t, tt.code, info.Code)
			assert.NotEmpty(t, info.RequestID)
		})
	}
}

func TestJWTAuthMiddleware_SkipsPublicPaths(t *testing.T) {
	router := newJWTRouter(DefaultJWTConfig(newTestJWTService(time.Minute)))

	for _, path := range []string{"/health", "/api/v1/public/change-orders/abc"} {
		t.Run(path, func(t *testing.T) {
			w := doGet(router, path, "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"owner_id":""`)
		})
	}
}

func TestJWTAuthMiddleware_Blacklist(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	ownerID := uuid.New()
	token, _, err := svc.GenerateAccessToken(ownerID, "")
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	t.Run("revoked jti", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		require.NoError(t, blacklist.Revoke(context.Background(), claims.ID, time.Hour))

		cfg := DefaultJWTConfig(svc)
		cfg.TokenBlacklist = blacklist
		w := doGet(newJWTRouter(cfg), "/api/v1/estimates", token)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenRevoked, decodeError(t, w).Code)
	})

	t.Run("owner logged out everywhere", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		require.NoError(t, blacklist.RevokeOwner(context.Background(), ownerID.String(), time.Hour))

		cfg := DefaultJWTConfig(svc)
		cfg.TokenBlacklist = blacklist
		w := doGet(newJWTRouter(cfg), "/api/v1/estimates", token)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("other tokens unaffected", func(t *testing.T) {
		cfg := DefaultJWTConfig(svc)
		cfg.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
		w := doGet(newJWTRouter(cfg), "/api/v1/estimates", token)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetJWTClaims_Absent(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTOwnerID(c))
}
