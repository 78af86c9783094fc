package handler

import (
	"time"

	"github.com/fieldbook/backend/internal/infrastructure/auth"
	"github.com/fieldbook/backend/internal/infrastructure/logger"
	"github.com/fieldbook/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler revokes access tokens. Tokens are issued by the identity
// provider; this service only validates and revokes them.
type AuthHandler struct {
	BaseHandler
	blacklist auth.TokenBlacklist
	// tokenTTL bounds how long an owner-wide revocation must be remembered
	tokenTTL time.Duration
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(blacklist auth.TokenBlacklist, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		blacklist: blacklist,
		tokenTTL:  tokenTTL,
	}
}

// LogoutData reports what a logout revoked
type LogoutData struct {
	Revoked string `json:"revoked"`
}

// Logout godoc
// @ID           logout
// @Summary      Revoke the current access token
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[LogoutData]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	ttl := claims.RemainingTTL()
	if ttl > 0 {
		if err := h.blacklist.Revoke(c.Request.Context(), claims.ID, ttl); err != nil {
			logger.L(c.Request.Context()).Error("Failed to revoke token", zap.String("jti", claims.ID), zap.Error(err))
			h.InternalError(c, "Failed to revoke token")
			return
		}
	}
	h.Success(c, LogoutData{Revoked: "token"})
}

// LogoutAll revokes every token issued to the owner so far
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.blacklist.RevokeOwner(c.Request.Context(), claims.OwnerID, h.tokenTTL); err != nil {
		logger.L(c.Request.Context()).Error("Failed to revoke owner tokens", zap.Error(err))
		h.InternalError(c, "Failed to revoke tokens")
		return
	}
	h.Success(c, LogoutData{Revoked: "all"})
}
