package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	apperrors "github.com/ikkim/reviewfunnel-backend/internal/errors"
	"github.com/ikkim/reviewfunnel-backend/pkg/util"
)

// Context keys for owner information
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserKey      = "user"
	TokenKey     = "auth_token"
)

// TokenVerifier resolves a session token to its owner (service.AuthService)
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*model.User, error)
}

type AuthMiddleware struct {
	verifier   TokenVerifier
	cookieName string
}

func NewAuthMiddleware(verifier TokenVerifier, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:   verifier,
		cookieName: cookieName,
	}
}

// TokenFromRequest reads the session cookie first, then "Authorization: Bearer <token>".
// WebSocket upgrades may also pass ?token=.
func (m *AuthMiddleware) TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(m.cookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}

	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query("token")
	}
	return ""
}

// Authenticate validates the session token (required)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token := m.TokenFromRequest(c)
		if token == "" {
			log.Warn("Missing session token", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.Unauthorized(c, "Not authenticated")
			c.Abort()
			return
		}

		user, err := m.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			switch {
			case errors.Is(err, util.ErrExpiredToken):
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "Session expired")
			case errors.Is(err, util.ErrInvalidToken):
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid session")
			default:
				apperrors.Unauthorized(c, "Not authenticated")
			}
			c.Abort()
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UserEmailKey, user.Email)
		c.Set(UserKey, user)
		c.Set(TokenKey, token)

		log.Debug("Owner authenticated", map[string]interface{}{
			"user_id": user.ID,
		})

		c.Next()
	}
}

// OptionalAuthenticate sets owner info when a valid token is present
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.TokenFromRequest(c)
		if token == "" {
			c.Next()
			return
		}

		user, err := m.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			GetLoggerFromContext(c).Debug("Token validation failed - continuing as guest", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UserEmailKey, user.Email)
		c.Set(UserKey, user)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUser extracts the authenticated owner from context
func GetUser(c *gin.Context) (*model.User, bool) {
	user, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}
