package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/internal/app/service"
	apperrors "github.com/ikkim/reviewfunnel-backend/internal/errors"
	"github.com/ikkim/reviewfunnel-backend/internal/middleware"
	"github.com/ikkim/reviewfunnel-backend/pkg/util"
)

type AuthController struct {
	authService  service.AuthService
	cookieName   string
	cookieSecure bool
}

func NewAuthController(authService service.AuthService, cookieName string, cookieSecure bool) *AuthController {
	return &AuthController{
		authService:  authService,
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":                 user.ID,
		"email":              user.Email,
		"name":               user.Name,
		"subscriptionTier":   user.PlanTier,
		"subscriptionStatus": user.PlanStatus,
		"createdAt":          user.CreatedAt,
	}
}

func (ctrl *AuthController) setSessionCookie(c *gin.Context, token *service.AuthToken) {
	maxAge := int(time.Until(token.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ctrl.cookieName, token.Token, maxAge, "/", "", ctrl.cookieSecure, true)
}

func (ctrl *AuthController) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ctrl.cookieName, "", -1, "/", "", ctrl.cookieSecure, true)
}

// Register handles owner sign-up
// POST /auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	user, token, err := ctrl.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			apperrors.BadRequest(c, apperrors.ValidationRequired, err.Error())
		case errors.Is(err, util.ErrPasswordTooShort):
			apperrors.BadRequest(c, apperrors.AuthPasswordTooShort, "Password must be at least 8 characters")
		case errors.Is(err, service.ErrEmailAlreadyExists):
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, err.Error())
		default:
			log.Error("Registration failed", err, map[string]interface{}{
				"email": req.Email,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "register user")
		}
		return
	}

	ctrl.setSessionCookie(c, token)

	c.JSON(http.StatusCreated, gin.H{
		"user":  userResponse(user),
		"token": token.Token,
	})
}

// Login handles owner login
// POST /auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	user, token, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			apperrors.BadRequest(c, apperrors.ValidationRequired, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, err.Error())
		default:
			log.Error("Login failed", err, map[string]interface{}{
				"email": req.Email,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "login")
		}
		return
	}

	ctrl.setSessionCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"user":  userResponse(user),
		"token": token.Token,
	})
}

// Logout clears the session cookie and revokes the token when possible
// POST /auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if token := c.GetString(middleware.TokenKey); token != "" {
		if err := ctrl.authService.Logout(c.Request.Context(), token); err != nil {
			// 쿠키는 항상 지움
			log.Warn("Token revoke failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	ctrl.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

// Verify returns the current owner
// GET /auth/verify
func (ctrl *AuthController) Verify(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}
