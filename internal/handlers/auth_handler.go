package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"natours/internal/middleware"
	"natours/internal/services"
	"natours/internal/utils"
	"natours/internal/validators"
	"natours/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CookieConfig controls the jwt cookie set alongside every issued token.
type CookieConfig struct {
	MaxAge time.Duration
	Secure bool
}

type AuthHandler struct {
	auth    services.AuthService
	cookie  CookieConfig
	baseURL string
	logger  *logger.Logger
}

// NewAuthHandler builds the handler. An empty baseURL makes links in mails
// point at the host the request came in on.
func NewAuthHandler(auth services.AuthService, cookie CookieConfig, baseURL string, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		cookie:  cookie,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Signup creates a user account
func (h *AuthHandler) Signup(c *gin.Context) {
	var req validators.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.auth.Signup(c.Request.Context(), &req, h.publicURL(c)+"/me")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.sendToken(c, http.StatusCreated, result)
}

// Login exchanges email and password for a token
func (h *AuthHandler) Login(c *gin.Context) {
	var req validators.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.sendToken(c, http.StatusOK, result)
}

// Logout overwrites the jwt cookie with a short-lived placeholder
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.TokenCookieName, utils.LoggedOutCookieBody, 10, "/", "", h.secure(c), true)
	utils.SuccessResponse(c, nil)
}

// ForgotPassword mails a reset link to the account owner
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req validators.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	base := h.publicURL(c)
	err := h.auth.ForgotPassword(c.Request.Context(), req.Email, func(token string) string {
		return fmt.Sprintf("%s/api/v1/users/resetPassword/%s", base, token)
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.MessageResponse(c, "Token sent to email!")
}

// ResetPassword sets a new password using the token from the reset link
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req validators.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.sendToken(c, http.StatusOK, result)
}

// UpdateMyPassword changes the current user's password
func (h *AuthHandler) UpdateMyPassword(c *gin.Context) {
	var req validators.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	user := middleware.CurrentUser(c)
	result, err := h.auth.UpdatePassword(c.Request.Context(), user.ID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.sendToken(c, http.StatusOK, result)
}

func (h *AuthHandler) sendToken(c *gin.Context, status int, result *services.AuthResult) {
	maxAge := h.cookie.MaxAge
	if maxAge <= 0 {
		maxAge = h.auth.TokenTTL()
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.TokenCookieName, result.Token, int(maxAge/time.Second), "/", "", h.secure(c), true)
	utils.TokenResponse(c, status, result.Token, gin.H{"user": result.User})
}

func (h *AuthHandler) secure(c *gin.Context) bool {
	return h.cookie.Secure || c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
}

func (h *AuthHandler) publicURL(c *gin.Context) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
