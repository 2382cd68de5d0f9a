package middleware

import (
	"context"
	"strings"

	"natours/internal/models"
	"natours/internal/services"
	"natours/internal/utils"
	"natours/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	auth services.AuthService
}

func NewAuthMiddleware(auth services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Protect requires a valid token from the Authorization header or the jwt
// cookie and stores the resolved user on the context.
func (m *AuthMiddleware) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := m.auth.Authenticate(c.Request.Context(), ExtractToken(c))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		setCurrentUser(c, user)
		c.Next()
	}
}

// RestrictTo must run after Protect.
func (m *AuthMiddleware) RestrictTo(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.auth.Authorize(CurrentUser(c), roles...); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// IsLoggedIn resolves the cookie user for rendered pages. It never fails the
// request.
func (m *AuthMiddleware) IsLoggedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(utils.TokenCookieName)
		if err == nil && token != utils.LoggedOutCookieBody {
			if user, err := m.auth.Authenticate(c.Request.Context(), token); err == nil {
				setCurrentUser(c, user)
			}
		}
		c.Next()
	}
}

// ExtractToken prefers a bearer token and falls back to the jwt cookie.
func ExtractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, utils.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, utils.BearerPrefix))
	}
	if token, err := c.Cookie(utils.TokenCookieName); err == nil && token != utils.LoggedOutCookieBody {
		return token
	}
	return ""
}

// CurrentUser returns the user set by Protect or IsLoggedIn, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(utils.ContextUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func setCurrentUser(c *gin.Context, user *models.User) {
	c.Set(utils.ContextUserKey, user)
	ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, user.ID.Hex())
	c.Request = c.Request.WithContext(ctx)
}
