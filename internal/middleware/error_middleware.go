package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"natours/internal/apperrors"
	"natours/internal/utils"
	"natours/pkg/logger"

	"github.com/gin-gonic/gin"
)

type devError struct {
	Code   string `json:"code"`
	Cause  string `json:"cause,omitempty"`
	Origin string `json:"origin,omitempty"`
}

// ErrorHandler renders the last error a handler attached with c.Error. In
// production only operational messages reach the client.
func ErrorHandler(log *logger.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		renderError(c, log, production, c.Errors.Last().Err, "")
	}
}

// Recovery turns a panic into a non-operational 500 rendered by the same
// path as ordinary errors.
func Recovery(log *logger.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := string(debug.Stack())
				log.WithContext(c.Request.Context()).
					WithField("panic", fmt.Sprint(rec)).
					WithField("stack", stack).
					Error("panic recovered")

				if c.Writer.Written() {
					c.Abort()
					return
				}
				renderError(c, log, production, apperrors.Wrap(fmt.Errorf("panic: %v", rec)), stack)
			}
		}()
		c.Next()
	}
}

// NotFound handles unmatched routes.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(apperrors.NotFound(fmt.Sprintf("Can't find %s on this server!", c.Request.URL.Path)))
	}
}

func renderError(c *gin.Context, log *logger.Logger, production bool, err error, stack string) {
	appErr := apperrors.Map(err)

	entry := log.WithContext(c.Request.Context()).WithFields(map[string]interface{}{
		"status_code": appErr.StatusCode,
		"code":        appErr.Code,
		"path":        c.Request.URL.Path,
	})
	if origin := appErr.Origin(); origin != "" {
		entry = entry.WithField("origin", origin)
	}
	switch {
	case !appErr.Operational:
		entry.WithError(err).Error("unexpected error")
	case appErr.StatusCode >= http.StatusInternalServerError:
		entry.WithError(err).Error(appErr.Message)
	default:
		entry.Debug(appErr.Message)
	}

	if production {
		if !appErr.Operational {
			c.AbortWithStatusJSON(http.StatusInternalServerError, utils.APIResponse{
				Status:  utils.StatusError,
				Message: apperrors.MsgInternalError,
			})
			return
		}
		c.AbortWithStatusJSON(appErr.StatusCode, utils.APIResponse{
			Status:  apperrors.StatusWord(appErr.StatusCode),
			Message: appErr.Message,
		})
		return
	}

	detail := devError{Code: appErr.Code, Origin: appErr.Origin()}
	if appErr.Cause != nil {
		detail.Cause = appErr.Cause.Error()
	}
	c.AbortWithStatusJSON(appErr.StatusCode, utils.APIResponse{
		Status:  apperrors.StatusWord(appErr.StatusCode),
		Message: appErr.Message,
		Error:   detail,
		Stack:   stack,
	})
}
