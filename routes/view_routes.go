package routes

import (
	"natours/internal/handlers"
	"natours/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupViewRoutes sets up the server-rendered pages
func SetupViewRoutes(r *gin.RouterGroup, viewHandler *handlers.ViewHandler, auth *middleware.AuthMiddleware) {
	pages := r.Group("", auth.IsLoggedIn())
	{
		pages.GET("/", viewHandler.Overview)
		pages.GET("/tour/:slug", viewHandler.Tour)
	}
}
