package routes

import (
	"natours/internal/handlers"
	"natours/internal/middleware"
	"natours/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupUserRoutes sets up authentication, self-service and admin user routes
func SetupUserRoutes(r *gin.RouterGroup, authHandler *handlers.AuthHandler, userHandler *handlers.UserHandler, auth *middleware.AuthMiddleware) {
	users := r.Group("/users")

	// Public authentication routes
	{
		users.POST("/signup", authHandler.Signup)
		users.POST("/login", authHandler.Login)
		users.GET("/logout", authHandler.Logout)
		users.POST("/forgotPassword", authHandler.ForgotPassword)
		users.POST("/resetPassword/:token", authHandler.ResetPassword)
	}

	// Current user
	me := users.Group("", auth.Protect())
	{
		me.PATCH("/updateMyPassword", authHandler.UpdateMyPassword)
		me.GET("/me", userHandler.GetMe, userHandler.GetOne())
		me.PATCH("/updateMe", userHandler.UpdateMe)
		me.DELETE("/deleteMe", userHandler.DeleteMe)
	}

	// Administration
	admin := users.Group("", auth.Protect(), auth.RestrictTo(models.RoleAdmin))
	{
		admin.GET("", userHandler.GetAll())
		admin.POST("", userHandler.CreateUser)
		admin.GET("/:id", userHandler.GetOne())
		admin.PATCH("/:id", userHandler.UpdateOne())
		admin.DELETE("/:id", userHandler.DeleteOne())
	}
}
