package routes

import (
	"natours/internal/handlers"
	"natours/internal/middleware"
	"natours/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupReviewRoutes sets up review routes. Every review route requires a login.
func SetupReviewRoutes(r *gin.RouterGroup, reviewHandler *handlers.ReviewHandler, auth *middleware.AuthMiddleware) {
	reviews := r.Group("/reviews", auth.Protect())
	{
		reviews.GET("", reviewHandler.GetAll())
		reviews.POST("", auth.RestrictTo(models.RoleUser), reviewHandler.CreateOne())
		reviews.GET("/:id", reviewHandler.GetOne())
		reviews.PATCH("/:id", auth.RestrictTo(models.RoleUser, models.RoleAdmin), reviewHandler.UpdateOne())
		reviews.DELETE("/:id", auth.RestrictTo(models.RoleUser, models.RoleAdmin), reviewHandler.DeleteOne())
	}
}
