package routes

import (
	"natours/internal/handlers"
	"natours/internal/middleware"
	"natours/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupTourRoutes sets up tour routes, including reviews nested under a tour
func SetupTourRoutes(r *gin.RouterGroup, tourHandler *handlers.TourHandler, reviewHandler *handlers.ReviewHandler, auth *middleware.AuthMiddleware) {
	tours := r.Group("/tours")
	editors := []gin.HandlerFunc{auth.Protect(), auth.RestrictTo(models.RoleAdmin, models.RoleLeadGuide)}

	// Aliases and aggregates
	{
		tours.GET("/top-5-cheap", tourHandler.AliasTopTours, tourHandler.GetAll())
		tours.GET("/tour-stats", tourHandler.GetTourStats)
		tours.GET("/monthly-plan/:year",
			auth.Protect(),
			auth.RestrictTo(models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide),
			tourHandler.GetMonthlyPlan,
		)
	}

	// Geo
	{
		tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", tourHandler.GetToursWithin)
		tours.GET("/distances/:latlng/unit/:unit", tourHandler.GetDistances)
	}

	// CRUD
	{
		tours.GET("", tourHandler.GetAll())
		tours.POST("", append(editors, tourHandler.CreateOne())...)
		tours.GET("/:id", tourHandler.GetOne())
		tours.PATCH("/:id", append(editors, tourHandler.UpdateOne())...)
		tours.DELETE("/:id", append(editors, tourHandler.DeleteOne())...)
	}

	// Nested reviews; :id is the tour
	nested := tours.Group("/:id/reviews", auth.Protect())
	{
		nested.GET("", reviewHandler.GetAll())
		nested.POST("", auth.RestrictTo(models.RoleUser), reviewHandler.CreateOne())
	}
}
