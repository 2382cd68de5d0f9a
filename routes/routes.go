package routes

import (
	"natours/internal/config"
	"natours/internal/handlers"
	"natours/internal/middleware"
	"natours/internal/services"
	"natours/pkg/logger"
	"natours/web"

	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth   *handlers.AuthHandler
	User   *handlers.UserHandler
	Tour   *handlers.TourHandler
	Review *handlers.ReviewHandler
	View   *handlers.ViewHandler
	Health *handlers.HealthHandler
}

type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Counter  services.CacheService
	Auth     *middleware.AuthMiddleware
	Handlers Handlers
}

// Setup installs global middleware, pages and the /api/v1 surface.
func Setup(r *gin.Engine, deps *Dependencies) error {
	cfg := deps.Config
	production := cfg.App.IsProduction()

	tmpl, err := web.Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	if err := r.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return err
	}

	r.Use(
		middleware.RequestIDMiddleware(),
		middleware.LoggingMiddleware(deps.Logger),
		middleware.Recovery(deps.Logger, production),
		middleware.ErrorHandler(deps.Logger, production),
		middleware.SecurityHeaders(production),
		middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins),
		middleware.BodyLimit(cfg.App.MaxBodyBytes),
	)

	if !cfg.Storage.UsesS3() {
		r.Static(cfg.Storage.Local.BaseURL, cfg.Storage.Local.BasePath)
	}
	r.Static("/img/tours", "./public/img/tours")

	r.GET("/health", deps.Handlers.Health.Health)
	SetupViewRoutes(&r.RouterGroup, deps.Handlers.View, deps.Auth)

	api := r.Group("/api")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(deps.Counter, cfg.RateLimit.Max, cfg.RateLimit.Window, deps.Logger))
	}

	v1 := api.Group("/v1")
	{
		SetupUserRoutes(v1, deps.Handlers.Auth, deps.Handlers.User, deps.Auth)
		SetupTourRoutes(v1, deps.Handlers.Tour, deps.Handlers.Review, deps.Auth)
		SetupReviewRoutes(v1, deps.Handlers.Review, deps.Auth)
	}

	r.NoRoute(middleware.NotFound())
	return nil
}
