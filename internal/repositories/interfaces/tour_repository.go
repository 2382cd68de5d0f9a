package interfaces

import (
	"context"

	"natours/internal/models"
	"natours/internal/query"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Populate options for single-tour reads.
const (
	PopulateGuides  = "guides"
	PopulateReviews = "reviews"
)

type TourRepository interface {
	// Basic CRUD operations. Secret tours are invisible to every read.
	Create(ctx context.Context, tour *models.Tour) error
	GetByID(ctx context.Context, id primitive.ObjectID, populate ...string) (*models.Tour, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tour, error)
	List(ctx context.Context, q *query.Features) ([]*models.Tour, error)
	// Update writes only the named fields of tour. Keys not named, such as
	// the rating aggregates, keep their stored values.
	Update(ctx context.Context, tour *models.Tour, fields ...string) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// Aggregates. UpdateRatings leaves the stats cache alone; callers writing
	// inside a transaction call InvalidateStats after it commits.
	UpdateRatings(ctx context.Context, id primitive.ObjectID, summary models.RatingSummary) error
	InvalidateStats(ctx context.Context)
	GetStats(ctx context.Context) ([]models.TourStats, error)
	GetMonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error)

	// Geo
	GetWithin(ctx context.Context, lat, lng, radiusRadians float64) ([]*models.Tour, error)
	GetDistances(ctx context.Context, lat, lng, multiplier float64) ([]models.TourDistance, error)
}
