package interfaces

import (
	"context"

	"natours/internal/models"
	"natours/internal/query"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewRepository interface {
	// WithTransaction runs fn in a transaction; repository calls made with
	// the ctx passed to fn join it.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	List(ctx context.Context, q *query.Features) ([]*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// SummarizeForTour returns the count and mean rating of a tour's reviews.
	SummarizeForTour(ctx context.Context, tourID primitive.ObjectID) (models.RatingSummary, error)
}
