package interfaces

import (
	"context"
	"time"

	"natours/internal/models"
	"natours/internal/query"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository only ever returns active users.
type UserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	List(ctx context.Context, q *query.Features) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// Authentication operations
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetWithPassword(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// ConsumeResetToken sets the new password hash on the user holding an
	// unexpired token and clears the token in the same write, so a token
	// succeeds at most once.
	ConsumeResetToken(ctx context.Context, hashedToken string, now time.Time, hash string, changedAt time.Time) (*models.User, error)
	SetResetToken(ctx context.Context, id primitive.ObjectID, hashedToken string, expires time.Time) error
	ClearResetToken(ctx context.Context, id primitive.ObjectID) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string, changedAt time.Time) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}
