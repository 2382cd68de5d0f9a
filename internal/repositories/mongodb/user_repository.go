package mongodb

import (
	"context"
	"fmt"
	"time"

	"natours/internal/apperrors"
	"natours/internal/models"
	"natours/internal/query"
	"natours/internal/repositories/interfaces"
	"natours/internal/services"
	"natours/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCacheTTL = 15 * time.Minute

type userRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewUserRepository(db *mongo.Database, cache services.CacheService) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection(database.UsersCollection),
		cache:      cache,
	}
}

func withActive(filter bson.M) bson.M {
	filter["active"] = activeOnly["active"]
	return filter
}

// Basic CRUD operations
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Active = true
	if user.CreatedAt == nil {
		now := time.Now()
		user.CreatedAt = &now
	}

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if user := r.getUserFromCache(ctx, id.Hex()); user != nil {
		return user, nil
	}

	var user models.User
	err := r.collection.FindOne(ctx, withActive(bson.M{"_id": id})).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", notFound(err))
	}

	r.cacheUser(ctx, &user)
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, q *query.Features) ([]*models.User, error) {
	users := []*models.User{}
	if err := q.Scope(activeOnly).Execute(ctx, r.collection, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	result, err := r.collection.UpdateOne(ctx, withActive(bson.M{"_id": user.ID}), bson.M{"$set": bson.M{
		"name":   user.Name,
		"email":  user.Email,
		"photo":  user.Photo,
		"role":   user.Role,
		"active": user.Active,
	}})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}

	r.invalidateUserCache(ctx, user.ID.Hex())
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, withActive(bson.M{"_id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}

	r.invalidateUserCache(ctx, id.Hex())
	return nil
}

// Authentication operations. These bypass the cache because they need the
// password hash and token fields.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, withActive(bson.M{"email": email})).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", notFound(err))
	}
	return &user, nil
}

func (r *userRepository) GetWithPassword(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, withActive(bson.M{"_id": id})).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", notFound(err))
	}
	return &user, nil
}

func (r *userRepository) ConsumeResetToken(ctx context.Context, hashedToken string, now time.Time, hash string, changedAt time.Time) (*models.User, error) {
	filter := withActive(bson.M{
		"passwordResetToken":   hashedToken,
		"passwordResetExpires": bson.M{"$gt": now},
	})
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, passwordUpdate(hash, changedAt), opts).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to consume reset token: %w", notFound(err))
	}

	r.invalidateUserCache(ctx, user.ID.Hex())
	return &user, nil
}

func (r *userRepository) SetResetToken(ctx context.Context, id primitive.ObjectID, hashedToken string, expires time.Time) error {
	return r.updateFields(ctx, id, bson.M{"$set": bson.M{
		"passwordResetToken":   hashedToken,
		"passwordResetExpires": expires,
	}})
}

func (r *userRepository) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	return r.updateFields(ctx, id, bson.M{"$unset": bson.M{
		"passwordResetToken":   "",
		"passwordResetExpires": "",
	}})
}

// UpdatePassword also clears any pending reset token.
func (r *userRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string, changedAt time.Time) error {
	return r.updateFields(ctx, id, passwordUpdate(hash, changedAt))
}

func passwordUpdate(hash string, changedAt time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"password":          hash,
			"passwordChangedAt": changedAt,
		},
		"$unset": bson.M{
			"passwordResetToken":   "",
			"passwordResetExpires": "",
		},
	}
}

func (r *userRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	return r.updateFields(ctx, id, bson.M{"$set": bson.M{"active": false}})
}

func (r *userRepository) updateFields(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, withActive(bson.M{"_id": id}), update)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}

	r.invalidateUserCache(ctx, id.Hex())
	return nil
}

// Cache helpers. Cached users never carry secrets.
func (r *userRepository) cacheUser(ctx context.Context, user *models.User) {
	if r.cache == nil {
		return
	}
	r.cache.Set(ctx, userCacheKey(user.ID.Hex()), cachedUser{
		ID:                user.ID,
		Name:              user.Name,
		Email:             user.Email,
		Photo:             user.Photo,
		Role:              user.Role,
		PasswordChangedAt: user.PasswordChangedAt,
		CreatedAt:         user.CreatedAt,
	}, userCacheTTL)
}

func (r *userRepository) getUserFromCache(ctx context.Context, id string) *models.User {
	if r.cache == nil {
		return nil
	}
	var c cachedUser
	if err := r.cache.Get(ctx, userCacheKey(id), &c); err != nil {
		return nil
	}
	return &models.User{
		ID:                c.ID,
		Name:              c.Name,
		Email:             c.Email,
		Photo:             c.Photo,
		Role:              c.Role,
		PasswordChangedAt: c.PasswordChangedAt,
		Active:            true,
		CreatedAt:         c.CreatedAt,
	}
}

func (r *userRepository) invalidateUserCache(ctx context.Context, id string) {
	if r.cache != nil {
		r.cache.Delete(ctx, userCacheKey(id))
	}
}

func userCacheKey(id string) string {
	return "user:" + id
}

type cachedUser struct {
	ID                primitive.ObjectID `json:"id"`
	Name              string             `json:"name"`
	Email             string             `json:"email"`
	Photo             string             `json:"photo"`
	Role              models.Role        `json:"role"`
	PasswordChangedAt *time.Time         `json:"passwordChangedAt,omitempty"`
	CreatedAt         *time.Time         `json:"createdAt,omitempty"`
}
