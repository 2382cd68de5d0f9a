package mongodb

import (
	"context"
	"fmt"
	"time"

	"natours/internal/apperrors"
	"natours/internal/models"
	"natours/internal/query"
	"natours/internal/repositories/interfaces"
	"natours/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type reviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) interfaces.ReviewRepository {
	return &reviewRepository{
		collection: db.Collection(database.ReviewsCollection),
	}
}

func (r *reviewRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithTransaction(ctx, r.collection.Database().Client(), func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx)
	})
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	if review.CreatedAt == nil {
		now := time.Now()
		review.CreatedAt = &now
	}

	if _, err := r.collection.InsertOne(ctx, review); err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	pipeline := append(mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$limit", Value: 1}},
	}, authorLookup()...)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, fmt.Errorf("failed to get review: %w", err)
		}
		return nil, apperrors.ErrNotFound
	}

	var doc reviewDocument
	if err := cursor.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode review: %w", err)
	}
	return doc.toModel(), nil
}

// List runs the query's predicate, sort and page window through an
// aggregation so every review comes back with its author populated.
func (r *reviewRepository) List(ctx context.Context, q *query.Features) ([]*models.Review, error) {
	if err := q.Err(); err != nil {
		return nil, err
	}

	opts := q.FindOptions()
	pipeline := mongo.Pipeline{{{Key: "$match", Value: q.Predicate()}}}
	if opts.Sort != nil {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: opts.Sort}})
	}
	if opts.Skip != nil {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: *opts.Skip}})
	}
	if opts.Limit != nil {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: *opts.Limit}})
	}
	pipeline = append(pipeline, authorLookup()...)
	if opts.Projection != nil {
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: withAuthor(opts.Projection)}})
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reviewDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	reviews := make([]*models.Review, 0, len(docs))
	for i := range docs {
		reviews = append(reviews, docs[i].toModel())
	}
	return reviews, nil
}

// withAuthor keeps the populated author visible under an inclusion projection.
func withAuthor(projection interface{}) interface{} {
	p, ok := projection.(bson.M)
	if !ok {
		return projection
	}
	for _, v := range p {
		if v == 1 {
			out := bson.M{"author": 1}
			for k, val := range p {
				out[k] = val
			}
			return out
		}
	}
	return p
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": review.ID}, bson.M{"$set": bson.M{
		"review": review.Review,
		"rating": review.Rating,
	}})
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *reviewRepository) SummarizeForTour(ctx context.Context, tourID primitive.ObjectID) (models.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$tour",
			"quantity": bson.M{"$sum": 1},
			"average":  bson.M{"$avg": "$rating"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return models.RatingSummary{}, fmt.Errorf("failed to summarize reviews: %w", err)
	}
	defer cursor.Close(ctx)

	summary := models.RatingSummary{Quantity: 0, Average: models.DefaultRatingsAverage}
	if cursor.Next(ctx) {
		var result struct {
			Quantity int     `bson:"quantity"`
			Average  float64 `bson:"average"`
		}
		if err := cursor.Decode(&result); err != nil {
			return models.RatingSummary{}, fmt.Errorf("failed to decode review summary: %w", err)
		}
		summary.Quantity = result.Quantity
		summary.Average = result.Average
	}
	return summary, cursor.Err()
}
