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

const statsCacheKey = "tours:stats"

type tourRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
	statsTTL   time.Duration
}

func NewTourRepository(db *mongo.Database, cache services.CacheService, statsTTL time.Duration) interfaces.TourRepository {
	return &tourRepository{
		collection: db.Collection(database.ToursCollection),
		cache:      cache,
		statsTTL:   statsTTL,
	}
}

// tourDocument receives $lookup results next to the stored fields.
type tourDocument struct {
	models.Tour `bson:",inline"`
	Guides      []models.UserRef `bson:"populatedGuides,omitempty"`
	Reviews     []reviewDocument `bson:"populatedReviews,omitempty"`
}

// Basic CRUD operations
func (r *tourRepository) Create(ctx context.Context, tour *models.Tour) error {
	if tour.ID.IsZero() {
		tour.ID = primitive.NewObjectID()
	}
	if tour.CreatedAt == nil {
		now := time.Now()
		tour.CreatedAt = &now
	}

	if _, err := r.collection.InsertOne(ctx, tour); err != nil {
		return fmt.Errorf("failed to create tour: %w", err)
	}

	r.InvalidateStats(ctx)
	return nil
}

func (r *tourRepository) GetByID(ctx context.Context, id primitive.ObjectID, populate ...string) (*models.Tour, error) {
	match := bson.M{"_id": id, "secretTour": bson.M{"$ne": true}}
	return r.findOne(ctx, match, populate...)
}

func (r *tourRepository) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	match := bson.M{"slug": slug, "secretTour": bson.M{"$ne": true}}
	return r.findOne(ctx, match, interfaces.PopulateGuides, interfaces.PopulateReviews)
}

func (r *tourRepository) findOne(ctx context.Context, match bson.M, populate ...string) (*models.Tour, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$limit", Value: 1}},
	}

	var withGuides, withReviews bool
	for _, p := range populate {
		switch p {
		case interfaces.PopulateGuides:
			withGuides = true
		case interfaces.PopulateReviews:
			withReviews = true
		}
	}

	if withGuides {
		pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.M{
			"from": database.UsersCollection,
			"let":  bson.M{"guideIds": bson.M{"$ifNull": bson.A{"$guides", bson.A{}}}},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{
					"$expr":  bson.M{"$in": bson.A{"$_id", "$$guideIds"}},
					"active": bson.M{"$ne": false},
				}},
				bson.M{"$project": bson.M{"name": 1, "email": 1, "photo": 1, "role": 1}},
			},
			"as": "populatedGuides",
		}}})
	}
	if withReviews {
		reviewPipeline := bson.A{
			bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$tour", "$$tourId"}}}},
			bson.M{"$sort": bson.M{"createdAt": -1}},
		}
		for _, stage := range authorLookup() {
			reviewPipeline = append(reviewPipeline, stage)
		}
		pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.M{
			"from":     database.ReviewsCollection,
			"let":      bson.M{"tourId": "$_id"},
			"pipeline": reviewPipeline,
			"as":       "populatedReviews",
		}}})
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, fmt.Errorf("failed to get tour: %w", err)
		}
		return nil, apperrors.ErrNotFound
	}

	var doc tourDocument
	if err := cursor.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode tour: %w", err)
	}

	tour := doc.Tour
	if withGuides {
		tour.Guides = doc.Guides
		if tour.Guides == nil {
			tour.Guides = []models.UserRef{}
		}
	}
	if withReviews {
		tour.Reviews = toReviews(doc.Reviews)
	}
	return &tour, nil
}

func (r *tourRepository) List(ctx context.Context, q *query.Features) ([]*models.Tour, error) {
	tours := []*models.Tour{}
	if err := q.Scope(notSecret).Execute(ctx, r.collection, &tours); err != nil {
		return nil, err
	}
	return tours, nil
}

func (r *tourRepository) Update(ctx context.Context, tour *models.Tour, fields ...string) error {
	update, err := partialUpdate(tour, fields)
	if err != nil {
		return fmt.Errorf("failed to update tour: %w", err)
	}
	if len(update) == 0 {
		return nil
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": tour.ID, "secretTour": bson.M{"$ne": true}}, update)
	if err != nil {
		return fmt.Errorf("failed to update tour: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}

	r.InvalidateStats(ctx)
	return nil
}

func (r *tourRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "secretTour": bson.M{"$ne": true}})
	if err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}

	r.InvalidateStats(ctx)
	return nil
}

// Aggregates
func (r *tourRepository) UpdateRatings(ctx context.Context, id primitive.ObjectID, summary models.RatingSummary) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"ratingsQuantity": summary.Quantity,
		"ratingsAverage":  models.RoundRating(summary.Average),
	}})
	if err != nil {
		return fmt.Errorf("failed to update tour ratings: %w", err)
	}
	return nil
}

func (r *tourRepository) GetStats(ctx context.Context) ([]models.TourStats, error) {
	if r.cache != nil {
		var cached []models.TourStats
		if err := r.cache.Get(ctx, statsCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"ratingsAverage": bson.M{"$gte": 1},
			"secretTour":     bson.M{"$ne": true},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$toUpper": "$difficulty"},
			"numTours":   bson.M{"$sum": 1},
			"numRatings": bson.M{"$sum": "$ratingsQuantity"},
			"avgRating":  bson.M{"$avg": "$ratingsAverage"},
			"avgPrice":   bson.M{"$avg": "$price"},
			"minPrice":   bson.M{"$min": "$price"},
			"maxPrice":   bson.M{"$max": "$price"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avgPrice", Value: 1}}}},
	}

	stats := []models.TourStats{}
	if err := r.aggregate(ctx, pipeline, &stats); err != nil {
		return nil, fmt.Errorf("failed to get tour stats: %w", err)
	}

	if r.cache != nil {
		r.cache.Set(ctx, statsCacheKey, stats, r.statsTTL)
	}
	return stats, nil
}

func (r *tourRepository) GetMonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: notSecret}},
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.M{"startDates": bson.M{"$gte": start, "$lt": end}}}},
		{{Key: "$group", Value: bson.M{
			"_id":           bson.M{"$month": "$startDates"},
			"numTourStarts": bson.M{"$sum": 1},
			"tours":         bson.M{"$push": "$name"},
		}}},
		{{Key: "$addFields", Value: bson.M{"month": "$_id"}}},
		{{Key: "$project", Value: bson.M{"_id": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "numTourStarts", Value: -1}, {Key: "month", Value: 1}}}},
		{{Key: "$limit", Value: 12}},
	}

	plan := []models.MonthlyPlan{}
	if err := r.aggregate(ctx, pipeline, &plan); err != nil {
		return nil, fmt.Errorf("failed to get monthly plan: %w", err)
	}
	return plan, nil
}

// Geo
func (r *tourRepository) GetWithin(ctx context.Context, lat, lng, radiusRadians float64) ([]*models.Tour, error) {
	filter := bson.M{
		"startLocation": bson.M{"$geoWithin": bson.M{
			"$centerSphere": bson.A{bson.A{lng, lat}, radiusRadians},
		}},
		"secretTour": bson.M{"$ne": true},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetProjection(bson.M{"__v": 0}))
	if err != nil {
		return nil, fmt.Errorf("failed to find tours within radius: %w", err)
	}
	defer cursor.Close(ctx)

	tours := []*models.Tour{}
	if err := cursor.All(ctx, &tours); err != nil {
		return nil, fmt.Errorf("failed to decode tours: %w", err)
	}
	return tours, nil
}

func (r *tourRepository) GetDistances(ctx context.Context, lat, lng, multiplier float64) ([]models.TourDistance, error) {
	pipeline := mongo.Pipeline{
		// $geoNear must be the first stage.
		{{Key: "$geoNear", Value: bson.M{
			"near":               models.NewGeoPoint(lat, lng),
			"distanceField":      "distance",
			"distanceMultiplier": multiplier,
			"spherical":          true,
			"key":                "startLocation",
			"query":              notSecret,
		}}},
		{{Key: "$project", Value: bson.M{"name": 1, "distance": 1}}},
	}

	distances := []models.TourDistance{}
	if err := r.aggregate(ctx, pipeline, &distances); err != nil {
		return nil, fmt.Errorf("failed to get tour distances: %w", err)
	}
	return distances, nil
}

func (r *tourRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, results interface{}) error {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, results)
}

func (r *tourRepository) InvalidateStats(ctx context.Context) {
	if r.cache != nil {
		r.cache.Delete(ctx, statsCacheKey)
	}
}
