package services

import (
	"context"
	"errors"

	"natours/internal/apperrors"
	"natours/internal/models"
	"natours/internal/query"
	"natours/internal/repositories/interfaces"
	"natours/internal/validators"
	"natours/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ReviewSchema = query.Schema{
	"review":    query.String,
	"rating":    query.Number,
	"tour":      query.ObjectID,
	"user":      query.ObjectID,
	"createdAt": query.Date,
}

// ReviewService keeps every tour's ratingsAverage and ratingsQuantity in
// step with its reviews: each write and the recompute share one transaction.
type ReviewService interface {
	CRUDService[models.Review, validators.ReviewCreateRequest, validators.ReviewUpdateRequest]

	RecordReview(ctx context.Context, review *models.Review) error
	ReviseReview(ctx context.Context, id primitive.ObjectID, req *validators.ReviewUpdateRequest) (*models.Review, error)
	RemoveReview(ctx context.Context, id primitive.ObjectID) error
}

type reviewService struct {
	reviewRepo interfaces.ReviewRepository
	tourRepo   interfaces.TourRepository
	logger     *logger.Logger
}

func NewReviewService(reviewRepo interfaces.ReviewRepository, tourRepo interfaces.TourRepository, logger *logger.Logger) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		tourRepo:   tourRepo,
		logger:     logger,
	}
}

func (s *reviewService) Create(ctx context.Context, req *validators.ReviewCreateRequest) (*models.Review, error) {
	review, err := req.ToModel()
	if err != nil {
		return nil, err
	}
	if err := s.RecordReview(ctx, review); err != nil {
		return nil, err
	}
	return s.reviewRepo.GetByID(ctx, review.ID)
}

func (s *reviewService) Get(ctx context.Context, id string, _ ...string) (*models.Review, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.reviewRepo.GetByID(ctx, oid)
}

func (s *reviewService) List(ctx context.Context, scope bson.M, q *query.Features) ([]*models.Review, error) {
	return s.reviewRepo.List(ctx, q.Scope(scope))
}

func (s *reviewService) Update(ctx context.Context, id string, req *validators.ReviewUpdateRequest) (*models.Review, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.ReviseReview(ctx, oid, req)
}

func (s *reviewService) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	return s.RemoveReview(ctx, oid)
}

func (s *reviewService) RecordReview(ctx context.Context, review *models.Review) error {
	if err := validators.ValidateReview(review); err != nil {
		return err
	}

	return s.inTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.tourRepo.GetByID(ctx, review.TourID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NotFound("No tour found with that ID")
			}
			return err
		}
		if err := s.reviewRepo.Create(ctx, review); err != nil {
			return err
		}
		return s.recompute(ctx, review.TourID)
	})
}

func (s *reviewService) ReviseReview(ctx context.Context, id primitive.ObjectID, req *validators.ReviewUpdateRequest) (*models.Review, error) {
	var review *models.Review
	err := s.inTransaction(ctx, func(ctx context.Context) error {
		var err error
		review, err = s.reviewRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := req.Apply(review); err != nil {
			return err
		}
		if err := validators.ValidateReview(review); err != nil {
			return err
		}
		if err := s.reviewRepo.Update(ctx, review); err != nil {
			return err
		}
		return s.recompute(ctx, review.TourID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) RemoveReview(ctx context.Context, id primitive.ObjectID) error {
	return s.inTransaction(ctx, func(ctx context.Context) error {
		review, err := s.reviewRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.reviewRepo.Delete(ctx, id); err != nil {
			return err
		}
		return s.recompute(ctx, review.TourID)
	})
}

// inTransaction runs fn in a transaction and drops the cached tour stats
// once it has committed.
func (s *reviewService) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.reviewRepo.WithTransaction(ctx, fn); err != nil {
		return err
	}
	s.tourRepo.InvalidateStats(ctx)
	return nil
}

// recompute writes the tour's rating aggregate from its current reviews,
// falling back to the defaults when none remain.
func (s *reviewService) recompute(ctx context.Context, tourID primitive.ObjectID) error {
	summary, err := s.reviewRepo.SummarizeForTour(ctx, tourID)
	if err != nil {
		return err
	}
	if summary.Quantity == 0 {
		summary.Average = models.DefaultRatingsAverage
	}

	if err := s.tourRepo.UpdateRatings(ctx, tourID, summary); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"tour_id":          tourID.Hex(),
		"ratings_quantity": summary.Quantity,
		"ratings_average":  models.RoundRating(summary.Average),
	}).Debug("tour ratings recomputed")
	return nil
}
