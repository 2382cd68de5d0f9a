package validators

import (
	"strings"

	"natours/internal/apperrors"
	"natours/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewCreateRequest may omit tour when it comes from a nested route.
type ReviewCreateRequest struct {
	Review string  `json:"review"`
	Rating float64 `json:"rating"`
	Tour   string  `json:"tour" validate:"omitempty,objectid"`
	// UserID is always the authenticated user, never the request body.
	UserID string `json:"-"`
}

func (r *ReviewCreateRequest) ToModel() (*models.Review, error) {
	if err := ValidateStruct(r); err != nil {
		return nil, err
	}

	review := &models.Review{
		Review: strings.TrimSpace(r.Review),
		Rating: r.Rating,
	}
	if id, err := primitive.ObjectIDFromHex(r.Tour); err == nil {
		review.TourID = id
	}
	if id, err := primitive.ObjectIDFromHex(r.UserID); err == nil {
		review.UserID = id
	}
	return review, ValidateReview(review)
}

type ReviewUpdateRequest struct {
	Review *string  `json:"review"`
	Rating *float64 `json:"rating"`
}

func (r *ReviewUpdateRequest) Apply(review *models.Review) error {
	if r.Review != nil {
		review.Review = strings.TrimSpace(*r.Review)
	}
	if r.Rating != nil {
		review.Rating = *r.Rating
	}
	return nil
}

func ValidateReview(r *models.Review) error {
	var msgs []string

	if r.Review == "" {
		msgs = append(msgs, "Review can not be empty!")
	}
	if r.Rating < 1 || r.Rating > 5 {
		msgs = append(msgs, "Rating must be between 1 and 5")
	}
	if r.TourID.IsZero() {
		msgs = append(msgs, "Review must belong to a tour.")
	}
	if r.UserID.IsZero() {
		msgs = append(msgs, "Review must belong to a user")
	}

	if len(msgs) > 0 {
		return apperrors.NewValidationError(msgs...)
	}
	return nil
}
