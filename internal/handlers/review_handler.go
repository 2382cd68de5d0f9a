package handlers

import (
	"natours/internal/middleware"
	"natours/internal/models"
	"natours/internal/services"
	"natours/internal/validators"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	*Factory[models.Review, validators.ReviewCreateRequest, validators.ReviewUpdateRequest]
}

// NewReviewHandler serves both /reviews and /tours/:id/reviews. On the nested
// routes the id parameter is the parent tour.
func NewReviewHandler(reviews services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		Factory: NewFactory(Resource[models.Review, validators.ReviewCreateRequest, validators.ReviewUpdateRequest]{
			Service:      reviews,
			Schema:       services.ReviewSchema,
			Singular:     "review",
			Plural:       "reviews",
			ParentParam:  "id",
			ParentField:  "tour",
			BeforeCreate: setReviewOwner,
		}),
	}
}

// setReviewOwner fills the tour from the nested route and always takes the
// author from the authenticated user.
func setReviewOwner(c *gin.Context, req *validators.ReviewCreateRequest) error {
	if req.Tour == "" {
		req.Tour = c.Param("id")
	}
	if user := middleware.CurrentUser(c); user != nil {
		req.UserID = user.ID.Hex()
	}
	return nil
}
