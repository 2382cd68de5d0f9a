package validators

import (
	"fmt"
	"strings"
	"time"

	"natours/internal/apperrors"
	"natours/internal/models"
	"natours/internal/utils"
)

type GeoPointRequest struct {
	Type        string    `json:"type" validate:"omitempty,eq=Point"`
	Coordinates []float64 `json:"coordinates" validate:"required,coordinates"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	Day         int       `json:"day" validate:"gte=0"`
}

func (g *GeoPointRequest) toModel() models.GeoPoint {
	return models.GeoPoint{
		Type:        "Point",
		Coordinates: g.Coordinates,
		Address:     g.Address,
		Description: g.Description,
		Day:         g.Day,
	}
}

type TourCreateRequest struct {
	Name            string            `json:"name"`
	Duration        int               `json:"duration"`
	MaxGroupSize    int               `json:"maxGroupSize"`
	Difficulty      string            `json:"difficulty"`
	RatingsAverage  *float64          `json:"ratingsAverage"`
	RatingsQuantity int               `json:"ratingsQuantity" validate:"gte=0"`
	Price           float64           `json:"price"`
	PriceDiscount   *float64          `json:"priceDiscount" validate:"omitempty,gte=0"`
	Summary         string            `json:"summary"`
	Description     string            `json:"description"`
	ImageCover      string            `json:"imageCover"`
	Images          []string          `json:"images"`
	StartDates      []time.Time       `json:"startDates"`
	SecretTour      bool              `json:"secretTour"`
	StartLocation   *GeoPointRequest  `json:"startLocation"`
	Locations       []GeoPointRequest `json:"locations" validate:"dive"`
	Guides          []string          `json:"guides" validate:"dive,objectid"`
}

// ToModel builds the tour to insert. Domain rules are checked separately by
// ValidateTour so create and update share them.
func (r *TourCreateRequest) ToModel() (*models.Tour, error) {
	if err := ValidateStruct(r); err != nil {
		return nil, err
	}

	guides, err := objectIDs(r.Guides)
	if err != nil {
		return nil, err
	}
	quantity := r.RatingsQuantity

	tour := &models.Tour{
		Name:            strings.TrimSpace(r.Name),
		Duration:        r.Duration,
		MaxGroupSize:    r.MaxGroupSize,
		Difficulty:      models.Difficulty(r.Difficulty),
		RatingsAverage:  models.DefaultRatingsAverage,
		RatingsQuantity: &quantity,
		Price:           r.Price,
		PriceDiscount:   r.PriceDiscount,
		Summary:         strings.TrimSpace(r.Summary),
		Description:     strings.TrimSpace(r.Description),
		ImageCover:      r.ImageCover,
		Images:          r.Images,
		StartDates:      r.StartDates,
		SecretTour:      r.SecretTour,
		GuideIDs:        guides,
	}
	if r.RatingsAverage != nil {
		tour.RatingsAverage = *r.RatingsAverage
	}
	if r.StartLocation != nil {
		loc := r.StartLocation.toModel()
		tour.StartLocation = &loc
	}
	for i := range r.Locations {
		tour.Locations = append(tour.Locations, r.Locations[i].toModel())
	}
	tour.Slug = utils.Slugify(tour.Name)

	return tour, nil
}

// TourUpdateRequest is a partial update; nil fields are left untouched.
type TourUpdateRequest struct {
	Name           *string           `json:"name"`
	Duration       *int              `json:"duration"`
	MaxGroupSize   *int              `json:"maxGroupSize"`
	Difficulty     *string           `json:"difficulty"`
	RatingsAverage *float64          `json:"ratingsAverage"`
	Price          *float64          `json:"price"`
	PriceDiscount  *float64          `json:"priceDiscount" validate:"omitempty,gte=0"`
	Summary        *string           `json:"summary"`
	Description    *string           `json:"description"`
	ImageCover     *string           `json:"imageCover"`
	Images         []string          `json:"images"`
	StartDates     []time.Time       `json:"startDates"`
	SecretTour     *bool             `json:"secretTour"`
	StartLocation  *GeoPointRequest  `json:"startLocation"`
	Locations      []GeoPointRequest `json:"locations" validate:"omitempty,dive"`
	Guides         []string          `json:"guides" validate:"omitempty,dive,objectid"`
}

// Fields lists the stored keys the request sets.
func (r *TourUpdateRequest) Fields() []string {
	var fields []string
	touch := func(set bool, keys ...string) {
		if set {
			fields = append(fields, keys...)
		}
	}

	touch(r.Name != nil, "name", "slug")
	touch(r.Duration != nil, "duration")
	touch(r.MaxGroupSize != nil, "maxGroupSize")
	touch(r.Difficulty != nil, "difficulty")
	touch(r.RatingsAverage != nil, "ratingsAverage")
	touch(r.Price != nil, "price")
	touch(r.PriceDiscount != nil, "priceDiscount")
	touch(r.Summary != nil, "summary")
	touch(r.Description != nil, "description")
	touch(r.ImageCover != nil, "imageCover")
	touch(r.Images != nil, "images")
	touch(r.StartDates != nil, "startDates")
	touch(r.SecretTour != nil, "secretTour")
	touch(r.StartLocation != nil, "startLocation")
	touch(r.Locations != nil, "locations")
	touch(r.Guides != nil, "guides")
	return fields
}

// Apply merges the request onto t.
func (r *TourUpdateRequest) Apply(t *models.Tour) error {
	if err := ValidateStruct(r); err != nil {
		return err
	}

	if r.Name != nil {
		t.Name = strings.TrimSpace(*r.Name)
		t.Slug = utils.Slugify(t.Name)
	}
	if r.Duration != nil {
		t.Duration = *r.Duration
	}
	if r.MaxGroupSize != nil {
		t.MaxGroupSize = *r.MaxGroupSize
	}
	if r.Difficulty != nil {
		t.Difficulty = models.Difficulty(*r.Difficulty)
	}
	if r.RatingsAverage != nil {
		t.RatingsAverage = *r.RatingsAverage
	}
	if r.Price != nil {
		t.Price = *r.Price
	}
	if r.PriceDiscount != nil {
		t.PriceDiscount = r.PriceDiscount
	}
	if r.Summary != nil {
		t.Summary = strings.TrimSpace(*r.Summary)
	}
	if r.Description != nil {
		t.Description = strings.TrimSpace(*r.Description)
	}
	if r.ImageCover != nil {
		t.ImageCover = *r.ImageCover
	}
	if r.Images != nil {
		t.Images = r.Images
	}
	if r.StartDates != nil {
		t.StartDates = r.StartDates
	}
	if r.SecretTour != nil {
		t.SecretTour = *r.SecretTour
	}
	if r.StartLocation != nil {
		loc := r.StartLocation.toModel()
		t.StartLocation = &loc
	}
	if r.Locations != nil {
		t.Locations = t.Locations[:0]
		for i := range r.Locations {
			t.Locations = append(t.Locations, r.Locations[i].toModel())
		}
	}
	if r.Guides != nil {
		guides, err := objectIDs(r.Guides)
		if err != nil {
			return err
		}
		t.GuideIDs = guides
	}
	return nil
}

// ValidateTour checks the domain rules on a complete tour record.
func ValidateTour(t *models.Tour) error {
	var msgs []string

	switch n := len([]rune(t.Name)); {
	case n == 0:
		msgs = append(msgs, "A tour must have a name")
	case n > 40:
		msgs = append(msgs, "A tour name must have less or equal then 40 characters")
	case n < 10:
		msgs = append(msgs, "A tour name must have more or equal then 10 characters")
	}
	if t.Duration <= 0 {
		msgs = append(msgs, "A tour must have a duration")
	}
	if t.MaxGroupSize <= 0 {
		msgs = append(msgs, "A tour must have a group size")
	}
	switch t.Difficulty {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyDifficult:
	default:
		msgs = append(msgs, "Difficulty is either: easy, medium, difficult")
	}
	if t.RatingsAverage < 1 {
		msgs = append(msgs, "Rating must be above 1.0")
	}
	if t.RatingsAverage > 5 {
		msgs = append(msgs, "Rating must be below 5.0")
	}
	if t.Price <= 0 {
		msgs = append(msgs, "A tour must have a price")
	}
	if t.PriceDiscount != nil && *t.PriceDiscount >= t.Price {
		msgs = append(msgs, fmt.Sprintf("Discount price (%g) should be below regular price", *t.PriceDiscount))
	}
	if t.Summary == "" {
		msgs = append(msgs, "A tour must have a summary")
	}
	if t.ImageCover == "" {
		msgs = append(msgs, "A tour must have a cover image")
	}

	if len(msgs) > 0 {
		return apperrors.NewValidationError(msgs...)
	}
	return nil
}
