package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"natours/internal/apperrors"
	"natours/internal/models"
	"natours/internal/query"
	"natours/internal/repositories/interfaces"
	"natours/internal/validators"
	"natours/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	earthRadiusMiles = 3963.2
	earthRadiusKm    = 6378.1

	metersToMiles = 0.000621371
	metersToKm    = 0.001
)

// TourSchema whitelists the fields clients may filter, sort and select on.
var TourSchema = query.Schema{
	"name":            query.String,
	"slug":            query.String,
	"duration":        query.Number,
	"maxGroupSize":    query.Number,
	"difficulty":      query.String,
	"ratingsAverage":  query.Number,
	"ratingsQuantity": query.Number,
	"price":           query.Number,
	"priceDiscount":   query.Number,
	"summary":         query.String,
	"description":     query.String,
	"imageCover":      query.String,
	"images":          query.String,
	"startDates":      query.Date,
	"startLocation":   query.String,
	"locations":       query.String,
	"guides":          query.ObjectID,
	"createdAt":       query.Date,
}

type TourService interface {
	CRUDService[models.Tour, validators.TourCreateRequest, validators.TourUpdateRequest]

	GetBySlug(ctx context.Context, slug string) (*models.Tour, error)

	// Aggregates
	GetStats(ctx context.Context) ([]models.TourStats, error)
	GetMonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error)

	// Geo
	GetWithin(ctx context.Context, distance float64, latlng, unit string) ([]*models.Tour, error)
	GetDistances(ctx context.Context, latlng, unit string) ([]models.TourDistance, error)
}

type tourService struct {
	tourRepo interfaces.TourRepository
	logger   *logger.Logger
}

func NewTourService(tourRepo interfaces.TourRepository, logger *logger.Logger) TourService {
	return &tourService{
		tourRepo: tourRepo,
		logger:   logger,
	}
}

func (s *tourService) Create(ctx context.Context, req *validators.TourCreateRequest) (*models.Tour, error) {
	tour, err := req.ToModel()
	if err != nil {
		return nil, err
	}
	if err := validators.ValidateTour(tour); err != nil {
		return nil, err
	}

	if err := s.tourRepo.Create(ctx, tour); err != nil {
		return nil, err
	}
	return tour, nil
}

func (s *tourService) Get(ctx context.Context, id string, populate ...string) (*models.Tour, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.tourRepo.GetByID(ctx, oid, populate...)
}

func (s *tourService) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	tour, err := s.tourRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("There is no tour with that name.")
		}
		return nil, err
	}
	return tour, nil
}

func (s *tourService) List(ctx context.Context, scope bson.M, q *query.Features) ([]*models.Tour, error) {
	return s.tourRepo.List(ctx, q.Scope(scope))
}

// Update validates the merged record, so a new price is checked against the
// stored discount and vice versa.
func (s *tourService) Update(ctx context.Context, id string, req *validators.TourUpdateRequest) (*models.Tour, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	tour, err := s.tourRepo.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(tour); err != nil {
		return nil, err
	}
	if err := validators.ValidateTour(tour); err != nil {
		return nil, err
	}

	if err := s.tourRepo.Update(ctx, tour, req.Fields()...); err != nil {
		return nil, err
	}
	return tour, nil
}

func (s *tourService) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	return s.tourRepo.Delete(ctx, oid)
}

// Aggregates
func (s *tourService) GetStats(ctx context.Context) ([]models.TourStats, error) {
	return s.tourRepo.GetStats(ctx)
}

func (s *tourService) GetMonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error) {
	if year < 1 || year > 9999 {
		return nil, apperrors.BadRequest("Please provide a valid year.")
	}
	return s.tourRepo.GetMonthlyPlan(ctx, year)
}

// Geo
func (s *tourService) GetWithin(ctx context.Context, distance float64, latlng, unit string) ([]*models.Tour, error) {
	lat, lng, err := ParseLatLng(latlng)
	if err != nil {
		return nil, err
	}
	if distance <= 0 {
		return nil, apperrors.BadRequest("Please provide a positive distance.")
	}

	var radius float64
	switch unit {
	case "mi":
		radius = distance / earthRadiusMiles
	case "km":
		radius = distance / earthRadiusKm
	default:
		return nil, apperrors.BadRequest(msgBadUnit)
	}

	return s.tourRepo.GetWithin(ctx, lat, lng, radius)
}

func (s *tourService) GetDistances(ctx context.Context, latlng, unit string) ([]models.TourDistance, error) {
	lat, lng, err := ParseLatLng(latlng)
	if err != nil {
		return nil, err
	}

	var multiplier float64
	switch unit {
	case "mi":
		multiplier = metersToMiles
	case "km":
		multiplier = metersToKm
	default:
		return nil, apperrors.BadRequest(msgBadUnit)
	}

	return s.tourRepo.GetDistances(ctx, lat, lng, multiplier)
}

const (
	msgBadLatLng = "Please provide latitude and longitude in the format lat,lng."
	msgBadUnit   = "Please provide the unit as mi or km."
)

// ParseLatLng parses "lat,lng".
func ParseLatLng(latlng string) (lat, lng float64, err error) {
	parts := strings.Split(latlng, ",")
	if len(parts) != 2 {
		return 0, 0, apperrors.BadRequest(msgBadLatLng)
	}

	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, apperrors.BadRequest(msgBadLatLng)
	}
	return lat, lng, nil
}
