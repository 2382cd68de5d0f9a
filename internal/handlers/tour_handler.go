package handlers

import (
	"strconv"

	"natours/internal/apperrors"
	"natours/internal/models"
	"natours/internal/repositories/interfaces"
	"natours/internal/services"
	"natours/internal/utils"
	"natours/internal/validators"

	"github.com/gin-gonic/gin"
)

type TourHandler struct {
	*Factory[models.Tour, validators.TourCreateRequest, validators.TourUpdateRequest]
	tours services.TourService
}

func NewTourHandler(tours services.TourService) *TourHandler {
	return &TourHandler{
		Factory: NewFactory(Resource[models.Tour, validators.TourCreateRequest, validators.TourUpdateRequest]{
			Service:  tours,
			Schema:   services.TourSchema,
			Singular: "tour",
			Plural:   "tours",
			Populate: []string{interfaces.PopulateGuides, interfaces.PopulateReviews},
		}),
		tours: tours,
	}
}

// AliasTopTours presets the query for the five best cheap tours.
func (h *TourHandler) AliasTopTours(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("limit", "5")
	q.Set("sort", "-ratingsAverage,price")
	q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
	c.Request.URL.RawQuery = q.Encode()
	c.Next()
}

// GetTourStats groups tours by difficulty
func (h *TourHandler) GetTourStats(c *gin.Context) {
	stats, err := h.tours.GetStats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.SuccessResponse(c, gin.H{"stats": stats})
}

// GetMonthlyPlan counts tour starts per month of a year
func (h *TourHandler) GetMonthlyPlan(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		_ = c.Error(apperrors.BadRequest("Please provide a valid year."))
		return
	}

	plan, err := h.tours.GetMonthlyPlan(c.Request.Context(), year)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.SuccessResponse(c, gin.H{"plan": plan})
}

// GetToursWithin lists tours starting inside a radius around a point
func (h *TourHandler) GetToursWithin(c *gin.Context) {
	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil {
		_ = c.Error(apperrors.BadRequest("Please provide a positive distance."))
		return
	}

	tours, err := h.tours.GetWithin(c.Request.Context(), distance, c.Param("latlng"), c.Param("unit"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.ListResponse(c, len(tours), gin.H{"tours": tours})
}

// GetDistances lists every tour with its distance from a point
func (h *TourHandler) GetDistances(c *gin.Context) {
	distances, err := h.tours.GetDistances(c.Request.Context(), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.ListResponse(c, len(distances), gin.H{"distances": distances})
}
