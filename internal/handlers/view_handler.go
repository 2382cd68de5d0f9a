package handlers

import (
	"net/http"
	"net/url"

	"natours/internal/apperrors"
	"natours/internal/middleware"
	"natours/internal/query"
	"natours/internal/services"
	"natours/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

type ViewHandler struct {
	tours  services.TourService
	logger *logger.Logger
}

func NewViewHandler(tours services.TourService, logger *logger.Logger) *ViewHandler {
	return &ViewHandler{
		tours:  tours,
		logger: logger,
	}
}

// Overview renders every public tour
func (h *ViewHandler) Overview(c *gin.Context) {
	q := query.New(url.Values{}, services.TourSchema).Sort().Paginate()
	tours, err := h.tours.List(c.Request.Context(), bson.M{}, q)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "overview.html", gin.H{
		"title": "All Tours",
		"tours": tours,
		"user":  middleware.CurrentUser(c),
	})
}

// Tour renders one tour with its guides and reviews
func (h *ViewHandler) Tour(c *gin.Context) {
	tour, err := h.tours.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "tour.html", gin.H{
		"title": tour.Name + " Tour",
		"tour":  tour,
		"user":  middleware.CurrentUser(c),
	})
}

func (h *ViewHandler) renderError(c *gin.Context, err error) {
	appErr := apperrors.Map(err)
	msg := appErr.Message
	if !appErr.Operational {
		h.logger.WithContext(c.Request.Context()).WithError(err).Error("page render failed")
		msg = "Please try again later."
	}

	c.HTML(appErr.StatusCode, "error.html", gin.H{
		"title": "Something went wrong!",
		"msg":   msg,
		"user":  middleware.CurrentUser(c),
	})
}
