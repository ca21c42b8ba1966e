package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jvillarreal-dev/booking-core/internal/availability"
	"github.com/jvillarreal-dev/booking-core/internal/pkg/request"
	"github.com/jvillarreal-dev/booking-core/internal/pkg/response"
	"github.com/jvillarreal-dev/booking-core/internal/timerange"
)

type Handler struct {
	service availability.Service
}

func NewHandler(service availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Slots(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	window, err := timerange.New(req.From, req.To)
	if err != nil {
		response.Error(c, err)
		return
	}

	cfg := availability.ServiceConfig{
		DurationMinutes:    req.DurationMinutes,
		GranularityMinutes: req.GranularityMinutes,
		BufferAfterMinutes: req.BufferAfterMinutes,
	}
	if cfg.GranularityMinutes == 0 {
		cfg.GranularityMinutes = cfg.DurationMinutes
	}

	slots, err := h.service.Slots(c.Request.Context(), uri.ID, window, cfg)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAvailabilityResponse(uri.ID, window.Start, window.End, slots))
}
