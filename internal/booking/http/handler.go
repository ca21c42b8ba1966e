package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jvillarreal-dev/booking-core/internal/booking"
	"github.com/jvillarreal-dev/booking-core/internal/pkg/request"
	"github.com/jvillarreal-dev/booking-core/internal/pkg/response"
	"github.com/jvillarreal-dev/booking-core/internal/timerange"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

// writeError maps policy denials to a structured 422 body and everything
// else through the shared error mapper.
func writeError(c *gin.Context, err error) {
	var denied *booking.PolicyDeniedError
	if errors.As(err, &denied) {
		c.JSON(http.StatusUnprocessableEntity, NewPolicyDeniedResponse(denied))
		return
	}
	response.Error(c, err)
}

func (h *Handler) CreateHold(c *gin.Context) {
	var body CreateHoldBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	period, err := timerange.New(body.StartTime, body.EndTime)
	if err != nil {
		response.Error(c, err)
		return
	}

	typ := booking.RequestCustomerBooking
	if body.Type != "" {
		typ = booking.RequestType(body.Type)
	}

	req, err := booking.NewTimeSlotRequest(body.ResourceID, period, typ)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.Metadata = body.Metadata

	b, err := h.service.CreateHold(c.Request.Context(), req, body.Actor.toActor())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

func (h *Handler) Confirm(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body ConfirmBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	b, err := h.service.Confirm(c.Request.Context(), uri.ID, body.Actor.toActor())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body CancelBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), uri.ID, body.Reason, body.Actor.toActor())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Complete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	b, err := h.service.Complete(c.Request.Context(), uri.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	b, err := h.service.MarkNoShow(c.Request.Context(), uri.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	filter := booking.Filter{
		ResourceID: req.ResourceID,
		Status:     req.Status,
		ActorID:    req.ActorID,
		From:       req.From,
		To:         req.To,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortBy:     req.SortBy,
		SortOrder:  strings.ToUpper(req.SortOrder),
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	resp := response.NewPageResponse(items, req.Page, req.PageSize, total)
	c.JSON(http.StatusOK, resp)
}
