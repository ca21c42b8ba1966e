package http

import (
	"time"

	"github.com/jvillarreal-dev/booking-core/internal/availability"
)

// AvailabilityRequest defines query parameters for the slot listing endpoint.
type AvailabilityRequest struct {
	From               time.Time `form:"from" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To                 time.Time `form:"to" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	DurationMinutes    int       `form:"duration_minutes" binding:"required,min=1"`
	GranularityMinutes int       `form:"granularity_minutes" binding:"omitempty,min=1"`
	BufferAfterMinutes int       `form:"buffer_after_minutes" binding:"omitempty,min=0"`
}

type SlotResponse struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
}

type AvailabilityResponse struct {
	ResourceID string         `json:"resource_id"`
	From       time.Time      `json:"from"`
	To         time.Time      `json:"to"`
	Slots      []SlotResponse `json:"slots"`
}

func NewAvailabilityResponse(resourceID string, from, to time.Time, slots []availability.Slot) AvailabilityResponse {
	items := make([]SlotResponse, len(slots))
	for i, s := range slots {
		items[i] = SlotResponse{Start: s.Start, End: s.End, Status: string(s.Status)}
	}
	return AvailabilityResponse{
		ResourceID: resourceID,
		From:       from,
		To:         to,
		Slots:      items,
	}
}
