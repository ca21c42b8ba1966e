package http

import (
	"time"

	"github.com/jvillarreal-dev/booking-core/internal/booking"
)

// ActorBody identifies who is performing the command.
type ActorBody struct {
	Type    string         `json:"type" binding:"required,oneof=CUSTOMER STAFF SYSTEM API"`
	ID      string         `json:"id" binding:"required"`
	Details map[string]any `json:"details" binding:"omitempty"`
}

func (a ActorBody) toActor() booking.Actor {
	return booking.Actor{
		Type:    booking.ActorType(a.Type),
		ID:      a.ID,
		Details: a.Details,
	}
}

type CreateHoldBody struct {
	ResourceID string         `json:"resource_id" binding:"required,uuid"`
	StartTime  time.Time      `json:"start_time" binding:"required"`
	EndTime    time.Time      `json:"end_time" binding:"required"`
	Type       string         `json:"type" binding:"omitempty,oneof=CUSTOMER_BOOKING ADMIN_BLOCK"`
	Metadata   map[string]any `json:"metadata" binding:"omitempty"`
	Actor      ActorBody      `json:"actor" binding:"required"`
}

type CancelBody struct {
	Reason string    `json:"reason" binding:"omitempty,max=500"`
	Actor  ActorBody `json:"actor" binding:"required"`
}

type ConfirmBody struct {
	Actor ActorBody `json:"actor" binding:"required"`
}

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	ResourceID string     `form:"resource_id" binding:"omitempty,uuid"`
	Status     string     `form:"status" binding:"omitempty,oneof=PENDING HELD CONFIRMED CANCELLED COMPLETED NO_SHOW"`
	ActorID    string     `form:"actor_id"`
	From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page       int        `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
	SortBy     string     `form:"sort_by" binding:"omitempty,oneof=start_time created_at status"`
	SortOrder  string     `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

type BookingResponse struct {
	ID            string         `json:"id"`
	ResourceID    string         `json:"resource_id"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	Status        string         `json:"status"`
	HoldExpiresAt *time.Time     `json:"hold_expires_at,omitempty"`
	Actor         ActorBody      `json:"actor"`
	ServiceRef    string         `json:"service_ref,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		ResourceID:    b.ResourceID,
		StartTime:     b.Period.Start,
		EndTime:       b.Period.End,
		Status:        string(b.Status),
		HoldExpiresAt: b.HoldExpiresAt,
		Actor: ActorBody{
			Type:    string(b.Actor.Type),
			ID:      b.Actor.ID,
			Details: b.Actor.Details,
		},
		ServiceRef: b.ServiceRef,
		Metadata:   b.Metadata,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

// PolicyDeniedResponse is the body returned when a policy blocks a command.
type PolicyDeniedResponse struct {
	Error         string         `json:"error"`
	Status        string         `json:"status"`
	PolicyID      string         `json:"policy_id"`
	ReasonCode    string         `json:"reason_code"`
	ActionDetails map[string]any `json:"action_details,omitempty"`
}

func NewPolicyDeniedResponse(e *booking.PolicyDeniedError) PolicyDeniedResponse {
	return PolicyDeniedResponse{
		Error:         e.Message,
		Status:        e.Status,
		PolicyID:      e.PolicyID,
		ReasonCode:    e.ReasonCode,
		ActionDetails: e.ActionDetails,
	}
}
