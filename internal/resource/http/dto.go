package http

import (
	"time"

	"github.com/jvillarreal-dev/booking-core/internal/resource"
)

type ResourceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewResponse(r *resource.Resource) ResourceResponse {
	return ResourceResponse{
		ID:        r.ID,
		Name:      r.Name,
		Timezone:  r.Timezone,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type CreateRequest struct {
	Name     string `json:"name" binding:"required"`
	Timezone string `json:"timezone" binding:"omitempty"`
}

type UpdateRequest struct {
	Name   *string `json:"name" binding:"omitempty"`
	Active *bool   `json:"active" binding:"omitempty"`
}

type ListResourcesRequest struct {
	Active   *bool `form:"active"`
	Page     int   `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int   `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}
