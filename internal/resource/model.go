package resource

import (
	"net/http"
	"time"

	"github.com/jvillarreal-dev/booking-core/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "resource not found")
	ErrEmptyName       = apperror.New(http.StatusBadRequest, "name cannot be empty")
	ErrInvalidTimezone = apperror.New(http.StatusBadRequest, "invalid IANA timezone")
)

// Resource is a bookable unit (e.g. Consulting Room 1, Court A).
type Resource struct {
	ID        string
	Name      string
	Timezone  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Filter defines parameters for listing resources.
type Filter struct {
	Active   *bool
	Page     int
	PageSize int
}
