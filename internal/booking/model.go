package booking

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jvillarreal-dev/booking-core/internal/pkg/apperror"
	"github.com/jvillarreal-dev/booking-core/internal/timerange"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "booking not found")
	ErrTimeConflict     = apperror.New(http.StatusConflict, "time slot already booked")
	ErrResourceNotFound = apperror.New(http.StatusNotFound, "resource not found")
	ErrInvalidActor     = apperror.New(http.StatusBadRequest, "actor id is required")
	ErrHoldExpiryPast   = apperror.New(http.StatusBadRequest, "hold expiry must be in the future")
	ErrMissingHoldEnd   = apperror.New(http.StatusInternalServerError, "held booking is missing its hold expiry")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusHeld      Status = "HELD"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
	StatusNoShow    Status = "NO_SHOW"
)

// IsTerminal reports whether the status is permanent. Terminal rows are never
// deleted; they remain for audit.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted || s == StatusNoShow
}

// InvalidTransitionError names the attempted source and target state of a
// rejected lifecycle transition.
type InvalidTransitionError struct {
	From   Status
	To     Status
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition from %s to %s (%s)", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// Unwrap lets response.Error surface the transition as a 409.
func (e *InvalidTransitionError) Unwrap() error {
	return apperror.New(http.StatusConflict, e.Error())
}

type ActorType string

const (
	ActorCustomer ActorType = "CUSTOMER"
	ActorStaff    ActorType = "STAFF"
	ActorSystem   ActorType = "SYSTEM"
	ActorAPI      ActorType = "API"
)

// Actor records who requested an operation. Persisted as structured JSON
// alongside the booking row.
type Actor struct {
	Type    ActorType      `json:"type"`
	ID      string         `json:"id"`
	Details map[string]any `json:"details,omitempty"`
}

func (a Actor) Validate() error {
	if a.ID == "" {
		return ErrInvalidActor
	}
	switch a.Type {
	case ActorCustomer, ActorStaff, ActorSystem, ActorAPI:
		return nil
	default:
		return apperror.New(http.StatusBadRequest, fmt.Sprintf("unknown actor type %q", a.Type))
	}
}

type RequestType string

const (
	RequestCustomerBooking RequestType = "CUSTOMER_BOOKING"
	RequestAdminBlock      RequestType = "ADMIN_BLOCK"
)

// TimeSlotRequest is a request to reserve a period on a resource.
type TimeSlotRequest struct {
	ResourceID string
	Period     timerange.TimeRange
	Type       RequestType
	Metadata   map[string]any
}

// NewTimeSlotRequest validates and builds a reservation request.
func NewTimeSlotRequest(resourceID string, period timerange.TimeRange, typ RequestType) (*TimeSlotRequest, error) {
	if resourceID == "" {
		return nil, ErrResourceNotFound
	}
	if typ != RequestCustomerBooking && typ != RequestAdminBlock {
		return nil, apperror.New(http.StatusBadRequest, fmt.Sprintf("unknown request type %q", typ))
	}
	return &TimeSlotRequest{ResourceID: resourceID, Period: period, Type: typ}, nil
}

// Booking is a reservation of a period on a resource. Its status is mutated
// only through the transition methods below.
//
// Invariant: HoldExpiresAt is non-nil iff Status is HELD. Every transition
// away from HELD clears it.
type Booking struct {
	ID            string
	ResourceID    string
	Period        timerange.TimeRange
	Status        Status
	HoldExpiresAt *time.Time
	Actor         Actor
	ServiceRef    string
	Metadata      map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Hold moves a PENDING booking into HELD with the given expiry, which must be
// strictly in the future.
func (b *Booking) Hold(expiresAt, now time.Time) error {
	if b.Status != StatusPending {
		return &InvalidTransitionError{From: b.Status, To: StatusHeld, Reason: "only PENDING bookings can be held"}
	}
	if !expiresAt.After(now) {
		return ErrHoldExpiryPast
	}

	b.Status = StatusHeld
	b.HoldExpiresAt = &expiresAt
	b.touch(now)
	return nil
}

// Confirm moves a PENDING or HELD booking into CONFIRMED. A HELD booking
// whose expiry has already passed must be re-held first.
func (b *Booking) Confirm(now time.Time) error {
	if b.Status != StatusPending && b.Status != StatusHeld {
		return &InvalidTransitionError{From: b.Status, To: StatusConfirmed}
	}
	if b.Status == StatusHeld && b.holdExpired(now) {
		return &InvalidTransitionError{From: b.Status, To: StatusConfirmed, Reason: "hold has expired"}
	}

	b.Status = StatusConfirmed
	b.HoldExpiresAt = nil
	b.touch(now)
	return nil
}

// Cancel moves any non-terminal booking into CANCELLED, recording the reason
// in metadata. Cancelling an already-terminal booking is an error.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.Status.IsTerminal() {
		return &InvalidTransitionError{From: b.Status, To: StatusCancelled, Reason: "already terminal"}
	}

	b.Status = StatusCancelled
	b.HoldExpiresAt = nil
	b.addMetadata("cancellation_reason", reason)
	b.touch(now)
	return nil
}

// Complete moves a CONFIRMED booking into COMPLETED.
func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusConfirmed {
		return &InvalidTransitionError{From: b.Status, To: StatusCompleted, Reason: "only CONFIRMED bookings can complete"}
	}
	b.Status = StatusCompleted
	b.touch(now)
	return nil
}

// MarkNoShow moves a CONFIRMED booking into NO_SHOW.
func (b *Booking) MarkNoShow(now time.Time) error {
	if b.Status != StatusConfirmed {
		return &InvalidTransitionError{From: b.Status, To: StatusNoShow, Reason: "only CONFIRMED bookings can be marked no-show"}
	}
	b.Status = StatusNoShow
	b.touch(now)
	return nil
}

// IsActive reports whether the booking blocks its resource at the given
// instant: CONFIRMED, or HELD with an unexpired hold. This is the single
// "active" definition shared by availability reads and the store's write-path
// conflict check.
func (b *Booking) IsActive(now time.Time) bool {
	switch b.Status {
	case StatusConfirmed:
		return true
	case StatusHeld:
		return !b.holdExpired(now)
	default:
		return false
	}
}

// NormalizeHold enforces the hold-expiry invariant after loading a row:
// a HELD booking must carry an expiry, a non-HELD one must not.
func (b *Booking) NormalizeHold() error {
	if b.Status == StatusHeld && b.HoldExpiresAt == nil {
		return ErrMissingHoldEnd
	}
	if b.Status != StatusHeld {
		b.HoldExpiresAt = nil
	}
	return nil
}

func (b *Booking) holdExpired(now time.Time) bool {
	return b.HoldExpiresAt != nil && !b.HoldExpiresAt.After(now)
}

func (b *Booking) touch(now time.Time) {
	b.UpdatedAt = now
}

func (b *Booking) addMetadata(key string, value any) {
	if b.Metadata == nil {
		b.Metadata = make(map[string]any)
	}
	b.Metadata[key] = value
}

// Filter narrows booking list queries.
type Filter struct {
	ResourceID string
	Status     string
	ActorID    string
	From       *time.Time // bookings ending after this instant
	To         *time.Time // bookings starting before this instant
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
