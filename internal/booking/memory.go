package booking

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jvillarreal-dev/booking-core/internal/timerange"
)

// memoryRepository is a mutex-guarded Repository with the same conflict and
// self-healing semantics as the Postgres store. It backs unit tests and local
// development without a database.
type memoryRepository struct {
	mu    sync.Mutex
	rows  map[string]*Booking
	clock func() time.Time
}

// NewMemoryRepository builds an in-memory reservation store. The clock is
// injected so hold-expiry behaviour is testable; pass time.Now outside tests.
func NewMemoryRepository(clock func() time.Time) Repository {
	if clock == nil {
		clock = time.Now
	}
	return &memoryRepository{
		rows:  make(map[string]*Booking),
		clock: clock,
	}
}

func (r *memoryRepository) CreateHold(_ context.Context, req *TimeSlotRequest, actor Actor, holdExpiresAt time.Time) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()

	// The mutex makes the reap-then-insert sequence atomic, mirroring the
	// single-statement CTE of the Postgres store.
	for _, row := range r.rows {
		if row.ResourceID != req.ResourceID || !row.Period.Overlaps(req.Period) {
			continue
		}
		if row.IsActive(now) {
			return nil, ErrTimeConflict
		}
		if row.Status == StatusHeld {
			// Expired hold in the way: lazily cancel it and move on.
			if err := row.Cancel("hold_expired", now); err != nil {
				return nil, err
			}
		}
	}

	expiry := holdExpiresAt
	b := &Booking{
		ID:            uuid.NewString(),
		ResourceID:    req.ResourceID,
		Period:        req.Period,
		Status:        StatusHeld,
		HoldExpiresAt: &expiry,
		Actor:         actor,
		Metadata:      holdMetadata(req),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if ref, ok := req.Metadata["service_ref"].(string); ok {
		b.ServiceRef = ref
	}
	r.rows[b.ID] = b

	return copyBooking(b), nil
}

func (r *memoryRepository) Confirm(_ context.Context, id string) (*Booking, error) {
	return r.transition(id, func(b *Booking, now time.Time) error {
		return b.Confirm(now)
	})
}

func (r *memoryRepository) Cancel(_ context.Context, id string, reason string) (*Booking, error) {
	return r.transition(id, func(b *Booking, now time.Time) error {
		return b.Cancel(reason, now)
	})
}

func (r *memoryRepository) Complete(_ context.Context, id string) (*Booking, error) {
	return r.transition(id, func(b *Booking, now time.Time) error {
		return b.Complete(now)
	})
}

func (r *memoryRepository) MarkNoShow(_ context.Context, id string) (*Booking, error) {
	return r.transition(id, func(b *Booking, now time.Time) error {
		return b.MarkNoShow(now)
	})
}

func (r *memoryRepository) transition(id string, apply func(*Booking, time.Time) error) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := apply(b, r.clock()); err != nil {
		return nil, err
	}
	return copyBooking(b), nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyBooking(b), nil
}

func (r *memoryRepository) List(_ context.Context, filter Filter) ([]*Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*Booking
	for _, b := range r.rows {
		if filter.ResourceID != "" && b.ResourceID != filter.ResourceID {
			continue
		}
		if filter.Status != "" && !strings.EqualFold(string(b.Status), filter.Status) {
			continue
		}
		if filter.ActorID != "" && b.Actor.ID != filter.ActorID {
			continue
		}
		if filter.From != nil && !b.Period.End.After(*filter.From) {
			continue
		}
		if filter.To != nil && !b.Period.Start.Before(*filter.To) {
			continue
		}
		matched = append(matched, copyBooking(b))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Period.Start.Before(matched[j].Period.Start)
	})

	total := len(matched)
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *memoryRepository) HasConflicts(_ context.Context, resourceID string, period timerange.TimeRange) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	for _, b := range r.rows {
		if b.ResourceID == resourceID && b.IsActive(now) && b.Period.Overlaps(period) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepository) FindActiveBookings(_ context.Context, resourceID string, period timerange.TimeRange) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	var active []*Booking
	for _, b := range r.rows {
		if b.ResourceID == resourceID && b.IsActive(now) && b.Period.Overlaps(period) {
			active = append(active, copyBooking(b))
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].Period.Start.Before(active[j].Period.Start)
	})
	return active, nil
}

func copyBooking(b *Booking) *Booking {
	dup := *b
	if b.HoldExpiresAt != nil {
		expiry := *b.HoldExpiresAt
		dup.HoldExpiresAt = &expiry
	}
	if b.Metadata != nil {
		dup.Metadata = make(map[string]any, len(b.Metadata))
		for k, v := range b.Metadata {
			dup.Metadata[k] = v
		}
	}
	return &dup
}
