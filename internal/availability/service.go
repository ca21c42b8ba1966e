package availability

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jvillarreal-dev/booking-core/internal/booking"
	"github.com/jvillarreal-dev/booking-core/internal/schedule"
	"github.com/jvillarreal-dev/booking-core/internal/timerange"
)

type Service interface {
	// Slots computes the bookable slots for a resource inside the window:
	// schedule resolution, break subtraction, busy-range subtraction, then
	// slot generation.
	Slots(ctx context.Context, resourceID string, window timerange.TimeRange, cfg ServiceConfig) ([]Slot, error)
}

type service struct {
	schedules schedule.Provider
	repo      booking.Repository
	clock     func() time.Time
	log       *zap.Logger
}

func NewService(schedules schedule.Provider, repo booking.Repository, clock func() time.Time, log *zap.Logger) Service {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		schedules: schedules,
		repo:      repo,
		clock:     clock,
		log:       log,
	}
}

func (s *service) Slots(ctx context.Context, resourceID string, window timerange.TimeRange, cfg ServiceConfig) ([]Slot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sched, err := s.schedules.LoadSchedule(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	effective, err := schedule.EffectiveRanges(window, *sched)
	if err != nil {
		return nil, err
	}

	open, err := schedule.SubtractBreaks(effective, *sched)
	if err != nil {
		return nil, err
	}

	// The store applies the same "active" definition its write path enforces,
	// so a slot shown free here cannot conflict with a row the constraint
	// would accept.
	active, err := s.repo.FindActiveBookings(ctx, resourceID, window)
	if err != nil {
		return nil, err
	}
	busy := make([]timerange.TimeRange, len(active))
	for i, b := range active {
		busy[i] = b.Period
	}

	free := SubtractBusy(open, busy)
	slots := GenerateSlots(free, cfg, s.clock())

	s.log.Debug("availability computed",
		zap.String("resource_id", resourceID),
		zap.Time("window_start", window.Start),
		zap.Time("window_end", window.End),
		zap.Int("busy_ranges", len(busy)),
		zap.Int("slots", len(slots)),
	)
	return slots, nil
}
