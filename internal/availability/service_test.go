package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvillarreal-dev/booking-core/internal/booking"
	"github.com/jvillarreal-dev/booking-core/internal/schedule"
)

type stubScheduleProvider struct {
	cfg map[string]schedule.Config
	err error
}

func (s *stubScheduleProvider) LoadSchedule(_ context.Context, resourceID string) (*schedule.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	cfg, ok := s.cfg[resourceID]
	if !ok {
		return nil, schedule.ErrNotConfigured
	}
	return &cfg, nil
}

var panamaWeekdays = []string{"MON", "TUE", "WED", "THU", "FRI"}

// panamaProvider serves a 09:00-18:00 America/Panama (UTC-5) weekday shift
// with a 13:00-14:00 lunch break: open 14:00-18:00Z and 19:00-23:00Z.
func panamaProvider() *stubScheduleProvider {
	return &stubScheduleProvider{cfg: map[string]schedule.Config{
		"res-1": {
			Timezone:     "America/Panama",
			WeeklyShifts: []schedule.WeeklyShift{{Days: panamaWeekdays, Start: "09:00", End: "18:00"}},
			GlobalBreaks: []schedule.Break{{Name: "Lunch", Days: panamaWeekdays, Start: "13:00", End: "14:00"}},
		},
	}}
}

func TestServiceSlots(t *testing.T) {
	ctx := context.Background()
	// Monday 2024-06-17 as a full UTC day.
	window := tr(t,
		time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 18, 0, 0, 0, 0, time.UTC),
	)
	// Clock well before the window so no slot is dropped as past.
	clock := func() time.Time { return time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC) }
	hourCfg := ServiceConfig{DurationMinutes: 60, GranularityMinutes: 60}

	t.Run("free monday yields eight hour slots", func(t *testing.T) {
		repo := booking.NewMemoryRepository(clock)
		svc := NewService(panamaProvider(), repo, clock, nil)

		slots, err := svc.Slots(ctx, "res-1", window, hourCfg)
		require.NoError(t, err)
		require.Len(t, slots, 8)

		assert.Equal(t, time.Date(2024, 6, 17, 14, 0, 0, 0, time.UTC), slots[0].Start)

		var at18, at19 int
		for _, s := range slots {
			if s.Start.Equal(time.Date(2024, 6, 17, 18, 0, 0, 0, time.UTC)) {
				at18++
			}
			if s.Start.Equal(time.Date(2024, 6, 17, 19, 0, 0, 0, time.UTC)) {
				at19++
			}
		}
		assert.Zero(t, at18, "lunch hour must not be offered")
		assert.Equal(t, 1, at19)
	})

	t.Run("active booking removes exactly its slot", func(t *testing.T) {
		repo := booking.NewMemoryRepository(clock)
		period := tr(t,
			time.Date(2024, 6, 17, 15, 0, 0, 0, time.UTC),
			time.Date(2024, 6, 17, 16, 0, 0, 0, time.UTC),
		)
		req, err := booking.NewTimeSlotRequest("res-1", period, booking.RequestCustomerBooking)
		require.NoError(t, err)
		_, err = repo.CreateHold(ctx, req, booking.Actor{Type: booking.ActorCustomer, ID: "cust-1"}, clock().Add(10*time.Minute))
		require.NoError(t, err)

		svc := NewService(panamaProvider(), repo, clock, nil)
		slots, err := svc.Slots(ctx, "res-1", window, hourCfg)
		require.NoError(t, err)

		require.Len(t, slots, 7)
		for _, s := range slots {
			assert.False(t, s.Start.Equal(period.Start), "booked slot still offered")
		}
	})

	t.Run("closed exception yields zero slots", func(t *testing.T) {
		provider := panamaProvider()
		cfg := provider.cfg["res-1"]
		cfg.Exceptions = []schedule.Exception{{Date: "2024-06-17", Type: schedule.ExceptionClosed, Reason: "holiday"}}
		provider.cfg["res-1"] = cfg

		svc := NewService(provider, booking.NewMemoryRepository(clock), clock, nil)
		slots, err := svc.Slots(ctx, "res-1", window, hourCfg)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("invalid slot configuration", func(t *testing.T) {
		svc := NewService(panamaProvider(), booking.NewMemoryRepository(clock), clock, nil)
		_, err := svc.Slots(ctx, "res-1", window, ServiceConfig{DurationMinutes: 0, GranularityMinutes: 60})
		assert.ErrorIs(t, err, ErrInvalidServiceConfig)
	})

	t.Run("schedule provider errors propagate", func(t *testing.T) {
		svc := NewService(&stubScheduleProvider{err: schedule.ErrNotConfigured}, booking.NewMemoryRepository(clock), clock, nil)
		_, err := svc.Slots(ctx, "res-1", window, hourCfg)
		assert.ErrorIs(t, err, schedule.ErrNotConfigured)
	})

	t.Run("cancelled booking frees its slot again", func(t *testing.T) {
		repo := booking.NewMemoryRepository(clock)
		period := tr(t,
			time.Date(2024, 6, 17, 15, 0, 0, 0, time.UTC),
			time.Date(2024, 6, 17, 16, 0, 0, 0, time.UTC),
		)
		req, err := booking.NewTimeSlotRequest("res-1", period, booking.RequestCustomerBooking)
		require.NoError(t, err)
		held, err := repo.CreateHold(ctx, req, booking.Actor{Type: booking.ActorCustomer, ID: "cust-1"}, clock().Add(10*time.Minute))
		require.NoError(t, err)
		_, err = repo.Cancel(ctx, held.ID, "changed plans")
		require.NoError(t, err)

		svc := NewService(panamaProvider(), repo, clock, nil)
		slots, err := svc.Slots(ctx, "res-1", window, hourCfg)
		require.NoError(t, err)
		assert.Len(t, slots, 8)
	})
}
