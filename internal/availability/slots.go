package availability

import (
	"net/http"
	"time"

	"github.com/jvillarreal-dev/booking-core/internal/pkg/apperror"
	"github.com/jvillarreal-dev/booking-core/internal/timerange"
)

var ErrInvalidServiceConfig = apperror.New(http.StatusBadRequest, "invalid slot configuration")

type SlotStatus string

const (
	SlotAvailable   SlotStatus = "AVAILABLE"
	SlotUnavailable SlotStatus = "UNAVAILABLE"
)

// Slot is one bookable unit offered to a caller.
type Slot struct {
	Start  time.Time  `json:"start"`
	End    time.Time  `json:"end"`
	Status SlotStatus `json:"status"`
}

// ServiceConfig shapes slot generation. Granularity is the step between
// candidate slot starts and is independent of duration; buffer is dead time
// reserved after each booked slot but never offered on its own.
type ServiceConfig struct {
	DurationMinutes    int
	GranularityMinutes int
	BufferAfterMinutes int
}

func (c ServiceConfig) Validate() error {
	if c.DurationMinutes <= 0 || c.GranularityMinutes <= 0 || c.BufferAfterMinutes < 0 {
		return ErrInvalidServiceConfig
	}
	return nil
}

// GenerateSlots slices the free ranges into discrete slots. Within a range
// the cursor advances by granularity; a slot is emitted only when duration
// plus buffer fit entirely before the range end (no partial slots) and its
// start is not in the past. Slots never merge across ranges, so output order
// is range order then chronological.
func GenerateSlots(ranges []timerange.TimeRange, cfg ServiceConfig, now time.Time) []Slot {
	duration := time.Duration(cfg.DurationMinutes) * time.Minute
	granularity := time.Duration(cfg.GranularityMinutes) * time.Minute
	occupied := duration + time.Duration(cfg.BufferAfterMinutes)*time.Minute

	var slots []Slot
	for _, r := range ranges {
		for current := r.Start; ; current = current.Add(granularity) {
			if current.Add(occupied).After(r.End) {
				break
			}
			if current.Before(now) {
				continue
			}
			slots = append(slots, Slot{
				Start:  current,
				End:    current.Add(duration),
				Status: SlotAvailable,
			})
		}
	}
	return slots
}

// SubtractBusy removes every busy range from every free range, pairwise,
// accumulating the surviving fragments.
func SubtractBusy(free, busy []timerange.TimeRange) []timerange.TimeRange {
	current := free
	for _, b := range busy {
		var next []timerange.TimeRange
		for _, f := range current {
			next = append(next, f.Difference(b)...)
		}
		current = next
	}
	return current
}
