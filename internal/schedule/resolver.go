package schedule

import (
	"context"
	"time"

	"github.com/jvillarreal-dev/booking-core/internal/timerange"
)

// Provider loads the working calendar for a resource. Implementations decide
// what happens when no calendar is configured: strict deployments must fail
// loudly, permissive ones may substitute Default().
type Provider interface {
	LoadSchedule(ctx context.Context, resourceID string) (*Config, error)
}

// EffectiveRanges turns the weekly schedule plus exceptions into concrete UTC
// ranges inside the window. Day iteration, weekday matching and wall-clock
// arithmetic all happen in the resource's zone; conversion to absolute time
// happens exactly once per boundary. Results are chronological, disjoint and
// clipped to the window.
func EffectiveRanges(window timerange.TimeRange, cfg Config) ([]timerange.TimeRange, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	exceptions := make(map[string]Exception, len(cfg.Exceptions))
	for _, exc := range cfg.Exceptions {
		exceptions[exc.Date] = exc
	}

	var ranges []timerange.TimeRange

	first := window.Start.In(loc)
	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)

	for day.Before(window.End) {
		localDay := day
		day = day.AddDate(0, 0, 1)

		dateKey := localDay.Format("2006-01-02")

		var startClock, endClock string
		if exc, ok := exceptions[dateKey]; ok {
			switch exc.Type {
			case ExceptionClosed, ExceptionBlackout:
				continue
			case ExceptionModified:
				// A MODIFIED exception without replacement hours closes the day.
				if exc.Start == "" || exc.End == "" {
					continue
				}
				startClock, endClock = exc.Start, exc.End
			}
		}

		if startClock == "" {
			shift, ok := shiftForDay(cfg.WeeklyShifts, localDay.Weekday())
			if !ok {
				continue
			}
			startClock, endClock = shift.Start, shift.End
		}

		start, err := atClock(localDay, startClock, loc)
		if err != nil {
			return nil, err
		}
		end, err := atClock(localDay, endClock, loc)
		if err != nil {
			return nil, err
		}
		if !end.After(start) {
			continue
		}

		r := timerange.TimeRange{Start: start, End: end}
		if clipped, ok := r.Clip(window); ok {
			ranges = append(ranges, clipped)
		}
	}

	return ranges, nil
}

// SubtractBreaks removes every configured break from each range whose
// originating calendar day (in the resource's zone) matches the break's
// day-set. Each subtraction can split a range into up to two parts.
func SubtractBreaks(ranges []timerange.TimeRange, cfg Config) ([]timerange.TimeRange, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	current := ranges
	for _, brk := range cfg.GlobalBreaks {
		var next []timerange.TimeRange
		for _, r := range current {
			localStart := r.Start.In(loc)
			if !daysInclude(brk.Days, localStart.Weekday()) {
				next = append(next, r)
				continue
			}

			localDay := time.Date(localStart.Year(), localStart.Month(), localStart.Day(), 0, 0, 0, 0, loc)
			brkStart, err := atClock(localDay, brk.Start, loc)
			if err != nil {
				return nil, err
			}
			brkEnd, err := atClock(localDay, brk.End, loc)
			if err != nil {
				return nil, err
			}
			if !brkEnd.After(brkStart) {
				next = append(next, r)
				continue
			}

			next = append(next, r.Difference(timerange.TimeRange{Start: brkStart, End: brkEnd})...)
		}
		current = next
	}

	return current, nil
}

func shiftForDay(shifts []WeeklyShift, wd time.Weekday) (WeeklyShift, bool) {
	for _, s := range shifts {
		if daysInclude(s.Days, wd) {
			return s, true
		}
	}
	return WeeklyShift{}, false
}

// atClock anchors a wall-clock string on the given local calendar day and
// returns the absolute UTC instant.
func atClock(localDay time.Time, clock string, loc *time.Location) (time.Time, error) {
	hour, minute, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(localDay.Year(), localDay.Month(), localDay.Day(), hour, minute, 0, 0, loc).UTC(), nil
}
