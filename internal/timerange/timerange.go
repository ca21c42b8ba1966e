package timerange

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jvillarreal-dev/booking-core/internal/pkg/apperror"
)

var ErrInvalidRange = apperror.New(http.StatusBadRequest, "end time must be strictly after start time")

// TimeRange is a half-open interval [Start, End) in absolute (UTC) time.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// New builds a TimeRange, normalizing both instants to UTC.
// Fails unless end is strictly after start.
func New(start, end time.Time) (TimeRange, error) {
	if !end.After(start) {
		return TimeRange{}, ErrInvalidRange
	}
	return TimeRange{Start: start.UTC(), End: end.UTC()}, nil
}

// FromISO parses two RFC3339 instants into a TimeRange.
func FromISO(startISO, endISO string) (TimeRange, error) {
	start, err := time.Parse(time.RFC3339, startISO)
	if err != nil {
		return TimeRange{}, apperror.Wrap(err, http.StatusBadRequest, "invalid start instant")
	}
	end, err := time.Parse(time.RFC3339, endISO)
	if err != nil {
		return TimeRange{}, apperror.Wrap(err, http.StatusBadRequest, "invalid end instant")
	}
	return New(start, end)
}

// Overlaps reports whether the two half-open intervals share any instant.
// Touching endpoints ([a,b) and [b,c)) do not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && r.End.After(other.Start)
}

// Contains reports whether t falls inside [Start, End).
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Difference returns the parts of r not covered by other: zero, one or two
// sub-ranges, in chronological order.
func (r TimeRange) Difference(other TimeRange) []TimeRange {
	if !r.Overlaps(other) {
		return []TimeRange{r}
	}

	var parts []TimeRange
	if r.Start.Before(other.Start) {
		parts = append(parts, TimeRange{Start: r.Start, End: other.Start})
	}
	if r.End.After(other.End) {
		parts = append(parts, TimeRange{Start: other.End, End: r.End})
	}
	return parts
}

// Clip intersects r with window. ok is false when the intersection is empty.
func (r TimeRange) Clip(window TimeRange) (TimeRange, bool) {
	if !r.Overlaps(window) {
		return TimeRange{}, false
	}
	clipped := r
	if window.Start.After(clipped.Start) {
		clipped.Start = window.Start
	}
	if window.End.Before(clipped.End) {
		clipped.End = window.End
	}
	if !clipped.End.After(clipped.Start) {
		return TimeRange{}, false
	}
	return clipped, true
}

// Duration returns the length of the interval.
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// DurationMinutes returns the length of the interval in whole minutes.
func (r TimeRange) DurationMinutes() int {
	return int(r.End.Sub(r.Start) / time.Minute)
}

// String renders the range in the Postgres half-open literal form.
func (r TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}
