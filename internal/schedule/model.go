package schedule

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jvillarreal-dev/booking-core/internal/pkg/apperror"
)

var (
	ErrNotConfigured   = apperror.New(http.StatusInternalServerError, "schedule configuration missing")
	ErrInvalidTimezone = apperror.New(http.StatusInternalServerError, "invalid schedule timezone")
	ErrInvalidClock    = apperror.New(http.StatusInternalServerError, "invalid wall-clock time in schedule")
)

// ExceptionType classifies a date-specific override of the weekly schedule.
type ExceptionType string

const (
	ExceptionClosed   ExceptionType = "CLOSED"
	ExceptionModified ExceptionType = "MODIFIED"
	ExceptionBlackout ExceptionType = "BLACKOUT"
)

// WeeklyShift is a recurring working window, repeated on every matching
// weekday. Start and End are local wall-clock "HH:mm" strings.
type WeeklyShift struct {
	Days  []string `mapstructure:"days" json:"days"`
	Start string   `mapstructure:"start" json:"start"`
	End   string   `mapstructure:"end" json:"end"`
}

// Break is a named window subtracted from every matching day's shift.
type Break struct {
	Name  string   `mapstructure:"name" json:"name"`
	Days  []string `mapstructure:"days" json:"days"`
	Start string   `mapstructure:"start" json:"start"`
	End   string   `mapstructure:"end" json:"end"`
}

// Exception overrides the weekly schedule for a single calendar date
// (formatted "2006-01-02" in the resource's timezone). CLOSED and BLACKOUT
// remove the day; MODIFIED replaces the day's hours with Start/End.
type Exception struct {
	Date   string        `mapstructure:"date" json:"date"`
	Type   ExceptionType `mapstructure:"type" json:"type"`
	Start  string        `mapstructure:"start" json:"start,omitempty"`
	End    string        `mapstructure:"end" json:"end,omitempty"`
	Reason string        `mapstructure:"reason" json:"reason,omitempty"`
}

// Config is a resource's full working calendar.
type Config struct {
	Timezone     string        `mapstructure:"timezone" json:"timezone"`
	WeeklyShifts []WeeklyShift `mapstructure:"weekly_shifts" json:"weekly_shifts"`
	GlobalBreaks []Break       `mapstructure:"global_breaks" json:"global_breaks"`
	Exceptions   []Exception   `mapstructure:"exceptions" json:"exceptions"`
}

// Location resolves the configured IANA zone, defaulting to UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, apperror.Wrap(err, http.StatusInternalServerError, fmt.Sprintf("invalid schedule timezone %q", c.Timezone))
	}
	return loc, nil
}

// Default returns the permissive-mode fallback calendar:
// Mon-Fri 09:00-18:00 UTC with a 13:00-14:00 lunch break.
func Default() Config {
	weekdays := []string{"MON", "TUE", "WED", "THU", "FRI"}
	return Config{
		Timezone:     "UTC",
		WeeklyShifts: []WeeklyShift{{Days: weekdays, Start: "09:00", End: "18:00"}},
		GlobalBreaks: []Break{{Name: "Lunch", Days: weekdays, Start: "13:00", End: "14:00"}},
	}
}

var weekdayTokens = map[string]time.Weekday{
	"SUN": time.Sunday,
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
}

// daysInclude reports whether the day-set tokens contain the given weekday.
// Unknown tokens never match.
func daysInclude(days []string, wd time.Weekday) bool {
	for _, d := range days {
		if parsed, ok := weekdayTokens[strings.ToUpper(d)]; ok && parsed == wd {
			return true
		}
	}
	return false
}

// parseClock parses a local wall-clock string ("HH:mm" or "HH:mm:ss")
// into hour and minute components.
func parseClock(s string) (hour, minute int, err error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, apperror.Wrap(ErrInvalidClock, http.StatusInternalServerError, fmt.Sprintf("invalid wall-clock time %q", s))
}
