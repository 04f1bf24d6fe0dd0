package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidHours indicates the configured company hours are not ordered.
var ErrInvalidHours = errors.New("invalid company hours")

// Period classifies a moment against company hours.
type Period int

const (
	BeforeHours Period = iota
	BreakTime
	WorkingHours
	AfterHours
)

func (p Period) String() string {
	switch p {
	case BeforeHours:
		return "before_hours"
	case BreakTime:
		return "break_time"
	case WorkingHours:
		return "working_hours"
	case AfterHours:
		return "after_hours"
	default:
		return "unknown"
	}
}

// Hours holds the company day boundaries as offsets from local midnight.
type Hours struct {
	Open       time.Duration
	BreakStart time.Duration
	BreakEnd   time.Duration
	Close      time.Duration
}

// DefaultHours returns 08:00 open, 12:15-13:15 lunch, 18:30 close.
func DefaultHours() Hours {
	return Hours{
		Open:       8 * time.Hour,
		BreakStart: 12*time.Hour + 15*time.Minute,
		BreakEnd:   13*time.Hour + 15*time.Minute,
		Close:      18*time.Hour + 30*time.Minute,
	}
}

// Validate checks open < break start < break end < close within one day.
func (h Hours) Validate() error {
	if h.Open < 0 || h.Close > 24*time.Hour {
		return fmt.Errorf("%w: hours must fall within one day", ErrInvalidHours)
	}
	if !(h.Open < h.BreakStart && h.BreakStart < h.BreakEnd && h.BreakEnd < h.Close) {
		return fmt.Errorf("%w: expected open < break start < break end < close", ErrInvalidHours)
	}
	return nil
}

// Calendar classifies timestamps and measures business-hour durations.
// It holds no mutable state and is safe for concurrent use.
type Calendar struct {
	hours Hours
}

// New creates a Calendar for the given hours.
func New(hours Hours) (*Calendar, error) {
	if err := hours.Validate(); err != nil {
		return nil, err
	}
	return &Calendar{hours: hours}, nil
}

// Default returns a Calendar using DefaultHours.
func Default() *Calendar {
	return &Calendar{hours: DefaultHours()}
}

// Hours returns the configured boundaries.
func (c *Calendar) Hours() Hours {
	return c.hours
}

// Classify places t against the day boundaries. The lunch break wins over
// every other period.
func (c *Calendar) Classify(t time.Time) Period {
	offset := sinceMidnight(t)
	switch {
	case offset >= c.hours.BreakStart && offset < c.hours.BreakEnd:
		return BreakTime
	case offset < c.hours.Open:
		return BeforeHours
	case offset >= c.hours.Close:
		return AfterHours
	default:
		return WorkingHours
	}
}

// ShouldAccumulate reports whether time spent in the period counts as work,
// with a reason when it does not.
func (c *Calendar) ShouldAccumulate(period Period) (bool, string) {
	switch period {
	case BeforeHours:
		return false, "before business hours"
	case BreakTime:
		return false, "lunch break"
	case AfterHours:
		return false, "after business hours"
	default:
		return true, ""
	}
}

// IsBreak reports whether t falls inside the lunch window.
func (c *Calendar) IsBreak(t time.Time) bool {
	return c.Classify(t) == BreakTime
}

// BusinessDuration measures the business time between start and end on the
// calendar day of start. The interval is clamped to opening hours and the
// lunch overlap is removed.
func (c *Calendar) BusinessDuration(start, end time.Time) time.Duration {
	if !start.Before(end) {
		return 0
	}

	open := at(start, c.hours.Open)
	closing := at(start, c.hours.Close)
	if start.Before(open) {
		start = open
	}
	if end.After(closing) {
		end = closing
	}
	if !start.Before(end) {
		return 0
	}

	breakStart := at(start, c.hours.BreakStart)
	breakEnd := at(start, c.hours.BreakEnd)
	total := end.Sub(start)
	overlapStart := maxTime(start, breakStart)
	overlapEnd := minTime(end, breakEnd)
	if overlapStart.Before(overlapEnd) {
		total -= overlapEnd.Sub(overlapStart)
	}
	return total.Truncate(time.Second)
}

// MultiDayDuration sums business time across calendar days.
func (c *Calendar) MultiDayDuration(start, end time.Time) time.Duration {
	if !start.Before(end) {
		return 0
	}
	if SameDay(start, end) {
		return c.BusinessDuration(start, end)
	}

	total := c.BusinessDuration(start, at(start, c.hours.Close))

	endDay := midnight(end)
	day := midnight(start).AddDate(0, 0, 1)
	for day.Before(endDay) {
		total += c.BusinessDuration(at(day, c.hours.Open), at(day, c.hours.Close))
		day = day.AddDate(0, 0, 1)
	}

	total += c.BusinessDuration(at(end, c.hours.Open), end)
	return total
}

// ParseClock parses a time of day such as "08:00" or "12:15:30" into an
// offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q", value)
	}
	limits := []int{23, 59, 59}
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	var offset time.Duration
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid time of day %q", value)
		}
		offset += time.Duration(n) * units[i]
	}
	return offset, nil
}

// FormatClock renders a midnight offset as "HH:MM".
func FormatClock(offset time.Duration) string {
	offset = offset.Truncate(time.Minute)
	return fmt.Sprintf("%02d:%02d", int(offset/time.Hour), int(offset%time.Hour/time.Minute))
}

func sinceMidnight(t time.Time) time.Duration {
	return t.Sub(midnight(t))
}

func midnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func at(day time.Time, offset time.Duration) time.Time {
	return midnight(day).Add(offset)
}

// SameDay reports whether a and b fall on the same calendar date in the
// location of a.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
