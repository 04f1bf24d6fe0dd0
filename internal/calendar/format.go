package calendar

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatDuration renders the magnitude of d as zero-padded "HH:MM:SS",
// dropping sub-second precision. Hours grow past two digits when needed.
// This is the storage format: it never carries a sign.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Truncate(time.Second)
	hours := int64(d / time.Hour)
	minutes := int64(d % time.Hour / time.Minute)
	seconds := int64(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatDisplay renders a timer value for humans. Progressive (overtime)
// values carry a "+" prefix, negative values a "-" prefix; the digits are
// always the magnitude.
func FormatDisplay(d time.Duration, progressive bool) string {
	switch {
	case progressive:
		return "+" + FormatDuration(d)
	case d < 0:
		return "-" + FormatDuration(d)
	default:
		return FormatDuration(d)
	}
}

const maxDurationSeconds = int64(math.MaxInt64 / int64(time.Second))

// ParseDuration parses "HH:MM:SS" back into a duration. An empty value is
// zero.
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q: want HH:MM:SS", value)
	}
	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("invalid duration %q: bad hours", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid duration %q: bad minutes", value)
	}
	seconds, err := strconv.Atoi(parts[2])
	if err != nil || seconds < 0 || seconds > 59 || len(parts[2]) != 2 {
		return 0, fmt.Errorf("invalid duration %q: bad seconds", value)
	}
	rest := int64(minutes*60 + seconds)
	if hours > (maxDurationSeconds-rest)/3600 {
		return 0, fmt.Errorf("invalid duration %q: out of range", value)
	}
	return time.Duration(hours*3600+rest) * time.Second, nil
}

// ParseDurationOrZero parses value and falls back to zero on malformed
// input, logging the problem.
func ParseDurationOrZero(value string, logger *slog.Logger) time.Duration {
	d, err := ParseDuration(value)
	if err != nil {
		if logger != nil {
			logger.Warn("malformed stored duration, using zero", "value", value, "error", err)
		}
		return 0
	}
	return d
}
