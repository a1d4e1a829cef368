// Package timespec parses the --since and --until flags of the runs command.
package timespec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// now is replaced in tests.
var now = time.Now

// Parse parses a time specification into a Unix timestamp (milliseconds).
// Supports three formats:
//   - Go duration format: "1h", "30m", "1h30m", "2h45m30s"
//   - Whole days: "3d", "14d"
//   - RFC3339 timestamps: "2025-10-29T13:00:00Z"
//
// Durations and days are relative to the current time: "1h" means one hour ago.
func Parse(spec string) (int64, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty time specification")
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t.UnixMilli(), nil
	}

	if d, ok := parseDays(spec); ok {
		return now().Add(-d).UnixMilli(), nil
	}

	if d, err := time.ParseDuration(spec); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("negative duration: %s", spec)
		}
		return now().Add(-d).UnixMilli(), nil
	}

	return 0, fmt.Errorf("invalid time specification: %s (use a duration like '1h30m', days like '3d' or RFC3339 like '2025-10-29T13:00:00Z')", spec)
}

func parseDays(spec string) (time.Duration, bool) {
	digits, ok := strings.CutSuffix(spec, "d")
	if !ok || digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return time.Duration(n) * 24 * time.Hour, true
}

// ParseRange parses both --since and --until flags into a time range.
// Returns (sinceTimestampMs, untilTimestampMs, error).
// Zero values indicate "no bound" for that end of the range.
func ParseRange(since, until string) (int64, int64, error) {
	var sinceMS, untilMS int64
	var err error

	if since != "" {
		sinceMS, err = Parse(since)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --since: %w", err)
		}
	}

	if until != "" {
		untilMS, err = Parse(until)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --until: %w", err)
		}
	}

	if sinceMS > 0 && untilMS > 0 && sinceMS >= untilMS {
		return 0, 0, fmt.Errorf("--since must be before --until")
	}

	return sinceMS, untilMS, nil
}
