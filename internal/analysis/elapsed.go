package analysis

import (
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultElapsedSeconds is used when timestamps cannot give a usable gap.
	DefaultElapsedSeconds = 5.0
	maxElapsedSeconds     = 3600.0
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
}

// ParseTimestamp reads a broker timestamp. Zone-less layouts are read as
// UTC, which is fine for differences between timestamps from one source.
// Bare integers are unix seconds, or milliseconds beyond 1e12.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n), nil
		}
		return time.Unix(n, 0), nil
	}

	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ElapsedSeconds returns the gap between two snapshot timestamps, falling
// back to DefaultElapsedSeconds when either is unparsable or the gap is
// outside (0, 3600].
func ElapsedSeconds(previous, current string) float64 {
	prev, err := ParseTimestamp(previous)
	if err != nil {
		return DefaultElapsedSeconds
	}
	cur, err := ParseTimestamp(current)
	if err != nil {
		return DefaultElapsedSeconds
	}

	diff := cur.Sub(prev).Seconds()
	if diff <= 0 || diff > maxElapsedSeconds {
		return DefaultElapsedSeconds
	}
	return diff
}
