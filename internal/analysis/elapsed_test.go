package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp_Layouts(t *testing.T) {
	for _, s := range []string{
		"2026-02-27T14:30:00Z",
		"2026-02-27T14:30:00.250+05:30",
		"2026-02-27 14:30:00",
		"2026-02-27T14:30:00",
		"1772202600",
		"1772202600000",
	} {
		_, err := ParseTimestamp(s)
		require.NoError(t, err, s)
	}

	_, err := ParseTimestamp("not a time")
	assert.Error(t, err)
}

func TestParseTimestamp_UnixMillis(t *testing.T) {
	sec, err := ParseTimestamp("1772202600")
	require.NoError(t, err)
	ms, err := ParseTimestamp("1772202600000")
	require.NoError(t, err)

	assert.True(t, sec.Equal(ms))
}

func TestElapsedSeconds(t *testing.T) {
	tests := []struct {
		name      string
		prev, cur string
		want      float64
	}{
		{"broker layout", "2026-02-27 14:30:00", "2026-02-27 14:30:04", 4},
		{"rfc3339", "2026-02-27T14:30:00Z", "2026-02-27T14:30:02.5Z", 2.5},
		{"one hour is kept", "2026-02-27 14:30:00", "2026-02-27 15:30:00", 3600},
		{"beyond one hour", "2026-02-27 14:30:00", "2026-02-27 15:30:01", DefaultElapsedSeconds},
		{"zero gap", "2026-02-27 14:30:00", "2026-02-27 14:30:00", DefaultElapsedSeconds},
		{"backwards", "2026-02-27 14:30:10", "2026-02-27 14:30:00", DefaultElapsedSeconds},
		{"unparsable", "t0", "t1", DefaultElapsedSeconds},
		{"unix seconds", "1772202600", "1772202603", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ElapsedSeconds(tt.prev, tt.cur), 1e-9)
		})
	}
}
