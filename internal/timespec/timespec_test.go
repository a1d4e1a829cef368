package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestParse(t *testing.T) {
	at := time.Date(2025, 10, 29, 13, 0, 0, 0, time.UTC)
	withNow(t, at)

	tests := []struct {
		spec string
		want time.Time
	}{
		{"1h", at.Add(-time.Hour)},
		{"1h30m", at.Add(-90 * time.Minute)},
		{"3d", at.Add(-72 * time.Hour)},
		{"0d", at},
		{"2025-10-01T00:00:00Z", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Parse(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want.UnixMilli(), got)
		})
	}

	t.Run("rejects bad input", func(t *testing.T) {
		for _, spec := range []string{"", "yesterday", "d", "-2h", "1.5d"} {
			_, err := Parse(spec)
			assert.Error(t, err, spec)
		}
	})
}

func TestParseRange(t *testing.T) {
	withNow(t, time.Date(2025, 10, 29, 13, 0, 0, 0, time.UTC))

	since, until, err := ParseRange("2d", "1h")
	require.NoError(t, err)
	assert.Less(t, since, until)

	since, until, err = ParseRange("", "")
	require.NoError(t, err)
	assert.Zero(t, since)
	assert.Zero(t, until)

	_, _, err = ParseRange("1h", "2d")
	assert.EqualError(t, err, "--since must be before --until")

	_, _, err = ParseRange("soon", "")
	assert.ErrorContains(t, err, "invalid --since")
}
