package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 5, 14, hour, min, 0, 0, time.UTC)
}

func TestQuietHours_DefaultWindow(t *testing.T) {
	q := QuietHours{Start: 0, End: 9, Location: time.UTC}

	cases := map[int]bool{0: true, 3: true, 8: true, 9: false, 12: false, 23: false}
	for h, want := range cases {
		assert.Equal(t, want, q.IsQuiet(at(h, 30)), "hour %d", h)
	}
	assert.True(t, q.IsQuiet(at(8, 59)))
	assert.False(t, q.IsQuiet(at(9, 0)))
}

func TestQuietHours_WrapsMidnight(t *testing.T) {
	q := QuietHours{Start: 22, End: 6, Location: time.UTC}

	for _, h := range []int{22, 23, 0, 5} {
		assert.True(t, q.IsQuiet(at(h, 0)), "hour %d", h)
	}
	for _, h := range []int{6, 12, 21} {
		assert.False(t, q.IsQuiet(at(h, 0)), "hour %d", h)
	}
}

func TestQuietHours_EqualBoundsDisable(t *testing.T) {
	q := QuietHours{Start: 4, End: 4, Location: time.UTC}
	for h := 0; h < 24; h++ {
		assert.False(t, q.IsQuiet(at(h, 0)), "hour %d", h)
	}
	assert.Equal(t, "disabled", q.String())
}

func TestQuietHours_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	q := QuietHours{Start: 0, End: 9, Location: loc}

	// 22:00 UTC is 01:00 at UTC+3.
	assert.True(t, q.IsQuiet(at(22, 0)))
	// 07:00 UTC is 10:00 at UTC+3.
	assert.False(t, q.IsQuiet(at(7, 0)))
	assert.Equal(t, "00:00-09:00", q.String())
}
