package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatermarkFromMillis(t *testing.T) {
	assert.True(t, watermarkFromMillis(nil).IsZero(), "empty collection yields the zero time")

	zero := 0.0
	assert.True(t, watermarkFromMillis(&zero).IsZero())

	ms := float64(time.Date(2024, 6, 1, 12, 0, 0, 500_000_000, time.UTC).UnixMilli())
	got := watermarkFromMillis(&ms)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 500_000_000, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestWatermarkFromMillisOrdersSubSecond(t *testing.T) {
	// Timestamps one fractional digit apart within the same second must
	// keep their chronological order through the millisecond conversion.
	earlier := float64(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli())
	later := float64(time.Date(2024, 6, 1, 12, 0, 0, 500_000_000, time.UTC).UnixMilli())

	assert.True(t, watermarkFromMillis(&earlier).Before(watermarkFromMillis(&later)))
}
