package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewFixed_NormalizesToStoredResolution(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	c := NewFixed(time.Date(2025, 2, 3, 11, 0, 0, 123456789, loc))

	got := c.Now()
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, time.Date(2025, 2, 3, 10, 0, 0, 123456000, time.UTC), got)
	assert.Equal(t, got, c.Now())
}

func TestNewSystem_TruncatesToMicroseconds(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	got := NewSystem().Now()

	assert.Equal(t, time.UTC, got.Location())
	assert.Zero(t, got.Nanosecond()%1000)
	assert.True(t, got.After(before))
}
