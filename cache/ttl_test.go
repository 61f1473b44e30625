package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDurationToken(t *testing.T) {
	assert.Equal(t, time.Minute, ParseDurationToken("1m"))
	assert.Equal(t, 5*time.Minute, ParseDurationToken("5m"))
	assert.Equal(t, time.Hour, ParseDurationToken("1h"))
	assert.Equal(t, 24*time.Hour, ParseDurationToken("1d"))
	assert.Equal(t, 7*24*time.Hour, ParseDurationToken("1w"))
	assert.Equal(t, 90*time.Second, ParseDurationToken("1m30s"))
}

func TestParseDurationTokenFallback(t *testing.T) {
	assert.Equal(t, DefaultTokenDuration, ParseDurationToken("invalid"))
	assert.Equal(t, DefaultTokenDuration, ParseDurationToken(""))
	assert.Equal(t, DefaultTokenDuration, ParseDurationToken("0s"))
}

func TestUntilNextBoundary(t *testing.T) {
	// 1000s is 40s into a one-minute window: 20s remain, plus drift.
	now := time.Unix(1000, 0)
	assert.Equal(t, 25*time.Second, untilNextBoundary(now, time.Minute, 5*time.Second))

	// Exactly on a boundary: the full next window remains.
	onBoundary := time.Unix(1200, 0)
	assert.Equal(t, 65*time.Second, untilNextBoundary(onBoundary, time.Minute, 5*time.Second))
}

func TestUntilNextBoundaryNeverBelowOneSecond(t *testing.T) {
	// 100ms before the boundary with no drift.
	now := time.Unix(59, 900_000_000)
	assert.Equal(t, time.Second, untilNextBoundary(now, time.Minute, 0))
}

func TestUntilNextBoundaryInvalidPeriod(t *testing.T) {
	assert.Equal(t, DefaultTokenDuration, untilNextBoundary(time.Now(), 0, time.Second))
}
