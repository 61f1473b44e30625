package cache

import (
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

// DefaultTokenDuration is returned by ParseDurationToken for tokens it
// cannot parse.
const DefaultTokenDuration = 15 * time.Minute

// ParseDurationToken parses a compact duration token (a count plus a unit
// suffix such as "30s", "5m", "4h", "1d" or "1w") into a duration. An
// unrecognized or non-positive token yields DefaultTokenDuration.
func ParseDurationToken(token string) time.Duration {
	d, err := str2duration.ParseDuration(token)
	if err != nil || d <= 0 {
		return DefaultTokenDuration
	}
	return d
}

// UntilNextBoundary returns the time remaining until the next boundary of a
// fixed-width period, plus a drift allowance. Use it to align a cached
// value's TTL so it expires just after its source refreshes: for example
// bars on a 5-minute window cached with UntilNextBoundary(5*time.Minute,
// 5*time.Second) expire five seconds into the next window.
func UntilNextBoundary(period, drift time.Duration) time.Duration {
	return untilNextBoundary(time.Now(), period, drift)
}

func untilNextBoundary(now time.Time, period, drift time.Duration) time.Duration {
	if period <= 0 {
		return DefaultTokenDuration
	}
	elapsed := time.Duration(now.UnixNano()) % period
	remaining := period - elapsed + drift
	if remaining < time.Second {
		remaining = time.Second
	}
	return remaining
}
