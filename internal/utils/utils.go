package utils

import (
	"context"
	"strings"
	"time"
)

// after is swapped in tests.
var after = time.After

// WaitFor blocks for d or until ctx is done, whichever comes first.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-after(d):
		return nil
	}
}

// Backoff returns base doubled for every attempt after the first, capped at
// limit when limit is positive.
func Backoff(base time.Duration, attempt int, limit time.Duration) time.Duration {
	if attempt <= 1 || base <= 0 {
		return base
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if limit > 0 && d >= limit {
			return limit
		}
	}
	return d
}

// TruncateForLog trims s and cuts it to limit runes, appending an ellipsis
// when something was cut.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
