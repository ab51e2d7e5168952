package downloader

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/tanq16/bingo/internal/ytdlp"
)

var retryableMarkers = []string{
	"http error 429",
	"http error 502",
	"http error 503",
	"connectionerror",
	"timeout",
	"readtimeout",
	"timed out",
	"network",
	"unable to download",
}

// RetryPolicy retries transient yt-dlp failures with exponential backoff.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: 5 * time.Second, Multiplier: 2}
}

// Delay is the wait before the given retry (1 is the first retry).
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	return time.Duration(float64(p.InitialDelay) * math.Pow(mult, float64(retry-1)))
}

func (p RetryPolicy) attempts() int {
	return max(p.MaxAttempts, 1)
}

// Retryable reports whether a classified failure is worth another attempt.
// Only process failures qualify; timeouts of the whole run, cancellations
// and missing tools never do.
func Retryable(err *ytdlp.Error) bool {
	if err == nil || err.Kind != ytdlp.KindProcessFailure {
		return false
	}
	lower := strings.ToLower(err.Message)
	for _, marker := range retryableMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
