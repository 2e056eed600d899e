package spotify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"
)

// retryPolicy bounds how often a rate-limited or failing Spotify call is
// resent. The zero value uses three attempts starting at 200ms.
type retryPolicy struct {
	attempts int
	base     time.Duration
}

func (p retryPolicy) budget() int {
	if p.attempts <= 0 {
		return 3
	}
	return p.attempts
}

// delay is the pause before attempt n+1. Spotify's Retry-After hint beats
// the doubling schedule.
func (p retryPolicy) delay(n int, hint time.Duration) time.Duration {
	if hint > 0 {
		return hint
	}
	base := p.base
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	return base << n
}

// send issues a bodiless request until it gets a response that is neither
// 429 nor 5xx, or the budget runs out.
func (p retryPolicy) send(ctx context.Context, hc *http.Client, req *http.Request) (*http.Response, error) {
	budget := p.budget()
	var last string
	for n := 0; n < budget; n++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("spotify adapter: request canceled: %w", err)
		}

		resp, err := hc.Do(req)
		var hint time.Duration
		switch {
		case err != nil:
			last = err.Error()
			log.Printf("WARN spotify adapter: %s failed (attempt %d/%d): %v", req.URL.Path, n+1, budget, err)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			hint = retryAfter(resp.Header.Get("Retry-After"))
			last = fmt.Sprintf("status %d", resp.StatusCode)
			_ = resp.Body.Close()
			log.Printf("WARN spotify adapter: %s returned %d (attempt %d/%d)", req.URL.Path, resp.StatusCode, n+1, budget)
		default:
			return resp, nil
		}

		if n == budget-1 {
			break
		}
		if err := pause(ctx, p.delay(n, hint)); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("spotify adapter: gave up after %d attempts: %s", budget, last)
}

// retryAfter reads either delta-seconds or an HTTP date.
func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs > 0 {
			return time.Duration(secs) * time.Second
		}
		return 0
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("spotify adapter: request canceled: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
