package bitewise

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy controls how rate-limited requests are retried.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy waits 5s, 10s, 20s ... up to two minutes.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 5, BaseDelay: 5 * time.Second, MaxDelay: 120 * time.Second}

// StatusError is a non-success HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// parseRetryAfter parses the Retry-After header value and returns duration
func parseRetryAfter(retryAfter string) time.Duration {
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if retryTime, err := time.Parse(time.RFC1123, retryAfter); err == nil {
		return time.Until(retryTime)
	}

	return 0
}

// doWithRetry sends the request built by newRequest and returns the body of
// the first 200 response. 429 responses are retried honouring Retry-After,
// falling back to exponential backoff capped at policy.MaxDelay.
func doWithRetry(ctx context.Context, client *http.Client, policy RetryPolicy, log *zap.SugaredLogger, newRequest func(context.Context) (*http.Request, error)) ([]byte, error) {
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		req, err := newRequest(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to call %s: %w", req.URL.Host, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt == policy.MaxRetries {
				return nil, fmt.Errorf("rate limit exceeded after %d retries: %w", policy.MaxRetries, &StatusError{StatusCode: resp.StatusCode, Body: string(body)})
			}

			retryAfter := resp.Header.Get("Retry-After")
			retryDelay := parseRetryAfter(retryAfter)
			if retryDelay <= 0 {
				retryDelay = policy.BaseDelay * time.Duration(1<<attempt)
			}
			if retryDelay > policy.MaxDelay {
				retryDelay = policy.MaxDelay
			}

			log.Warnf("Rate limit hit (attempt %d/%d), retrying in %v (retry-after: %s)", attempt+1, policy.MaxRetries+1, retryDelay, retryAfter)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		return body, nil
	}

	return nil, fmt.Errorf("unexpected error in retry loop")
}
