package resilience

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// StatusError reports an upstream response that stayed retryable after the
// last attempt.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("resilience: upstream responded %s", e.Status)
}

// HTTPClient wraps an http.Client with per-attempt timeouts, retries with
// jittered backoff and a circuit breaker. 5xx and 429 responses are retried;
// a 429 Retry-After header overrides the backoff.
type HTTPClient struct {
	Client      *http.Client
	Breaker     *Breaker
	Target      string
	BaseBackoff time.Duration
	MaxAttempts int
	Jitter      float64
	Timeout     time.Duration
	// MaxRetryAfter caps how long a Retry-After header can stall a request.
	MaxRetryAfter time.Duration
}

// Do executes req. The body is buffered so it can be replayed on retry.
func (cl HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if cl.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	maxAttempts := cl.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	baseBackoff := cl.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}
	maxRetryAfter := cl.MaxRetryAfter
	if maxRetryAfter <= 0 {
		maxRetryAfter = 5 * time.Second
	}
	target := cl.Target
	if target == "" {
		target = "default"
	}

	body, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if cl.Breaker != nil && !cl.Breaker.Allow(ctx) {
			UpstreamAttempts.WithLabelValues(target, "rejected").Inc()
			lastErr = ErrOpenCircuit
			break
		}
		resp, err := cl.doOnce(ctx, cloneRequest(ctx, req, body))
		if err == nil && !retryable(resp.StatusCode) {
			cl.report(ctx, true)
			UpstreamAttempts.WithLabelValues(target, "ok").Inc()
			return resp, nil
		}

		wait := Backoff(baseBackoff, attempt, cl.Jitter)
		if err != nil {
			lastErr = err
			cl.report(ctx, false)
			UpstreamAttempts.WithLabelValues(target, "error").Inc()
		} else {
			lastErr = &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
			if resp.StatusCode == http.StatusTooManyRequests {
				// throttling is not an outage
				cl.report(ctx, true)
				UpstreamAttempts.WithLabelValues(target, "throttled").Inc()
				if d, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
					wait = min(d, maxRetryAfter)
				}
			} else {
				cl.report(ctx, false)
				UpstreamAttempts.WithLabelValues(target, "server_error").Inc()
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == maxAttempts {
			break
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (cl HTTPClient) report(ctx context.Context, ok bool) {
	if cl.Breaker != nil {
		cl.Breaker.Report(ctx, ok)
	}
}

func (cl HTTPClient) doOnce(ctx context.Context, req *http.Request) (*http.Response, error) {
	timeout := cl.Timeout
	if timeout <= 0 {
		return cl.Client.Do(req)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	resp, err := cl.Client.Do(req.WithContext(callCtx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func retryable(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

func retryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second)), true
	}
	if at, err := http.ParseTime(v); err == nil {
		return time.Until(at), true
	}
	return 0, false
}

func replayableBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	_ = req.Body.Close()
	return data, nil
}

func cloneRequest(ctx context.Context, req *http.Request, body []byte) *http.Request {
	clone := req.Clone(ctx)
	if body != nil {
		clone.Body = io.NopCloser(bytes.NewReader(body))
		clone.ContentLength = int64(len(body))
		clone.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	return clone
}
