package resilience

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxRetryAfter = 2 * time.Second

// HTTPClient retries idempotent upstream calls with backoff, a per-attempt
// timeout and an optional breaker. A nil Breaker admits every attempt.
type HTTPClient struct {
	Client      *http.Client
	Breaker     *Breaker
	BaseBackoff time.Duration
	MaxAttempts int
	Jitter      float64
	Timeout     time.Duration
}

// StatusError reports an upstream response that stayed retryable after the
// final attempt.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string { return "upstream status " + e.Status }

// Do sends req until it gets a non-retryable response. The body is buffered
// once so every attempt sends the same bytes. ErrOpenCircuit is returned once
// the breaker refuses an attempt.
func (cl HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if cl.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	breaker := cl.Breaker
	maxAttempts := cl.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	baseBackoff := cl.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}

	body, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if !breaker.Allow(ctx) {
			lastErr = ErrOpenCircuit
			break
		}
		attemptReq := req.Clone(ctx)
		if body != nil {
			attemptReq.Body, _ = body()
			attemptReq.GetBody = body
		}
		resp, err := cl.doOnce(ctx, attemptReq)
		if err == nil && !retryable(resp.StatusCode) {
			breaker.Report(ctx, true)
			return resp, nil
		}
		sleepFor := Backoff(baseBackoff, attempt, cl.Jitter)
		if err == nil {
			lastErr = &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
			if wait, ok := retryAfter(resp.Header.Get("Retry-After")); ok && wait > sleepFor {
				sleepFor = wait
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		} else {
			lastErr = err
		}
		// 429 means the upstream is healthy but busy.
		breaker.Report(ctx, err == nil && resp.StatusCode == http.StatusTooManyRequests)
		if attempt == maxAttempts {
			break
		}
		timer := time.NewTimer(sleepFor)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// retryAfter reads a Retry-After header given in seconds, capped at
// maxRetryAfter.
func retryAfter(v string) (time.Duration, bool) {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0, false
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter), true
}

// doOnce runs a single attempt. The per-attempt timeout covers reading the
// body as well, so the cancel func is released when the body is closed.
func (cl HTTPClient) doOnce(ctx context.Context, req *http.Request) (*http.Response, error) {
	timeout := cl.Timeout
	if timeout <= 0 {
		timeout = cl.Client.Timeout
	}
	var callCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	resp, err := cl.Client.Do(req.WithContext(callCtx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// replayableBody drains req.Body and returns a factory for fresh readers
// over the same bytes. It returns nil for body-less requests.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("buffer request body: %w", err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}
