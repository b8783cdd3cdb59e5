package resilience

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"
)

// Client retries outbound HTTP requests with exponential backoff and routes
// them through a circuit breaker. It exposes the same Do signature as
// *http.Client so the gateway clients accept either interchangeably.
type Client struct {
	Base        *http.Client
	Breaker     *Breaker
	MaxAttempts int
	BaseBackoff time.Duration
	Jitter      float64
}

// Do executes the request, retrying on transport errors and 5xx responses.
// The body is buffered once so retries can replay it. When the breaker is
// open ErrOpenCircuit is returned without touching the network.
func (c Client) Do(req *http.Request) (*http.Response, error) {
	base := c.Base
	if base == nil {
		base = &http.Client{Timeout: 10 * time.Second}
	}
	maxAttempts := c.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	body, err := bufferBody(req)
	if err != nil {
		return nil, err
	}
	ctx := req.Context()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if c.Breaker != nil && !c.Breaker.Allow() {
			lastErr = ErrOpenCircuit
			break
		}
		resp, err := base.Do(cloneRequest(req, body))
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			c.report(true)
			return resp, nil
		}
		if err == nil {
			lastErr = errors.New(resp.Status)
			drain(resp)
		} else {
			lastErr = err
		}
		c.report(false)
		if attempt == maxAttempts {
			break
		}
		timer := time.NewTimer(Backoff(c.BaseBackoff, attempt, c.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (c Client) report(success bool) {
	if c.Breaker != nil {
		c.Breaker.Report(success)
	}
}

func bufferBody(req *http.Request) ([]byte, error) {
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

func cloneRequest(req *http.Request, body []byte) *http.Request {
	clone := req.Clone(req.Context())
	if body != nil {
		clone.Body = io.NopCloser(bytes.NewReader(body))
		clone.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		clone.ContentLength = int64(len(body))
	}
	return clone
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
