package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/internal/metrics"
	"github.com/Checker-Finance/moa-adapter/internal/rate"
)

// Backoff returns the retry sleep duration for the given attempt number.
func Backoff(attempt int) time.Duration {
	switch attempt {
	case 0:
		return 100 * time.Millisecond
	case 1:
		return 250 * time.Millisecond
	default:
		return 500 * time.Millisecond
	}
}

// StatusError is returned when the upstream answers with a non-success status
// and no errorHandler is configured.
type StatusError struct {
	Venue  string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d", e.Venue, e.Status)
}

// Executor handles rate-limited HTTP execution with optional retries and JSON decoding.
type Executor struct {
	logger       *zap.Logger
	rateMgr      *rate.Manager
	http         *http.Client
	retryMax     int
	venueTag     string
	errorHandler func(status int, body []byte) error
}

// New creates an Executor. retryMax is the number of additional attempts after the first;
// zero means exactly one attempt. errorHandler is called on 4xx responses to produce a
// venue-specific error. If nil, a *StatusError is returned.
func New(
	logger *zap.Logger,
	rateMgr *rate.Manager,
	httpClient *http.Client,
	retryMax int,
	venueTag string,
	errorHandler func(status int, body []byte) error,
) *Executor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if retryMax < 0 {
		retryMax = 0
	}
	return &Executor{
		logger:       logger,
		rateMgr:      rateMgr,
		http:         httpClient,
		retryMax:     retryMax,
		venueTag:     venueTag,
		errorHandler: errorHandler,
	}
}

// DoJSON executes req and JSON-decodes a successful response body into out.
// rateLimitKey scopes the rate limiter per host/venue.
func (e *Executor) DoJSON(ctx context.Context, req *http.Request, rateLimitKey string, out any) error {
	body, err := e.Do(ctx, req, rateLimitKey)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		e.logger.Warn(e.venueTag+".decode_failed",
			zap.Error(err),
			zap.String("url", req.URL.String()),
			zap.Int("body_len", len(body)))
		metrics.IncUpstreamRequest(e.venueTag, "decode_error")
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}

// Do executes req with rate limiting and retries on transport errors and 5xx,
// returning the raw body of a 2xx/3xx response.
func (e *Executor) Do(ctx context.Context, req *http.Request, rateLimitKey string) ([]byte, error) {
	if e.rateMgr != nil {
		if err := e.rateMgr.Wait(ctx, rateLimitKey); err != nil {
			metrics.IncUpstreamRequest(e.venueTag, "rate_limited")
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= e.retryMax; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, Backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		attemptReq, err := rewind(ctx, req, attempt)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := e.http.Do(attemptReq)
		metrics.ObserveDuration(metrics.UpstreamRequestDuration, start, e.venueTag)
		if err != nil {
			lastErr = err
			metrics.IncUpstreamRequest(e.venueTag, "transport_error")
			e.logger.Warn(e.venueTag+".http_failed",
				zap.String("url", req.URL.String()),
				zap.Error(err),
				zap.Int("attempt", attempt))
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		elapsed := time.Since(start)

		if readErr != nil {
			lastErr = fmt.Errorf("read body: %w", readErr)
			metrics.IncUpstreamRequest(e.venueTag, "transport_error")
			continue
		}

		if resp.StatusCode >= 500 {
			e.logger.Warn(e.venueTag+".server_error",
				zap.Int("status", resp.StatusCode),
				zap.String("url", req.URL.String()),
				zap.Duration("latency", elapsed))
			metrics.IncUpstreamRequest(e.venueTag, "server_error")
			lastErr = &StatusError{Venue: e.venueTag, Status: resp.StatusCode, Body: body}
			continue
		}

		if resp.StatusCode >= 400 {
			metrics.IncUpstreamRequest(e.venueTag, "client_error")
			if e.errorHandler != nil {
				return nil, e.errorHandler(resp.StatusCode, body)
			}
			return nil, &StatusError{Venue: e.venueTag, Status: resp.StatusCode, Body: body}
		}

		metrics.IncUpstreamRequest(e.venueTag, "ok")
		e.logger.Debug(e.venueTag+".http_success",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", elapsed))
		return body, nil
	}

	if e.retryMax == 0 {
		return nil, fmt.Errorf("%s request failed: %w", e.venueTag, lastErr)
	}
	return nil, fmt.Errorf("%s request failed after %d attempts: %w", e.venueTag, e.retryMax, lastErr)
}

// rewind returns the request to send for the given attempt. The first attempt uses
// req as-is; later attempts clone it with a fresh body from GetBody.
func rewind(ctx context.Context, req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 {
		return req.WithContext(ctx), nil
	}
	clone := req.Clone(ctx)
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind body: %w", err)
		}
		clone.Body = body
	}
	return clone, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
