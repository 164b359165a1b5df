// Package notify delivers departure events to an external webhook endpoint.
// All outbound calls go through a circuit breaker and are retried with
// exponential backoff, so a flaky receiver never stalls the flight lifecycle.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"airline/internal/config"
	"airline/internal/types"
)

// RetryPolicy configures retry behavior for webhook delivery.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy returns sensible defaults for webhook delivery.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		MinWait:    500 * time.Millisecond,
		MaxWait:    10 * time.Second,
	}
}

// DepartureEvent is the webhook payload sent when a flight departs.
type DepartureEvent struct {
	Event       string     `json:"event"`
	FlightID    string     `json:"flight_id"`
	Origin      string     `json:"origin"`
	Destination string     `json:"destination"`
	DepartDate  *time.Time `json:"depart_date"`
	PlaneID     string     `json:"plane_id,omitempty"`
}

// WebhookNotifier posts departure events to a configured endpoint. It
// implements the departure notifier seam used by the flights service.
type WebhookNotifier struct {
	url         string
	userAgent   string
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy RetryPolicy
	logger      *slog.Logger
	sleepFn     func(time.Duration) // for testability; defaults to time.Sleep
}

// NotifierOption is a functional option for configuring a WebhookNotifier.
type NotifierOption func(*WebhookNotifier)

// WithSleepFunc overrides the sleep function used between retries.
// This is intended for testing to avoid real delays.
func WithSleepFunc(fn func(time.Duration)) NotifierOption {
	return func(n *WebhookNotifier) {
		n.sleepFn = fn
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) NotifierOption {
	return func(n *WebhookNotifier) {
		n.client = c
	}
}

// NewWebhookNotifier builds a notifier from webhook configuration.
func NewWebhookNotifier(cfg config.WebhookConfig, logger *slog.Logger, opts ...NotifierOption) *WebhookNotifier {
	if logger == nil {
		logger = slog.Default()
	}

	policy := DefaultRetryPolicy()
	if cfg.MaxRetries > 0 {
		policy.MaxRetries = cfg.MaxRetries
	}

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "departure-webhook",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	n := &WebhookNotifier{
		url:         cfg.URL,
		userAgent:   cfg.UserAgent,
		client:      &http.Client{Timeout: cfg.DefaultTimeout},
		breaker:     cb,
		retryPolicy: policy,
		logger:      logger,
		sleepFn:     time.Sleep,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// FlightDeparted posts a departure event for the flight. Delivery is
// at-most-once from the caller's perspective; the caller decides whether a
// failure matters.
func (n *WebhookNotifier) FlightDeparted(ctx context.Context, flight *types.Flight) error {
	event := DepartureEvent{
		Event:       "flight.departed",
		FlightID:    flight.ID,
		Origin:      flight.Origin,
		Destination: flight.Destination,
		DepartDate:  flight.DepartDate,
	}
	if flight.Plane != nil {
		event.PlaneID = flight.Plane.ID
	}

	body, err := json.Marshal(event)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to marshal departure event", err)
	}

	return n.post(ctx, body)
}

// post delivers the payload with circuit breaking and retry on 429/5xx,
// respecting Retry-After headers.
func (n *WebhookNotifier) post(ctx context.Context, body []byte) error {
	var lastResp *http.Response
	var lastErr error

	maxAttempts := 1 + n.retryPolicy.MaxRetries
	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build webhook request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if n.userAgent != "" {
			req.Header.Set("User-Agent", n.userAgent)
		}
		if requestID := types.GetRequestID(ctx); requestID != "" {
			req.Header.Set("X-Request-Id", requestID)
		}

		resp, err := n.breaker.Execute(func() (*http.Response, error) {
			r, doErr := n.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			// 429 and 5xx count as failures for the breaker.
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("webhook returned %d", r.StatusCode)
			}
			return r, nil
		})

		if err == nil {
			status := resp.StatusCode
			drainAndClose(resp)
			// A non-429 4xx is a rejection; retrying will not help.
			if status >= 400 {
				return types.NewAppError(
					types.ErrCodeUpstreamUnavailable,
					fmt.Sprintf("webhook endpoint rejected event with %d", status),
					nil,
				)
			}
			return nil
		}

		lastErr = err
		if resp != nil {
			if attempt < maxAttempts-1 {
				drainAndClose(resp)
			} else {
				lastResp = resp
			}
		}

		// An open breaker means the receiver is down; do not retry.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}

		if attempt < maxAttempts-1 {
			wait := n.computeBackoff(attempt, resp)
			n.sleepFn(wait)
		}
	}

	if lastResp != nil {
		drainAndClose(lastResp)
	}

	return n.mapError(lastResp, lastErr)
}

// computeBackoff determines the wait before the next attempt. It respects
// the Retry-After header if present, otherwise uses exponential backoff with
// full jitter clamped to [MinWait, MaxWait].
func (n *WebhookNotifier) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				wait := time.Duration(seconds) * time.Second
				if wait > n.retryPolicy.MaxWait {
					wait = n.retryPolicy.MaxWait
				}
				return wait
			}
			if t, err := http.ParseTime(retryAfter); err == nil {
				wait := time.Until(t)
				if wait <= 0 {
					return n.retryPolicy.MinWait
				}
				if wait > n.retryPolicy.MaxWait {
					wait = n.retryPolicy.MaxWait
				}
				return wait
			}
		}
	}

	base := float64(n.retryPolicy.MinWait) * math.Pow(2, float64(attempt))
	maxWait := float64(n.retryPolicy.MaxWait)
	if base > maxWait {
		base = maxWait
	}

	minWait := float64(n.retryPolicy.MinWait)
	if base <= minWait {
		return n.retryPolicy.MinWait
	}
	jittered := minWait + rand.Float64()*(base-minWait)
	return time.Duration(jittered)
}

// mapError translates delivery failures into AppErrors.
func (n *WebhookNotifier) mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			"circuit breaker is open; webhook endpoint unavailable",
			err,
		)
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return types.NewAppError(
				types.ErrCodeUpstreamRateLimited,
				"webhook endpoint rate limit exceeded",
				err,
			)
		case resp.StatusCode >= 500:
			return types.NewAppError(
				types.ErrCodeUpstreamUnavailable,
				fmt.Sprintf("webhook endpoint returned %d after retries", resp.StatusCode),
				err,
			)
		}
	}

	return types.NewAppError(
		types.ErrCodeUpstreamUnavailable,
		"webhook request failed",
		err,
	)
}

func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// NoopNotifier discards departure events. Used when no webhook URL is
// configured.
type NoopNotifier struct{}

// FlightDeparted implements the notifier seam and does nothing.
func (NoopNotifier) FlightDeparted(context.Context, *types.Flight) error { return nil }
