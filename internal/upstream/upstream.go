// Package upstream holds the call policy shared by every outbound client:
// bounded retries with exponential backoff for transient failures, and a
// status error type that maps onto apperr.ErrUpstream.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go"

	"github.com/starford/ecolog/internal/apperr"
)

// StatusError is a non-2xx reply from an external service.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: response error %d: %s", e.Service, e.Code, e.Body)
}

// Unwrap lets errors.Is(err, apperr.ErrUpstream) match.
func (e *StatusError) Unwrap() error { return apperr.ErrUpstream }

// Retryable reports whether err is worth another attempt: rate limiting,
// server errors and transport failures. Parse errors and 4xx are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, apperr.ErrParse) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// Policy configures retries for one client.
type Policy struct {
	Service    string
	MaxRetries uint
	BaseDelay  time.Duration
}

// Do runs fn until it succeeds, returns a non-retryable error, or the retry
// budget (MaxRetries extra attempts) is spent. The last error is returned.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	delay := p.BaseDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return retry.Do(
		func() error {
			err := fn()
			if err != nil && !Retryable(err) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(p.MaxRetries+1),
		retry.Delay(delay),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Debug("upstream: retrying",
				slog.String("service", p.Service),
				slog.Uint64("attempt", uint64(n+1)),
				slog.String("error", err.Error()))
		}),
	)
}
