// Package fetcher retrieves raw page markup. Every failure, transport or
// non-2xx status, is reported as a *FetchError. Nothing here retries unless
// wrapped in a RetryFetcher.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt could succeed: transport
// failures, 429 and 5xx.
func Retryable(err error) bool {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return false
	}
	if errors.Is(fe.Err, ErrRobotsDisallowed) || errors.Is(fe.Err, context.Canceled) || errors.Is(fe.Err, context.DeadlineExceeded) {
		return false
	}
	switch {
	case fe.StatusCode == 0:
		return true
	case fe.StatusCode == http.StatusTooManyRequests:
		return true
	case fe.StatusCode >= 500:
		return true
	}
	return false
}

type Options struct {
	UserAgent       string
	Timeout         time.Duration
	Delay           time.Duration
	RespectRobots   bool
	RandomUserAgent bool
	Logger          *slog.Logger
}

// New builds the fetcher for the named engine, "http" or "colly".
func New(engine string, opts Options) (Fetcher, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	switch engine {
	case "", "http":
		return NewHTTPFetcher(opts), nil
	case "colly":
		return NewCollyFetcher(opts), nil
	}
	return nil, fmt.Errorf("unknown fetch engine %q", engine)
}
