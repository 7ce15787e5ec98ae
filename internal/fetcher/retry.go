package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryFetcher retries retryable failures of the wrapped fetcher with
// exponential backoff.
type RetryFetcher struct {
	next            Fetcher
	maxRetries      int
	initialInterval time.Duration
	logger          *slog.Logger
}

func NewRetryFetcher(next Fetcher, maxRetries int, initialInterval time.Duration, logger *slog.Logger) *RetryFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryFetcher{
		next:            next,
		maxRetries:      maxRetries,
		initialInterval: initialInterval,
		logger:          logger,
	}
}

func (r *RetryFetcher) Fetch(ctx context.Context, urlStr string) (string, error) {
	var body string
	attempt := 0

	op := func() error {
		attempt++
		b, err := r.next.Fetch(ctx, urlStr)
		if err == nil {
			body = b
			return nil
		}
		if !Retryable(err) {
			return backoff.Permanent(err)
		}
		r.logger.Warn("fetch failed", "url", urlStr, "attempt", attempt, "error", err)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	if r.initialInterval > 0 {
		policy.InitialInterval = r.initialInterval
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(r.maxRetries)), ctx))
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{URL: urlStr, Err: err}
		}
		return "", err
	}
	return body, nil
}
