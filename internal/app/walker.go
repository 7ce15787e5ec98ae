package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"article_spider/internal/config"
	"article_spider/internal/fetcher"
	urlqueue "article_spider/internal/url_queue"
)

// StopReason says why a listing walk ended.
type StopReason string

const (
	StopExhausted   StopReason = "exhausted"
	StopFetchFailed StopReason = "fetch_failed"
	StopPageLimit   StopReason = "page_limit"
	StopCancelled   StopReason = "cancelled"
)

type PageOutcome struct {
	Page  int
	URL   string
	Links int // article links found on the page
	New   int // links not seen on earlier pages
	Err   error
}

type WalkResult struct {
	Source    string
	URLs      []string
	Pages     []PageOutcome
	Reason    StopReason
	Err       error
	FeedLinks int
	FeedErr   error
}

// Walker pages through a source's listing until a page yields no article
// links, a listing fetch fails, or the page limit is reached.
type Walker struct {
	fetcher fetcher.Fetcher
	delay   time.Duration
	logger  *slog.Logger
}

func NewWalker(f fetcher.Fetcher, delay time.Duration, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{fetcher: f, delay: delay, logger: logger}
}

func (w *Walker) Walk(ctx context.Context, src config.SourceConfig) WalkResult {
	res := WalkResult{Source: src.Name}
	seen := urlqueue.NewURLSet()
	log := w.logger.With("source", src.Name)

	for page := 1; page <= src.MaxPages; page++ {
		if page > 1 && !pause(ctx, w.delay) {
			res.Reason = StopCancelled
			break
		}
		if ctx.Err() != nil {
			res.Reason = StopCancelled
			break
		}

		pageURL := src.ListingURL(page)
		outcome := PageOutcome{Page: page, URL: pageURL}

		body, err := w.fetcher.Fetch(ctx, pageURL)
		if err == nil {
			var links []string
			links, err = urlqueue.ExtractArticleLinks(body, pageURL, src.Exclude())
			outcome.Links = len(links)
			outcome.New = seen.Merge(links)
		}

		if err != nil {
			outcome.Err = err
			res.Pages = append(res.Pages, outcome)
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				res.Reason = StopCancelled
			} else {
				res.Reason = StopFetchFailed
				res.Err = err
			}
			log.Warn("listing page failed", "page", page, "url", pageURL, "error", err)
			break
		}

		res.Pages = append(res.Pages, outcome)
		log.Info("listing page", "page", page, "links", outcome.Links, "new", outcome.New)

		if outcome.Links == 0 {
			res.Reason = StopExhausted
			break
		}
	}
	if res.Reason == "" {
		res.Reason = StopPageLimit
	}

	if src.FeedURL != "" && ctx.Err() == nil {
		res.FeedLinks, res.FeedErr = w.seedFromFeed(ctx, src, seen)
		if res.FeedErr != nil {
			log.Warn("feed ignored", "url", src.FeedURL, "error", res.FeedErr)
		} else {
			log.Info("feed", "url", src.FeedURL, "new", res.FeedLinks)
		}
	}

	res.URLs = seen.List()
	log.Info("listing walk finished", "reason", res.Reason, "urls", len(res.URLs))
	return res
}

// seedFromFeed adds the feed's article links to seen and returns how many
// were new.
func (w *Walker) seedFromFeed(ctx context.Context, src config.SourceConfig, seen *urlqueue.URLSet) (int, error) {
	body, err := w.fetcher.Fetch(ctx, src.FeedURL)
	if err != nil {
		return 0, err
	}
	links, err := urlqueue.ExtractFeedLinks(body, src.FeedURL, src.Exclude())
	if err != nil {
		return 0, err
	}
	return seen.Merge(links), nil
}

// pause sleeps for d and reports false if ctx ended first.
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
