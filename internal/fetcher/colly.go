package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gocolly/colly"
	"github.com/gocolly/colly/extensions"
)

const (
	bodyKey   = "body"
	statusKey = "status"
)

// CollyFetcher fetches pages through a synchronous colly collector. The
// collector applies the request delay and its own robots.txt handling.
type CollyFetcher struct {
	collector *colly.Collector
	logger    *slog.Logger
}

func NewCollyFetcher(opts Options) *CollyFetcher {
	c := colly.NewCollector(
		colly.UserAgent(opts.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.IgnoreRobotsTxt = !opts.RespectRobots

	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}
	if opts.RandomUserAgent {
		extensions.RandomUserAgent(c)
	}
	if opts.Delay > 0 {
		c.Limit(&colly.LimitRule{
			DomainGlob: "*",
			Delay:      opts.Delay,
		})
	}

	c.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(bodyKey, string(r.Body))
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.Ctx != nil {
			r.Ctx.Put(statusKey, strconv.Itoa(r.StatusCode))
		}
	})

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CollyFetcher{collector: c, logger: logger}
}

func (f *CollyFetcher) Fetch(ctx context.Context, urlStr string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &FetchError{URL: urlStr, Err: err}
	}

	reqCtx := colly.NewContext()
	err := f.collector.Request("GET", urlStr, nil, reqCtx, nil)
	if err != nil {
		status, _ := strconv.Atoi(reqCtx.Get(statusKey))
		if errors.Is(err, colly.ErrRobotsTxtBlocked) {
			err = ErrRobotsDisallowed
		}
		return "", &FetchError{URL: urlStr, StatusCode: status, Err: err}
	}

	return reqCtx.Get(bodyKey), nil
}
