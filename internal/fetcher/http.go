package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
	"golang.org/x/net/html/charset"
)

const MaxHops = 15

// HTTPFetcher fetches pages with net/http and decodes bodies to UTF-8.
type HTTPFetcher struct {
	client        *http.Client
	userAgent     string
	respectRobots bool
	logger        *slog.Logger

	mu     sync.Mutex
	robots map[string]*robotstxt.Group
}

func NewHTTPFetcher(opts Options) *HTTPFetcher {
	jar, _ := cookiejar.New(nil)
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPFetcher{
		client: &http.Client{
			Jar:     jar,
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= MaxHops {
					return fmt.Errorf("stopped after %d redirects", MaxHops)
				}
				return nil
			},
		},
		userAgent:     opts.UserAgent,
		respectRobots: opts.RespectRobots,
		logger:        logger,
		robots:        make(map[string]*robotstxt.Group),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, urlStr string) (string, error) {
	if f.respectRobots {
		u, err := url.Parse(urlStr)
		if err != nil {
			return "", &FetchError{URL: urlStr, Err: err}
		}
		if group := f.robotsGroup(ctx, u); group != nil && !group.Test(u.Path) {
			return "", &FetchError{URL: urlStr, Err: ErrRobotsDisallowed}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", &FetchError{URL: urlStr, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: urlStr, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: urlStr, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	utf8Reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		utf8Reader = resp.Body
	}

	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", &FetchError{URL: urlStr, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	return string(body), nil
}

// robotsGroup loads and caches the robots.txt group for the URL's origin. A
// robots.txt that cannot be loaded allows everything.
func (f *HTTPFetcher) robotsGroup(ctx context.Context, u *url.URL) *robotstxt.Group {
	origin := u.Scheme + "://" + u.Host

	f.mu.Lock()
	group, ok := f.robots[origin]
	f.mu.Unlock()
	if ok {
		return group
	}

	group = f.loadRobots(ctx, origin)

	f.mu.Lock()
	f.robots[origin] = group
	f.mu.Unlock()
	return group
}

func (f *HTTPFetcher) loadRobots(ctx context.Context, origin string) *robotstxt.Group {
	robotsURL := origin + "/robots.txt"
	f.logger.Debug("loading robots.txt", "url", robotsURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("robots.txt unavailable, ignoring", "url", robotsURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		f.logger.Warn("robots.txt unparsable, ignoring", "url", robotsURL, "error", err)
		return nil
	}

	return data.FindGroup(f.userAgent)
}
