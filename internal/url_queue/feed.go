package urlqueue

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/mmcdole/gofeed"
)

// ExtractFeedLinks parses an RSS/Atom document and returns the item links that
// pass the same filters as listing-page links.
func ExtractFeedLinks(rawFeed, feedURL string, exclude []*regexp.Regexp) ([]string, error) {
	baseURL, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL %q: %w", feedURL, err)
	}

	feed, err := gofeed.NewParser().ParseString(rawFeed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	set := NewURLSet()
	for _, item := range feed.Items {
		links := append([]string{item.Link}, item.Links...)
		for _, l := range links {
			if link, ok := candidate(baseURL, l, exclude); ok {
				set.Add(link)
			}
		}
	}
	return set.List(), nil
}
