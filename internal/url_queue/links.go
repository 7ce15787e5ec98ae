package urlqueue

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// IsArticleURL reports whether the URL path is a single slug containing a
// hyphen, e.g. /seo-tips-2024/.
func IsArticleURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	var segments []string
	for _, seg := range strings.Split(strings.TrimRight(u.Path, "/"), "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return len(segments) == 1 && strings.Contains(segments[0], "-")
}

// SameOrigin reports whether a and b share scheme and host.
func SameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}

// ExtractArticleLinks returns the deduplicated same-origin article URLs linked
// from a listing page.
func ExtractArticleLinks(rawHTML, pageURL string, exclude []*regexp.Regexp) ([]string, error) {
	baseURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing URL %q: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	set := NewURLSet()
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if link, ok := candidate(baseURL, href, exclude); ok {
			set.Add(link)
		}
	})

	return set.List(), nil
}

// candidate resolves href against base and applies the origin, shape and
// exclude filters.
func candidate(base *url.URL, href string, exclude []*regexp.Regexp) (string, bool) {
	if i := strings.Index(href, "#"); i != -1 {
		href = href[:i]
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	parsedHref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(parsedHref)
	resolved.Fragment = ""
	resolved.RawFragment = ""

	if !SameOrigin(base, resolved) {
		return "", false
	}

	link := resolved.String()
	if !IsArticleURL(link) || URLMatchesAny(link, exclude) {
		return "", false
	}
	return link, true
}
