package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

var reWhitespace = regexp.MustCompile(`\s+`)

// Page is one parsed article page handed to every strategy.
type Page struct {
	URL *url.URL
	Doc *goquery.Document

	raw      string
	readable *readability.Article
	readDone bool
}

func NewPage(pageURL, rawHTML string) (*Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	return &Page{URL: u, Doc: doc, raw: rawHTML}, nil
}

// Readable runs readability over the page once and caches the outcome.
func (p *Page) Readable() (*readability.Article, bool) {
	if !p.readDone {
		p.readDone = true
		article, err := readability.FromReader(strings.NewReader(p.raw), p.URL)
		if err == nil {
			p.readable = &article
		}
	}
	return p.readable, p.readable != nil
}

func normalizeText(text string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
}

func nonEmpty(s string) (string, bool) {
	s = normalizeText(s)
	return s, s != ""
}

func selectionText(s *goquery.Selection) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}
	return nonEmpty(s.Text())
}

func attrText(s *goquery.Selection, name string) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}
	v, ok := s.Attr(name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
