package urlqueue

import (
	"regexp"
	"sync"
)

// URLSet is an insertion-ordered set of URLs.
type URLSet struct {
	seen  map[string]bool
	order []string
	mu    sync.Mutex
}

func NewURLSet() *URLSet {
	return &URLSet{
		seen:  make(map[string]bool),
		order: make([]string, 0),
	}
}

// Add inserts urlStr and reports whether it was new.
func (s *URLSet) Add(urlStr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen[urlStr] {
		return false
	}
	s.seen[urlStr] = true
	s.order = append(s.order, urlStr)
	return true
}

// Merge adds every URL and returns how many were new.
func (s *URLSet) Merge(urls []string) int {
	added := 0
	for _, u := range urls {
		if s.Add(u) {
			added++
		}
	}
	return added
}

func (s *URLSet) Contains(urlStr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[urlStr]
}

// List returns a copy of the URLs in first-seen order.
func (s *URLSet) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *URLSet) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func URLMatchesAny(urlStr string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(urlStr) {
			return true
		}
	}
	return false
}
