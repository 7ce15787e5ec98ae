package urlqueue

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsArticleURL(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{"https://example.com/seo-tips-2024/", true},
		{"https://example.com/seo-tips-2024", true},
		{"https://example.com/seo-tips-2024//", true},
		{"https://example.com/category/marketing/", false},
		{"https://example.com/news/", false},
		{"https://example.com/", false},
		{"https://example.com", false},
		{"https://example.com/category/seo-tips/", false},
		{"https://example.com/a-b?page=2", true},
		{"://broken", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsArticleURL(tt.url))
		})
	}
}

func TestExtractArticleLinks(t *testing.T) {
	page := `<html><body>
		<a href="https://example.com/first-article/">one</a>
		<a href="https://example.com/first-article/#comments">one again</a>
		<a href="/second-article/">relative</a>
		<a href="https://other.com/foreign-article/">cross domain</a>
		<a href="http://example.com/wrong-scheme/">other scheme</a>
		<a href="https://example.com/category/marketing/">category</a>
		<a href="https://example.com/news/">no hyphen</a>
		<a href="#top">anchor</a>
		<a>no href</a>
	</body></html>`

	links, err := ExtractArticleLinks(page, "https://example.com/articles/page/1/", nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"https://example.com/first-article/",
		"https://example.com/second-article/",
	}, links)
}

func TestExtractArticleLinks_ExcludePatterns(t *testing.T) {
	page := `<a href="https://example.com/keep-me/">a</a><a href="https://example.com/sponsored-post/">b</a>`

	links, err := ExtractArticleLinks(page, "https://example.com/", []*regexp.Regexp{regexp.MustCompile(`sponsored`)})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/keep-me/"}, links)
}

func TestExtractArticleLinks_NoLinks(t *testing.T) {
	links, err := ExtractArticleLinks("<html><body><p>empty</p></body></html>", "https://example.com/", nil)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestExtractArticleLinks_InvalidBase(t *testing.T) {
	_, err := ExtractArticleLinks("<a href='/x-y/'>x</a>", "://nope", nil)
	assert.Error(t, err)
}

func TestURLSet(t *testing.T) {
	set := NewURLSet()

	assert.True(t, set.Add("https://example.com/a-b/"))
	assert.False(t, set.Add("https://example.com/a-b/"))
	assert.Equal(t, 1, set.Merge([]string{"https://example.com/a-b/", "https://example.com/c-d/"}))

	assert.Equal(t, []string{"https://example.com/a-b/", "https://example.com/c-d/"}, set.List())
	assert.Equal(t, 2, set.Size())
	assert.True(t, set.Contains("https://example.com/c-d/"))
}

func TestExtractFeedLinks(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Blog</title>
<item><title>A</title><link>https://example.com/from-the-feed/</link></item>
<item><title>B</title><link>https://example.com/tag/seo/</link></item>
<item><title>C</title><link>https://elsewhere.com/foreign-post/</link></item>
</channel></rss>`

	links, err := ExtractFeedLinks(feed, "https://example.com/feed/", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/from-the-feed/"}, links)
}

func TestExtractFeedLinks_Invalid(t *testing.T) {
	_, err := ExtractFeedLinks("not a feed", "https://example.com/feed/", nil)
	assert.Error(t, err)
}
