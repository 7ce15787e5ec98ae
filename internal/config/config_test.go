package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
db:
  type: sqlite
  path: /tmp/articles.db
logic:
  engine: colly
  delay_ms: 250
  max_retries: 2
  max_concurrent_workers: 4
sources:
  bdm:
    listing_template: "https://www.blogdumoderateur.com/web/page/{page}/"
    feed_url: "https://www.blogdumoderateur.com/feed/"
    exclude_patterns: ["/tag/", "\\.pdf$"]
    max_pages: 5
extract:
  priorities:
    title: [og_title, h1]
`

func knownStub(field, name string) bool {
	return name != "bogus"
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("sources:\n  blog:\n    listing_template: \"https://example.com/page/{page}/\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "mongo", cfg.DB.Type)
	assert.Equal(t, "mongodb://localhost:27017/", cfg.DB.Connection)
	assert.Equal(t, "blogdumoderateur", cfg.DB.Database)
	assert.Equal(t, "articles", cfg.DB.Collections.Documents)
	assert.Equal(t, "http", cfg.Logic.Engine)
	assert.Equal(t, DefaultTimeoutSec, cfg.Logic.TimeoutSec)
	assert.Equal(t, DefaultWorkers, cfg.Logic.MaxConcurrentWorkers)
	assert.Equal(t, DefaultAPIAddr, cfg.API.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.API.AllowedOrigins)
	assert.Equal(t, DefaultImagesSelector, cfg.Extract.ImagesSelector)

	src := cfg.Sources["blog"]
	assert.Equal(t, "blog", src.Name)
	assert.Equal(t, DefaultMaxPages, src.MaxPages)
	assert.Equal(t, "https://example.com/page/3/", src.ListingURL(3))
}

func TestParse_Valid(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate(knownStub))

	assert.Equal(t, "sqlite", cfg.DB.Type)
	assert.Equal(t, "colly", cfg.Logic.Engine)
	assert.Equal(t, 250, cfg.Logic.DelayMS)
	assert.Equal(t, 4, cfg.Logic.MaxConcurrentWorkers)
	assert.Equal(t, []string{"og_title", "h1"}, cfg.Extract.Priorities["title"])

	src := cfg.Sources["bdm"]
	assert.Equal(t, 5, src.MaxPages)
	require.Len(t, src.Exclude(), 2)
	assert.True(t, src.Exclude()[1].MatchString("https://x.com/report.pdf"))
	assert.Equal(t, []string{"bdm"}, cfg.SourceNames())
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("db: [unclosed"))
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/articles.db", cfg.DB.Path)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad db type", "db:\n  type: redis\n"},
		{"bad engine", "logic:\n  engine: chrome\n"},
		{"template without placeholder", "sources:\n  s:\n    listing_template: \"https://example.com/page/\"\n"},
		{"bad exclude regex", "sources:\n  s:\n    listing_template: \"https://example.com/{page}\"\n    exclude_patterns: [\"(\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			assert.Error(t, cfg.Validate(knownStub))
		})
	}
}

func TestValidate_UnknownStrategy(t *testing.T) {
	cfg, err := Parse([]byte("extract:\n  priorities:\n    author: [bogus]\n"))
	require.NoError(t, err)

	err = cfg.Validate(knownStub)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("SPIDER_DB_CONNECTION", "mongodb://db:27017/")
	t.Setenv("SPIDER_API_ADDR", ":9999")

	cfg, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db:27017/", cfg.DB.Connection)
	assert.Equal(t, ":9999", cfg.API.Addr)
}
