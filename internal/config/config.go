package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

// PagePlaceholder is replaced by the page number in listing templates.
const PagePlaceholder = "{page}"

const (
	DefaultMaxPages       = 50
	DefaultTimeoutSec     = 30
	DefaultWorkers        = 1
	DefaultUserAgent      = "Mozilla/5.0 (compatible; article_spider/1.0)"
	DefaultImagesSelector = "article img"
	DefaultAPIAddr        = ":8000"
)

var ErrUnknownStrategy = errors.New("unknown extraction strategy")

type SourceConfig struct {
	Name            string   `yaml:"name"`
	ListingTemplate string   `yaml:"listing_template"`
	FeedURL         string   `yaml:"feed_url"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
	MaxPages        int      `yaml:"max_pages"`

	exclude []*regexp.Regexp
}

// Exclude returns the compiled exclude patterns. Valid after Validate.
func (s SourceConfig) Exclude() []*regexp.Regexp {
	return s.exclude
}

// ListingURL returns the listing page URL for the given page number.
func (s SourceConfig) ListingURL(page int) string {
	return strings.ReplaceAll(s.ListingTemplate, PagePlaceholder, fmt.Sprint(page))
}

type DBConfig struct {
	Type        string `yaml:"type"` // "mongo" or "sqlite"
	Connection  string `yaml:"connection"`
	Database    string `yaml:"database"`
	Path        string `yaml:"path"`
	Collections struct {
		Documents string `yaml:"documents"`
	} `yaml:"collections"`
}

type LogicConfig struct {
	Engine               string `yaml:"engine"` // "http" or "colly"
	DelayMS              int    `yaml:"delay_ms"`
	TimeoutSec           int    `yaml:"timeout_sec"`
	MaxRetries           int    `yaml:"max_retries"`
	MaxConcurrentWorkers int    `yaml:"max_concurrent_workers"`
	UserAgent            string `yaml:"user_agent"`
	RandomUserAgent      bool   `yaml:"random_user_agent"`
	RespectRobots        bool   `yaml:"respect_robots"`
}

type ExtractConfig struct {
	ImagesSelector string              `yaml:"images_selector"`
	Priorities     map[string][]string `yaml:"priorities"`
}

type APIConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SpiderConfig struct {
	DB      DBConfig                `yaml:"db"`
	Logic   LogicConfig             `yaml:"logic"`
	Sources map[string]SourceConfig `yaml:"sources"`
	Extract ExtractConfig           `yaml:"extract"`
	API     APIConfig               `yaml:"api"`
	Log     LogConfig               `yaml:"log"`
}

// StrategyChecker reports whether a named strategy exists for a field.
// The extract package provides the real one; config stays free of it.
type StrategyChecker func(field, name string) bool

func LoadConfig(path string) (*SpiderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and environment overrides. Strategy
// names are checked separately by Validate.
func Parse(data []byte) (*SpiderConfig, error) {
	var cfg SpiderConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *SpiderConfig) applyDefaults() {
	if c.DB.Type == "" {
		c.DB.Type = "mongo"
	}
	if c.DB.Connection == "" {
		c.DB.Connection = "mongodb://localhost:27017/"
	}
	if c.DB.Database == "" {
		c.DB.Database = "blogdumoderateur"
	}
	if c.DB.Collections.Documents == "" {
		c.DB.Collections.Documents = "articles"
	}
	if c.DB.Path == "" {
		c.DB.Path = "articles.db"
	}

	if c.Logic.Engine == "" {
		c.Logic.Engine = "http"
	}
	if c.Logic.TimeoutSec <= 0 {
		c.Logic.TimeoutSec = DefaultTimeoutSec
	}
	if c.Logic.MaxConcurrentWorkers <= 0 {
		c.Logic.MaxConcurrentWorkers = DefaultWorkers
	}
	if c.Logic.UserAgent == "" {
		c.Logic.UserAgent = DefaultUserAgent
	}

	for name, src := range c.Sources {
		if src.Name == "" {
			src.Name = name
		}
		if src.MaxPages <= 0 {
			src.MaxPages = DefaultMaxPages
		}
		c.Sources[name] = src
	}

	if c.Extract.ImagesSelector == "" {
		c.Extract.ImagesSelector = DefaultImagesSelector
	}

	if c.API.Addr == "" {
		c.API.Addr = DefaultAPIAddr
	}
	if c.API.AllowedOrigins == nil {
		c.API.AllowedOrigins = []string{"http://localhost:3000"}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *SpiderConfig) applyEnv() {
	if v := os.Getenv("SPIDER_DB_CONNECTION"); v != "" {
		c.DB.Connection = v
	}
	if v := os.Getenv("SPIDER_API_ADDR"); v != "" {
		c.API.Addr = v
	}
}

// Validate checks the configuration and compiles exclude patterns.
func (c *SpiderConfig) Validate(known StrategyChecker) error {
	switch c.DB.Type {
	case "mongo", "sqlite":
	default:
		return fmt.Errorf("db.type must be mongo or sqlite, got %q", c.DB.Type)
	}

	switch c.Logic.Engine {
	case "http", "colly":
	default:
		return fmt.Errorf("logic.engine must be http or colly, got %q", c.Logic.Engine)
	}

	for name, src := range c.Sources {
		if !strings.Contains(src.ListingTemplate, PagePlaceholder) {
			return fmt.Errorf("source %s: listing_template must contain %s", name, PagePlaceholder)
		}
		src.exclude = src.exclude[:0]
		for _, p := range src.ExcludePatterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return fmt.Errorf("source %s: bad exclude pattern %q: %w", name, p, err)
			}
			src.exclude = append(src.exclude, re)
		}
		c.Sources[name] = src
	}

	if known != nil {
		for field, names := range c.Extract.Priorities {
			for _, n := range names {
				if !known(field, n) {
					return fmt.Errorf("extract.priorities.%s: %w: %q", field, ErrUnknownStrategy, n)
				}
			}
		}
	}

	return nil
}

// SourceNames returns the configured source names in a stable order.
func (c *SpiderConfig) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
