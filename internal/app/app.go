package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"article_spider/internal/config"
	"article_spider/internal/extract"
	"article_spider/internal/fetcher"
	"article_spider/internal/models"
	urlqueue "article_spider/internal/url_queue"
)

// RetryInterval is the first backoff step for article fetches.
const RetryInterval = 500 * time.Millisecond

// Sink persists assembled articles.
type Sink interface {
	Upsert(ctx context.Context, rec *models.ArticleRecord) error
}

type PersistenceError struct {
	URL string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.URL, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type ArticleOutcome struct {
	URL string
	Err error
}

// SpiderApp runs one scrape: discovery over every source, then article
// fetch, assembly and upsert through a bounded worker pool.
type SpiderApp struct {
	config    *config.SpiderConfig
	walker    *Walker
	articles  fetcher.Fetcher
	assembler *extract.Assembler
	sink      Sink
	logger    *slog.Logger
}

func NewSpiderApp(cfg *config.SpiderConfig, f fetcher.Fetcher, assembler *extract.Assembler, sink Sink, logger *slog.Logger) *SpiderApp {
	if logger == nil {
		logger = slog.Default()
	}
	delay := time.Duration(cfg.Logic.DelayMS) * time.Millisecond

	articles := f
	if cfg.Logic.MaxRetries > 0 {
		articles = fetcher.NewRetryFetcher(f, cfg.Logic.MaxRetries, RetryInterval, logger)
	}

	return &SpiderApp{
		config:    cfg,
		walker:    NewWalker(f, delay, logger),
		articles:  articles,
		assembler: assembler,
		sink:      sink,
		logger:    logger,
	}
}

func (s *SpiderApp) Run(ctx context.Context) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := s.logger.With("run_id", report.RunID)
	log.Info("starting spider", "sources", len(s.config.Sources), "workers", s.config.Logic.MaxConcurrentWorkers, "delay_ms", s.config.Logic.DelayMS)

	all := urlqueue.NewURLSet()
	for _, name := range s.config.SourceNames() {
		if ctx.Err() != nil {
			break
		}
		walk := s.walker.Walk(ctx, s.config.Sources[name])
		all.Merge(walk.URLs)
		report.Walks = append(report.Walks, walk)
	}

	urls := all.List()
	log.Info("discovery finished", "urls", len(urls))

	report.Articles = s.scrapeAll(ctx, urls, log)
	for _, a := range report.Articles {
		if a.Err == nil {
			report.Written++
		}
	}
	report.Duration = time.Since(report.StartedAt)

	log.Info("spider finished", "written", report.Written, "failed", report.Failed(), "duration", report.Duration)
	return report
}

// scrapeAll returns outcomes in urls order for every URL a worker picked up
// before ctx ended.
func (s *SpiderApp) scrapeAll(ctx context.Context, urls []string, log *slog.Logger) []ArticleOutcome {
	workers := s.config.Logic.MaxConcurrentWorkers
	if workers < 1 {
		workers = 1
	}
	delay := time.Duration(s.config.Logic.DelayMS) * time.Millisecond

	outcomes := make([]*ArticleOutcome, len(urls))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobs {
				if !pause(ctx, delay) {
					continue
				}
				u := urls[idx]
				err := s.scrapeArticle(ctx, u)
				if err != nil {
					log.Warn("article failed", "worker", workerID, "url", u, "error", err)
				} else {
					log.Debug("article saved", "worker", workerID, "url", u)
				}
				outcomes[idx] = &ArticleOutcome{URL: u, Err: err}
			}
		}(i)
	}

schedule:
	for idx := range urls {
		select {
		case <-ctx.Done():
			break schedule
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	result := make([]ArticleOutcome, 0, len(urls))
	for _, o := range outcomes {
		if o != nil {
			result = append(result, *o)
		}
	}
	return result
}

func (s *SpiderApp) scrapeArticle(ctx context.Context, url string) error {
	body, err := s.articles.Fetch(ctx, url)
	if err != nil {
		return err
	}

	rec, err := s.assembler.Assemble(url, body)
	if err != nil {
		return fmt.Errorf("assemble %s: %w", url, err)
	}

	if err := s.sink.Upsert(ctx, rec); err != nil {
		return &PersistenceError{URL: url, Err: err}
	}
	return nil
}
