package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"article_spider/internal/app"
	"article_spider/internal/db"
	"article_spider/internal/extract"
	"article_spider/internal/fetcher"
)

func newScrapeCmd(root *rootFlags) *cobra.Command {
	var (
		maxPages int
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Walk every configured listing and upsert the articles found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			if maxPages > 0 {
				for name, src := range cfg.Sources {
					src.MaxPages = maxPages
					cfg.Sources[name] = src
				}
			}
			if workers > 0 {
				cfg.Logic.MaxConcurrentWorkers = workers
			}
			if err := validate(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			f, err := fetcher.New(cfg.Logic.Engine, fetcher.Options{
				UserAgent:       cfg.Logic.UserAgent,
				Timeout:         time.Duration(cfg.Logic.TimeoutSec) * time.Second,
				Delay:           time.Duration(cfg.Logic.DelayMS) * time.Millisecond,
				RespectRobots:   cfg.Logic.RespectRobots,
				RandomUserAgent: cfg.Logic.RandomUserAgent,
				Logger:          log,
			})
			if err != nil {
				return err
			}

			ex, err := extract.NewExtractor(cfg.Extract.Priorities, cfg.Extract.ImagesSelector)
			if err != nil {
				return err
			}

			store, err := db.Open(ctx, cfg.DB, log)
			if err != nil {
				return err
			}
			defer store.Close()

			spider := app.NewSpiderApp(cfg, f, extract.NewAssembler(ex, time.Now), store, log)
			report := spider.Run(ctx)

			_, err = report.WriteTo(os.Stdout)
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "override max_pages for every source")
	cmd.Flags().IntVar(&workers, "workers", 0, "override logic.max_concurrent_workers")
	return cmd
}
