package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"article_spider/internal/config"
	"article_spider/internal/extract"
	"article_spider/internal/logger"
)

const appName = "article_spider"

type rootFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Scrape article listings into a document store and serve them back",
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "config.yaml", "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(newScrapeCmd(flags), newServeCmd(flags))
	return cmd
}

// load reads and validates the config and builds the logger it describes.
func (f *rootFlags) load() (*config.SpiderConfig, *slog.Logger, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	return cfg, logger.New(cfg.Log.Level, cfg.Log.Format), nil
}

func validate(cfg *config.SpiderConfig) error {
	return cfg.Validate(extract.Known)
}
