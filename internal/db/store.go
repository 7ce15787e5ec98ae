package db

import (
	"context"
	"fmt"
	"log/slog"

	"article_spider/internal/config"
	"article_spider/internal/models"
)

// Store is the document store behind the pipeline and the query API.
type Store interface {
	// Upsert replaces every field stored under rec.URL, or creates the record.
	Upsert(ctx context.Context, rec *models.ArticleRecord) error
	Find(ctx context.Context, filter models.Filter) ([]models.ArticleRecord, error)
	// Distinct returns the distinct non-null values of field, sorted.
	Distinct(ctx context.Context, field string, filter models.Filter) ([]string, error)
	Close() error
}

var queryableFields = map[string]bool{
	models.FieldURL:           true,
	models.FieldTitle:         true,
	models.FieldThumbnailURL:  true,
	models.FieldAuthor:        true,
	models.FieldCategory:      true,
	models.FieldSubCategory:   true,
	models.FieldSummary:       true,
	models.FieldPublishedDate: true,
}

func checkField(field string) error {
	if !queryableFields[field] {
		return fmt.Errorf("field %q cannot be queried", field)
	}
	return nil
}

func checkFilter(filter models.Filter) error {
	for field := range filter.Equals {
		if err := checkField(field); err != nil {
			return err
		}
	}
	return nil
}

// Open connects to the store named by cfg.Type.
func Open(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "mongo":
		return NewMongoDB(ctx, cfg, logger)
	case "sqlite":
		return NewSQLite(cfg.Path)
	}
	return nil, fmt.Errorf("unknown db type %q", cfg.Type)
}
