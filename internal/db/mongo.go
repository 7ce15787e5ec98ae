package db

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"article_spider/internal/config"
	"article_spider/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDB struct {
	client    *mongo.Client
	database  *mongo.Database
	documents *mongo.Collection
	logger    *slog.Logger
}

func NewMongoDB(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Connection))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("can't ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)

	d := &MongoDB{
		client:    client,
		database:  db,
		documents: db.Collection(cfg.Collections.Documents),
		logger:    logger,
	}

	if err := d.createIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("can't create indexes: %w", err)
	}

	return d, nil
}

func (d *MongoDB) createIndexes(ctx context.Context) error {
	_, err := d.documents.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: models.FieldURL, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = d.documents.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: models.FieldScrapedAt, Value: 1}},
	})
	if err != nil {
		d.logger.Warn("failed to create scraped_at index", "error", err)
	}

	return nil
}

func (d *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}

func (d *MongoDB) Upsert(ctx context.Context, rec *models.ArticleRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{models.FieldURL: rec.URL}

	_, err := d.documents.ReplaceOne(ctx, filter, rec, opts)
	return err
}

func (d *MongoDB) Find(ctx context.Context, filter models.Filter) ([]models.ArticleRecord, error) {
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"_id": 0}).
		SetSort(bson.D{{Key: models.FieldPublishedDate, Value: -1}, {Key: models.FieldURL, Value: 1}})

	cursor, err := d.documents.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find articles: %w", err)
	}
	defer cursor.Close(ctx)

	records := []models.ArticleRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode articles: %w", err)
	}
	return records, nil
}

func (d *MongoDB) Distinct(ctx context.Context, field string, filter models.Filter) ([]string, error) {
	if err := checkField(field); err != nil {
		return nil, err
	}
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	raw, err := d.documents.Distinct(ctx, field, buildFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", field, err)
	}

	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			values = append(values, s)
		}
	}
	sort.Strings(values)
	return values, nil
}

// buildFilter translates a Filter into a Mongo query document.
func buildFilter(f models.Filter) bson.M {
	var conds []bson.M

	if f.DateStart != "" || f.DateEnd != "" {
		rng := bson.M{}
		if f.DateStart != "" {
			rng["$gte"] = f.DateStart
		}
		if f.DateEnd != "" {
			rng["$lte"] = f.DateEnd
		}
		conds = append(conds, bson.M{models.FieldPublishedDate: rng})
	}

	substrings := []struct{ field, value string }{
		{models.FieldAuthor, f.Author},
		{models.FieldCategory, f.Category},
		{models.FieldSubCategory, f.SubCategory},
		{models.FieldTitle, f.Title},
	}
	for _, s := range substrings {
		if s.value != "" {
			conds = append(conds, bson.M{s.field: bson.M{"$regex": regexp.QuoteMeta(s.value), "$options": "i"}})
		}
	}

	fields := make([]string, 0, len(f.Equals))
	for field := range f.Equals {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		conds = append(conds, bson.M{field: f.Equals[field]})
	}

	switch len(conds) {
	case 0:
		return bson.M{}
	case 1:
		return conds[0]
	}
	return bson.M{"$and": conds}
}
