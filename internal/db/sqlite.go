package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"article_spider/internal/models"
)

const sqliteDriver = "sqlite3_article_spider"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("contains_fold", containsFold, true)
		},
	})
}

// containsFold is a Unicode-aware case-insensitive substring test; SQLite's
// own LIKE and lower() only fold ASCII.
func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// SQLite stores articles in a single table keyed by URL.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		url TEXT PRIMARY KEY,
		title TEXT,
		thumbnail_url TEXT,
		author TEXT,
		category TEXT,
		sub_category TEXT,
		summary TEXT,
		published_date TEXT,
		images TEXT NOT NULL,
		scraped_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Upsert(ctx context.Context, rec *models.ArticleRecord) error {
	images, err := json.Marshal(rec.Images)
	if err != nil {
		return fmt.Errorf("failed to encode images: %w", err)
	}

	query := `
	INSERT INTO articles (url, title, thumbnail_url, author, category, sub_category, summary, published_date, images, scraped_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		title = excluded.title,
		thumbnail_url = excluded.thumbnail_url,
		author = excluded.author,
		category = excluded.category,
		sub_category = excluded.sub_category,
		summary = excluded.summary,
		published_date = excluded.published_date,
		images = excluded.images,
		scraped_at = excluded.scraped_at
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.URL,
		nullable(rec.Title),
		nullable(rec.ThumbnailURL),
		nullable(rec.Author),
		nullable(rec.Category),
		nullable(rec.SubCategory),
		nullable(rec.Summary),
		nullable(rec.PublishedDate),
		string(images),
		rec.ScrapedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert article: %w", err)
	}
	return nil
}

func (s *SQLite) Find(ctx context.Context, filter models.Filter) ([]models.ArticleRecord, error) {
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	where, args := sqlWhere(filter)
	query := `SELECT url, title, thumbnail_url, author, category, sub_category, summary, published_date, images, scraped_at
	FROM articles` + where + ` ORDER BY published_date DESC, url ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	records := []models.ArticleRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}
	return records, nil
}

func (s *SQLite) Distinct(ctx context.Context, field string, filter models.Filter) ([]string, error) {
	if err := checkField(field); err != nil {
		return nil, err
	}
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	where, args := sqlWhere(filter)
	if where == "" {
		where = " WHERE " + field + " IS NOT NULL"
	} else {
		where += " AND " + field + " IS NOT NULL"
	}
	query := "SELECT DISTINCT " + field + " FROM articles" + where

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", field, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", field, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(values)
	return values, nil
}

// sqlWhere renders a Filter as a WHERE clause. Column names come from the
// checked field set only.
func sqlWhere(f models.Filter) (string, []any) {
	var conds []string
	var args []any

	if f.DateStart != "" {
		conds = append(conds, models.FieldPublishedDate+" >= ?")
		args = append(args, f.DateStart)
	}
	if f.DateEnd != "" {
		conds = append(conds, models.FieldPublishedDate+" <= ?")
		args = append(args, f.DateEnd)
	}

	substrings := []struct{ field, value string }{
		{models.FieldAuthor, f.Author},
		{models.FieldCategory, f.Category},
		{models.FieldSubCategory, f.SubCategory},
		{models.FieldTitle, f.Title},
	}
	for _, s := range substrings {
		if s.value != "" {
			conds = append(conds, "contains_fold(coalesce("+s.field+", ''), ?)")
			args = append(args, s.value)
		}
	}

	fields := make([]string, 0, len(f.Equals))
	for field := range f.Equals {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		conds = append(conds, field+" = ?")
		args = append(args, f.Equals[field])
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (models.ArticleRecord, error) {
	var (
		rec                                                        models.ArticleRecord
		title, thumb, author, category, subCategory, summary, date sql.NullString
		images, scrapedAt                                          string
	)

	err := row.Scan(&rec.URL, &title, &thumb, &author, &category, &subCategory, &summary, &date, &images, &scrapedAt)
	if err != nil {
		return rec, fmt.Errorf("failed to scan article: %w", err)
	}

	rec.Title = fromNull(title)
	rec.ThumbnailURL = fromNull(thumb)
	rec.Author = fromNull(author)
	rec.Category = fromNull(category)
	rec.SubCategory = fromNull(subCategory)
	rec.Summary = fromNull(summary)
	rec.PublishedDate = fromNull(date)

	if err := json.Unmarshal([]byte(images), &rec.Images); err != nil {
		return rec, fmt.Errorf("failed to decode images of %s: %w", rec.URL, err)
	}
	rec.ScrapedAt, err = time.Parse(time.RFC3339Nano, scrapedAt)
	if err != nil {
		return rec, fmt.Errorf("failed to parse scraped_at of %s: %w", rec.URL, err)
	}
	return rec, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
