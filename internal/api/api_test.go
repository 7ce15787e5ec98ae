package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"article_spider/internal/db"
	"article_spider/internal/logger"
	"article_spider/internal/models"
)

func setupServer(t *testing.T) *Server {
	store, err := db.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	scraped := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, rec := range []models.ArticleRecord{
		{URL: "https://example.com/seo-guide/", Title: models.Str("SEO guide"), Author: models.Str("Jane"),
			Category: models.Str("Marketing"), SubCategory: models.Str("SEO"), PublishedDate: models.Str("2024-01-15")},
		{URL: "https://example.com/ads-tips/", Title: models.Str("Ads tips"), Author: models.Str("Paul"),
			Category: models.Str("Marketing"), SubCategory: models.Str("Ads"), PublishedDate: models.Str("2024-02-15")},
		{URL: "https://example.com/ai-news/", Title: models.Str("AI news"), Author: models.Str("Jane"),
			Category: models.Str("Tech"), SubCategory: models.Str("AI"), PublishedDate: models.Str("2024-03-15"),
			Images: models.Images{{URL: models.Str("https://example.com/a.png"), Description: "A"}}},
	} {
		rec := rec
		rec.ScrapedAt = scraped
		if rec.Images == nil {
			rec.Images = models.Images{}
		}
		require.NoError(t, store.Upsert(context.Background(), &rec))
	}

	return New(store, []string{"http://localhost:3000"}, logger.Discard())
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeArticles(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, setupServer(t), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSearch_EmptyBodyReturnsAll(t *testing.T) {
	rec := do(t, setupServer(t), http.MethodPost, "/api/articles/search", "")
	require.Equal(t, http.StatusOK, rec.Code)

	articles := decodeArticles(t, rec)
	require.Len(t, articles, 3)
	assert.Equal(t, "https://example.com/ai-news/", articles[0]["url"])
	assert.NotContains(t, articles[0], "_id")
	assert.Equal(t, map[string]any{"1": map[string]any{"url": "https://example.com/a.png", "description": "A"}}, articles[0]["images"])
}

func TestSearch_Filters(t *testing.T) {
	srv := setupServer(t)

	rec := do(t, srv, http.MethodPost, "/api/articles/search", `{"author":"JANE","dateStart":"2024-01-15","dateEnd":"2024-02-28"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	articles := decodeArticles(t, rec)
	require.Len(t, articles, 1)
	assert.Equal(t, "https://example.com/seo-guide/", articles[0]["url"])
	assert.Equal(t, "SEO", articles[0]["subCategory"])
	assert.Equal(t, "2024-01-15", articles[0]["publishedDate"])
}

func TestSearch_NoMatchIsEmptyList(t *testing.T) {
	rec := do(t, setupServer(t), http.MethodPost, "/api/articles/search", `{"title":"nothing here"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSearch_BadRequests(t *testing.T) {
	srv := setupServer(t)

	for _, body := range []string{`{"author":`, `{"dateStart":"15/01/2024"}`, `{"dateEnd":"2024-13-01"}`} {
		rec := do(t, srv, http.MethodPost, "/api/articles/search", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestCategories(t *testing.T) {
	rec := do(t, setupServer(t), http.MethodGet, "/api/articles/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Marketing":["Ads","SEO"],"Tech":["AI"]}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/articles/search", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "content-type", rec.Header().Get("Access-Control-Allow-Headers"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
