package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"article_spider/internal/models"
)

// Store is the read side of the article store.
type Store interface {
	Find(ctx context.Context, filter models.Filter) ([]models.ArticleRecord, error)
	Distinct(ctx context.Context, field string, filter models.Filter) ([]string, error)
}

// Server holds dependencies for the HTTP handlers.
type Server struct {
	store          Store
	logger         *slog.Logger
	allowedOrigins []string
	mux            *http.ServeMux
}

func New(s Store, allowedOrigins []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{store: s, logger: logger, allowedOrigins: allowedOrigins, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.cors(s.mux).ServeHTTP(w, r)
}

// ---------- Routes ----------

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/articles/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/articles/categories", s.handleCategories)
}

// ---------- Handlers ----------

// SearchRequest is the search body. Every field is optional.
type SearchRequest struct {
	DateStart   string `json:"dateStart"`
	DateEnd     string `json:"dateEnd"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`
	Title       string `json:"title"`
}

func (req SearchRequest) filter() (models.Filter, error) {
	for _, d := range []string{req.DateStart, req.DateEnd} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			return models.Filter{}, errors.New("dates must be YYYY-MM-DD")
		}
	}
	return models.Filter{
		DateStart:   req.DateStart,
		DateEnd:     req.DateEnd,
		Author:      req.Author,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Title:       req.Title,
	}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	filter, err := req.filter()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	articles, err := s.store.Find(r.Context(), filter)
	if err != nil {
		s.logger.Error("search failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search failed"})
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cats, err := s.store.Distinct(ctx, models.FieldCategory, models.Filter{})
	if err != nil {
		s.logger.Error("listing categories failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "categories failed"})
		return
	}

	result := make(map[string][]string, len(cats))
	for _, cat := range cats {
		subs, err := s.store.Distinct(ctx, models.FieldSubCategory, models.Filter{
			Equals: map[string]string{models.FieldCategory: cat},
		})
		if err != nil {
			s.logger.Error("listing sub-categories failed", "category", cat, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "categories failed"})
			return
		}
		result[cat] = subs
	}
	writeJSON(w, http.StatusOK, result)
}

// ---------- Middleware ----------

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && slices.Contains(s.allowedOrigins, origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
					h.Set("Access-Control-Allow-Headers", reqHeaders)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ---------- Helpers ----------

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
