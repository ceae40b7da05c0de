package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/reviewscope/crawler/internal/config"
	"github.com/reviewscope/crawler/internal/observability"
	"github.com/reviewscope/crawler/internal/storage"
	"github.com/reviewscope/crawler/internal/types"
)

// Crawler is the engine surface the API needs. Narrow on purpose so
// handlers can be tested against a fake.
type Crawler interface {
	ExtractMetadata(ctx context.Context, url string) (*types.ProductMetadata, error)
	CrawlReviews(ctx context.Context, url, platform, itemID string, maxPages int) ([]types.ReviewRecord, error)
}

// Server exposes the crawl engine over HTTP. When a ReviewStore is
// configured it also serves the persistence routes; without one the
// caller owns persistence and only gets the raw record arrays.
type Server struct {
	mux     *http.ServeMux
	cfg     *config.ServerConfig
	crawler Crawler
	store   storage.ReviewStore
	metrics *observability.Metrics
	logger  *slog.Logger
	httpSrv *http.Server
}

// NewServer creates the API server. store may be nil.
func NewServer(cfg *config.ServerConfig, crawler Crawler, store storage.ReviewStore, metrics *observability.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		cfg:     cfg,
		crawler: crawler,
		store:   store,
		metrics: metrics,
		logger:  logger.With("component", "api_server"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics)
	s.mux.HandleFunc("POST /extract/metadata", s.handleExtractMetadata)
	s.mux.HandleFunc("POST /crawl/reviews", s.handleCrawlReviews)

	if s.store != nil {
		s.mux.HandleFunc("POST /items/{id}/crawl", s.handleItemCrawl)
		s.mux.HandleFunc("GET /items/{id}/crawl", s.handleItemCrawlStatus)
	}
}

// Handler returns the route handler, mostly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Start runs the server until Shutdown or a listener error. The write
// timeout must outlast a full review crawl, which can take minutes.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("API server starting", "addr", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleExtractMetadata(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if body.URL == "" {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "URL is required"})
		return
	}

	s.logger.Info("extracting metadata", "url", body.URL)

	md, err := s.crawler.ExtractMetadata(r.Context(), body.URL)
	if err != nil {
		s.crawlError(w, body.URL, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, md)
}

func (s *Server) handleCrawlReviews(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL      string `json:"url"`
		Platform string `json:"platform"`
		ItemID   string `json:"itemId"`
		MaxPages int    `json:"maxPages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if body.URL == "" {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "URL is required"})
		return
	}

	s.logger.Info("review crawl requested",
		"url", body.URL, "item_id", body.ItemID, "max_pages", body.MaxPages)
	start := time.Now()

	records, err := s.crawler.CrawlReviews(r.Context(), body.URL, body.Platform, body.ItemID, body.MaxPages)
	if err != nil {
		s.crawlError(w, body.URL, err)
		return
	}

	s.logger.Info("review crawl completed",
		"url", body.URL, "reviews", len(records), "elapsed", time.Since(start))
	s.jsonResponse(w, http.StatusOK, records)
}

func (s *Server) handleItemCrawl(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")

	var body struct {
		URL      string `json:"url"`
		Platform string `json:"platform"`
		MaxPages int    `json:"maxPages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if body.URL == "" {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "URL is required"})
		return
	}

	records, err := s.crawler.CrawlReviews(r.Context(), body.URL, body.Platform, itemID, body.MaxPages)
	if err != nil {
		s.crawlError(w, body.URL, err)
		return
	}

	inserted, skipped, err := s.store.UpsertReviews(r.Context(), itemID, records)
	if err != nil {
		s.logger.Error("review upsert failed", "item_id", itemID, "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "failed to store reviews"})
		return
	}
	s.metrics.ReviewsInserted.Add(int64(inserted))
	s.metrics.ReviewsSkipped.Add(int64(skipped))
	if err := s.store.TouchLastCrawled(r.Context(), itemID, time.Now()); err != nil {
		s.logger.Warn("failed to stamp last_crawled_at", "item_id", itemID, "error", err)
	}

	s.jsonResponse(w, http.StatusOK, types.CrawlResult{
		Success:  true,
		Crawled:  len(records),
		Inserted: inserted,
		Skipped:  skipped,
	})
}

func (s *Server) handleItemCrawlStatus(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")

	lastCrawledAt, count, err := s.store.CrawlStatus(r.Context(), itemID)
	if errors.Is(err, types.ErrItemNotFound) {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}
	if err != nil {
		s.logger.Error("crawl status lookup failed", "item_id", itemID, "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "status lookup failed"})
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"last_crawled_at": lastCrawledAt,
		"review_count":    count,
	})
}

// crawlError maps engine failures onto the API contract: unsupported
// platforms are an expected 400, navigation failures an upstream 502,
// anything else a 500.
func (s *Server) crawlError(w http.ResponseWriter, url string, err error) {
	var navErr *types.NavigationError
	switch {
	case errors.Is(err, types.ErrUnsupportedPlatform):
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "unsupported platform"})
	case errors.As(err, &navErr):
		s.logger.Error("navigation failed", "url", url, "error", err)
		s.jsonResponse(w, http.StatusBadGateway, map[string]string{"error": "failed to load target page"})
	default:
		s.logger.Error("crawl failed", "url", url, "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
