package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/batch"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/fanout"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
)

// SearchServer is the engine surface the handlers drive.
type SearchServer interface {
	AddDocument(id int, text string, status index.Status, ratings []int) error
	FindTopDocuments(ctx context.Context, policy fanout.Policy, raw string, pred executor.Predicate) ([]ranker.ScoredDoc, error)
	MatchDocument(ctx context.Context, policy fanout.Policy, raw string, id int) (executor.MatchResult, error)
	RemoveDocument(policy fanout.Policy, id int) bool
	RemoveDuplicates(ctx context.Context) ([]int, error)
	WordFrequencies(id int) map[string]float64
	DocumentCount() int
	DocumentIDs() []int
}

type Options struct {
	DefaultPolicy        fanout.Policy
	MaxBatchQueries      int
	MaxConcurrentQueries int
}

type Handler struct {
	server SearchServer
	cache  *cache.QueryCache
	opts   Options
	logger *slog.Logger
}

type SearchResponse struct {
	Query     string             `json:"query"`
	Status    index.Status       `json:"status"`
	Policy    string             `json:"policy"`
	Results   []ranker.ScoredDoc `json:"results"`
	CacheHit  bool               `json:"cache_hit"`
	LatencyMs int64              `json:"latency_ms"`
}

type AddDocumentRequest struct {
	ID      *int         `json:"id"`
	Text    string       `json:"text"`
	Status  index.Status `json:"status"`
	Ratings []int        `json:"ratings"`
}

type BatchRequest struct {
	Queries []string `json:"queries"`
}

// New creates the handlers. queryCache may be nil.
func New(server SearchServer, queryCache *cache.QueryCache, opts Options) *Handler {
	if opts.MaxBatchQueries <= 0 {
		opts.MaxBatchQueries = 100
	}
	return &Handler{
		server: server,
		cache:  queryCache,
		opts:   opts,
		logger: slog.Default().With("component", "search-handler"),
	}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/search/batch", h.SearchBatch)
	mux.HandleFunc("POST /api/v1/documents", h.AddDocument)
	mux.HandleFunc("GET /api/v1/documents", h.ListDocuments)
	mux.HandleFunc("GET /api/v1/documents/{id}/words", h.WordFrequencies)
	mux.HandleFunc("GET /api/v1/documents/{id}/match", h.MatchDocument)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", h.RemoveDocument)
	mux.HandleFunc("POST /api/v1/documents/deduplicate", h.RemoveDuplicates)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	policy, ok := h.policy(w, r)
	if !ok {
		return
	}
	status := index.StatusActual
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := index.ParseStatus(s)
		if err != nil {
			h.writeAppError(w, err)
			return
		}
		status = parsed
	}

	compute := func(ctx context.Context) ([]ranker.ScoredDoc, error) {
		return h.server.FindTopDocuments(ctx, policy, query, executor.ByStatus(status))
	}
	var (
		results  []ranker.ScoredDoc
		cacheHit bool
		err      error
	)
	if h.cache != nil {
		results, cacheHit, err = h.cache.GetOrCompute(ctx, query, status.String(), compute)
	} else {
		results, err = compute(ctx)
	}
	if err != nil {
		log.Warn("search failed", "query", query, "error", err)
		h.writeAppError(w, err)
		return
	}

	resp := SearchResponse{
		Query:     query,
		Status:    status,
		Policy:    policy.String(),
		Results:   results,
		CacheHit:  cacheHit,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	log.Info("search completed",
		"query", query,
		"status", status,
		"policy", policy,
		"returned", len(results),
		"cache_hit", cacheHit,
		"latency_ms", resp.LatencyMs,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SearchBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Queries) == 0 {
		h.writeError(w, http.StatusBadRequest, "queries must not be empty")
		return
	}
	if len(req.Queries) > h.opts.MaxBatchQueries {
		h.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("at most %d queries per batch", h.opts.MaxBatchQueries))
		return
	}
	results, err := batch.ProcessQueries(r.Context(), h.server, req.Queries, h.opts.MaxConcurrentQueries)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(results),
		"results": results,
	})
}

func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req AddDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.ID == nil {
		h.writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := h.server.AddDocument(*req.ID, req.Text, req.Status, req.Ratings); err != nil {
		logger.FromContext(r.Context()).Warn("document rejected", "doc_id", *req.ID, "error", err)
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"id":             *req.ID,
		"status":         req.Status,
		"document_count": h.server.DocumentCount(),
	})
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids := h.server.DocumentIDs()
	if ids == nil {
		ids = []int{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count": len(ids),
		"ids":   ids,
	})
}

func (h *Handler) WordFrequencies(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":    id,
		"words": h.server.WordFrequencies(id),
	})
}

func (h *Handler) MatchDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	policy, ok := h.policy(w, r)
	if !ok {
		return
	}
	result, err := h.server.MatchDocument(r.Context(), policy, r.URL.Query().Get("q"), id)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"words":  result.Words,
		"status": result.Status,
	})
}

func (h *Handler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	policy, ok := h.policy(w, r)
	if !ok {
		return
	}
	removed := h.server.RemoveDocument(policy, id)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"removed": removed,
	})
}

func (h *Handler) RemoveDuplicates(w http.ResponseWriter, r *http.Request) {
	removed, err := h.server.RemoveDuplicates(r.Context())
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	if removed == nil {
		removed = []int{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"removed":        removed,
		"document_count": h.server.DocumentCount(),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) policy(w http.ResponseWriter, r *http.Request) (fanout.Policy, bool) {
	raw := r.URL.Query().Get("policy")
	if raw == "" {
		return h.opts.DefaultPolicy, true
	}
	p, err := fanout.ParsePolicy(raw)
	if err != nil {
		h.writeAppError(w, err)
		return 0, false
	}
	return p, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "document id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		message = "internal error"
	}
	h.writeError(w, status, message)
}
