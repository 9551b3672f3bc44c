package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"jobscout/internal/agent"
	"jobscout/internal/analyzer"
	"jobscout/internal/model"
	"jobscout/internal/scraper"
	"jobscout/internal/storage"

	"go.uber.org/zap"
)

// SearchAgent 抽象编排器接口。
type SearchAgent interface {
	ExecuteSearch(ctx context.Context, req agent.SearchRequest) (*agent.SearchResult, error)
	GetJobs(ctx context.Context, limit int, source, keywords string) ([]model.Job, error)
}

// Store 抽象 HTTP 层所需的只读存储接口。
type Store interface {
	GetJob(ctx context.Context, id uint) (*model.Job, error)
	GetStats(ctx context.Context) (storage.Stats, error)
}

// JobAnalyzer 抽象单职位分析接口。
type JobAnalyzer interface {
	Analyze(ctx context.Context, job model.Job) analyzer.Analysis
}

// searchRequest 为 POST /api/search 请求体。
// analyze / save_to_db 缺省为 true。
type searchRequest struct {
	Keywords   string `json:"keywords"`
	Location   string `json:"location"`
	Analyze    *bool  `json:"analyze"`
	SaveToDB   *bool  `json:"save_to_db"`
	Page       string `json:"page"`
	DatePosted string `json:"date_posted"`
	JobType    string `json:"job_type"`
}

// webhookRequest 为外部工作流（如 n8n）的嵌套请求体。
type webhookRequest struct {
	Keywords string `json:"keywords"`
	Location string `json:"location"`
	Options  struct {
		Analyze  *bool `json:"analyze"`
		SaveToDB *bool `json:"save_to_db"`
	} `json:"options"`
}

// analyzeRequest 为 POST /api/analyze 请求体。
type analyzeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewHandler 构造 HTTP 多路复用器。
func NewHandler(ag SearchAgent, store Store, an JobAnalyzer, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "jobscout"})
	})

	mux.HandleFunc("POST /api/search", func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if req.Keywords == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing required field: keywords"})
			return
		}

		logger.Info("received search request",
			zap.String("keywords", req.Keywords),
			zap.String("location", req.Location))

		result, err := ag.ExecuteSearch(r.Context(), agent.SearchRequest{
			Keywords: req.Keywords,
			Location: req.Location,
			Analyze:  boolOr(req.Analyze, true),
			SaveToDB: boolOr(req.SaveToDB, true),
			Options: scraper.Options{
				Page:       req.Page,
				DatePosted: req.DatePosted,
				JobType:    req.JobType,
			},
		})
		if err != nil {
			logger.Error("search failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	mux.HandleFunc("GET /api/jobs", func(w http.ResponseWriter, r *http.Request) {
		limit := 100
		if l := r.URL.Query().Get("limit"); l != "" {
			if v, err := strconv.Atoi(l); err == nil && v > 0 {
				limit = v
			}
		}

		jobs, err := ag.GetJobs(r.Context(), limit, r.URL.Query().Get("source"), r.URL.Query().Get("keywords"))
		if err != nil {
			logger.Error("list jobs failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": len(jobs), "jobs": jobs})
	})

	mux.HandleFunc("GET /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job id"})
			return
		}

		job, err := store.GetJob(r.Context(), uint(id))
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
			return
		}
		if err != nil {
			logger.Error("get job failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, job)
	})

	mux.HandleFunc("POST /webhook/job-search", func(w http.ResponseWriter, r *http.Request) {
		var req webhookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if req.Keywords == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing required field: keywords"})
			return
		}

		logger.Info("webhook triggered",
			zap.String("keywords", req.Keywords),
			zap.String("location", req.Location))

		result, err := ag.ExecuteSearch(r.Context(), agent.SearchRequest{
			Keywords: req.Keywords,
			Location: req.Location,
			Analyze:  boolOr(req.Options.Analyze, true),
			SaveToDB: boolOr(req.Options.SaveToDB, true),
		})
		if err != nil {
			logger.Error("webhook search failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   err.Error(),
				"message": "Search failed",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": fmt.Sprintf("Found %d jobs, saved %d new jobs", result.TotalJobs, result.NewJobsSaved),
			"data":    result,
		})
	})

	mux.HandleFunc("POST /api/analyze", func(w http.ResponseWriter, r *http.Request) {
		if an == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "job analysis is not configured"})
			return
		}

		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if req.Description == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing required field: description"})
			return
		}

		analysis := an.Analyze(r.Context(), model.Job{Title: req.Title, Description: req.Description})
		writeJSON(w, http.StatusOK, analysis)
	})

	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.GetStats(r.Context())
		if err != nil {
			logger.Error("get stats failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "endpoint not found"})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
