package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketpulse/internal/core"
)

// maxRequestBody bounds POST /analyze payloads
const maxRequestBody = 1 << 20

// Health check response
type HealthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime"`
	Checks map[string]string `json:"checks"`
	Cache  *core.CacheStats  `json:"cache,omitempty"`
}

// NewsLinks is the request and response body shape shared by /get-news and
// /analyze
type NewsLinks struct {
	NewsLinks []core.ArticleLink `json:"news_links"`
}

// ErrorResponse carries a failure message
type ErrorResponse struct {
	Detail string `json:"detail"`
}

var serverStartTime = time.Now()

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message": "News summarization and sentiment analysis API is running",
	})
}

// handleHealth handles the /health endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Uptime: time.Since(serverStartTime).Round(time.Second).String(),
		Checks: map[string]string{"pipeline": "ok"},
	}

	if s.cache != nil {
		stats, err := s.cache.Stats(r.Context())
		if err != nil {
			s.log.Warn("Cache health check failed", "error", err)
			resp.Status = "degraded"
			resp.Checks["cache"] = "error"
		} else {
			resp.Checks["cache"] = "ok"
			resp.Cache = stats
		}
	}

	s.respondJSON(w, http.StatusOK, resp)
}

// handleGetNews handles GET /get-news?company=
func (s *Server) handleGetNews(w http.ResponseWriter, r *http.Request) {
	company := strings.TrimSpace(r.URL.Query().Get("company"))
	if company == "" {
		s.respondError(w, http.StatusBadRequest, "query parameter 'company' is required")
		return
	}

	links := s.discoverer.DiscoverLinks(r.Context(), company)
	if links == nil {
		links = []core.ArticleLink{}
	}

	s.log.Info("Discovered news links", "company", company, "count", len(links))
	s.respondJSON(w, http.StatusOK, NewsLinks{NewsLinks: links})
}

// handleAnalyze handles POST /analyze. With ?detailed=true the full report
// including failures and batch stats is returned instead of the bare
// ResultSet.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req NewsLinks
	body := io.LimitReader(r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	links := make([]core.ArticleLink, 0, len(req.NewsLinks))
	for _, link := range req.NewsLinks {
		if strings.TrimSpace(link.URL) == "" {
			continue
		}
		links = append(links, link)
	}

	report, err := s.analyzer.ProcessReport(r.Context(), links)
	if err != nil {
		s.log.Error("Analysis failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Error during analysis: "+err.Error())
		return
	}

	s.log.Info("Analysis complete",
		"batch_id", report.Stats.BatchID,
		"dispatched", report.Stats.Dispatched,
		"kept", report.Stats.Kept,
		"dropped", report.Stats.Dropped,
	)

	if detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed")); detailed {
		s.respondJSON(w, http.StatusOK, report)
		return
	}
	s.respondJSON(w, http.StatusOK, report.Results)
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, status int, detail string) {
	s.respondJSON(w, status, ErrorResponse{Detail: detail})
}
