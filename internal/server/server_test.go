package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"marketpulse/internal/config"
	"marketpulse/internal/core"
	"marketpulse/internal/pipeline"
)

type fakeAnalyzer struct {
	report *pipeline.Report
	err    error
	got    []core.ArticleLink
	delay  time.Duration
	ctxErr error
}

func (f *fakeAnalyzer) ProcessReport(ctx context.Context, links []core.ArticleLink) (*pipeline.Report, error) {
	f.got = links
	time.Sleep(f.delay)
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type fakeDiscoverer struct {
	links   []core.ArticleLink
	company string
}

func (f *fakeDiscoverer) DiscoverLinks(ctx context.Context, company string) []core.ArticleLink {
	f.company = company
	return f.links
}

type fakeCache struct {
	stats *core.CacheStats
	err   error
}

func (f *fakeCache) Stats(ctx context.Context) (*core.CacheStats, error) {
	return f.stats, f.err
}

func newTestServer(t *testing.T, a Analyzer, d LinkDiscoverer, c CacheInspector) (*httptest.Server, string) {
	t.Helper()
	static := t.TempDir()
	srv := New(a, d, c, config.Server{
		Host:      "127.0.0.1",
		StaticDir: static,
		CORS:      config.CORS{Enabled: true, AllowedOrigins: []string{"*"}},
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, static
}

func sampleReport() *pipeline.Report {
	audio := "static/audio/abc.mp3"
	return &pipeline.Report{
		Results: core.ResultSet{
			"Chip sales surge": {
				URL:       "https://example.com/a",
				Summary:   "Chip sales rose.",
				Sentiment: core.SentimentPositive,
				Topics:    []string{"chip", "sales"},
				Analysis:  "Chip sales surge:\nNo direct impact.",
				Audio:     &audio,
			},
		},
		Failures: []*core.ArticleError{
			core.NewArticleError(core.ErrorKindFetch, core.ArticleLink{Title: "Broken", URL: "https://example.com/b"}, errors.New("status 404")),
		},
		Stats: core.BatchStats{BatchID: "b1", Dispatched: 2, Succeeded: 1, Dropped: 1, Kept: 1},
	}
}

func TestRootAndHealth(t *testing.T) {
	ts, _ := newTestServer(t, &fakeAnalyzer{}, &fakeDiscoverer{}, &fakeCache{stats: &core.CacheStats{Backend: "sqlite", Entries: 3}})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d", resp.StatusCode)
	}
	var root map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&root); err != nil {
		t.Fatal(err)
	}
	if root["message"] == "" {
		t.Error("GET / returned no message")
	}

	resp, err = http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" || health.Checks["cache"] != "ok" {
		t.Errorf("health = %+v", health)
	}
	if health.Cache == nil || health.Cache.Entries != 3 {
		t.Errorf("health cache = %+v", health.Cache)
	}
}

func TestHealthDegradedCache(t *testing.T) {
	ts, _ := newTestServer(t, &fakeAnalyzer{}, &fakeDiscoverer{}, &fakeCache{err: errors.New("redis down")})

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "degraded" || health.Checks["cache"] != "error" {
		t.Errorf("health = %+v", health)
	}
}

func TestGetNews(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		links      []core.ArticleLink
		wantStatus int
		wantCount  int
	}{
		{
			name:  "links found",
			query: "?company=Tesla",
			links: []core.ArticleLink{
				{Title: "Tesla earnings", URL: "https://example.com/1"},
				{Title: "Tesla recall", URL: "https://example.com/2"},
			},
			wantStatus: http.StatusOK,
			wantCount:  2,
		},
		{
			name:       "nothing found",
			query:      "?company=Nobody",
			wantStatus: http.StatusOK,
			wantCount:  0,
		},
		{
			name:       "missing company",
			query:      "",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "blank company",
			query:      "?company=%20%20",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDiscoverer{links: tt.links}
			ts, _ := newTestServer(t, &fakeAnalyzer{}, d, nil)

			resp, err := http.Get(ts.URL + "/get-news" + tt.query)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				var e ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Detail == "" {
					t.Errorf("error body = %+v, err = %v", e, err)
				}
				return
			}

			var body map[string]json.RawMessage
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			var links []core.ArticleLink
			if err := json.Unmarshal(body["news_links"], &links); err != nil {
				t.Fatalf("news_links = %s: %v", body["news_links"], err)
			}
			if links == nil {
				t.Error("news_links should be an empty array, not null")
			}
			if len(links) != tt.wantCount {
				t.Errorf("len(news_links) = %d, want %d", len(links), tt.wantCount)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	a := &fakeAnalyzer{report: sampleReport()}
	ts, _ := newTestServer(t, a, &fakeDiscoverer{}, nil)

	body := `{"news_links":[{"title":"Chip sales surge","url":"https://example.com/a"},{"title":"Blank","url":""},{"title":"Broken","url":"https://example.com/b"}]}`
	resp, err := http.Post(ts.URL+"/analyze", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(a.got) != 2 {
		t.Errorf("analyzer received %d links, want 2 (blank URL skipped)", len(a.got))
	}

	var results core.ResultSet
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		t.Fatal(err)
	}
	got, ok := results["Chip sales surge"]
	if !ok {
		t.Fatalf("results = %+v", results)
	}
	if got.Sentiment != core.SentimentPositive || got.Audio == nil || *got.Audio != "static/audio/abc.mp3" {
		t.Errorf("result = %+v", got)
	}
}

func TestAnalyzeOutlivesRequestTimeout(t *testing.T) {
	a := &fakeAnalyzer{report: sampleReport(), delay: 100 * time.Millisecond}
	srv := New(a, &fakeDiscoverer{}, nil, config.Server{
		Host:           "127.0.0.1",
		StaticDir:      t.TempDir(),
		RequestTimeout: "10ms",
	})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body := `{"news_links":[{"title":"Chip sales surge","url":"https://example.com/a"}]}`
	resp, err := http.Post(ts.URL+"/analyze", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if a.ctxErr != nil {
		t.Errorf("analysis context ended early: %v", a.ctxErr)
	}
}

func TestAnalyzeDetailed(t *testing.T) {
	ts, _ := newTestServer(t, &fakeAnalyzer{report: sampleReport()}, &fakeDiscoverer{}, nil)

	resp, err := http.Post(ts.URL+"/analyze?detailed=true", "application/json",
		strings.NewReader(`{"news_links":[{"title":"a","url":"https://example.com/a"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var report struct {
		Results  core.ResultSet    `json:"results"`
		Failures []json.RawMessage `json:"failures"`
		Stats    core.BatchStats   `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 1 || len(report.Failures) != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.Stats.Dropped != 1 || report.Stats.BatchID != "b1" {
		t.Errorf("stats = %+v", report.Stats)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name       string
		analyzer   *fakeAnalyzer
		body       string
		wantStatus int
		wantDetail string
	}{
		{
			name:       "malformed json",
			analyzer:   &fakeAnalyzer{report: sampleReport()},
			body:       `{"news_links":`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Invalid request body",
		},
		{
			name:       "invalid configuration",
			analyzer:   &fakeAnalyzer{err: pipeline.ErrInvalidConfig},
			body:       `{"news_links":[]}`,
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Error during analysis: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, tt.analyzer, &fakeDiscoverer{}, nil)

			resp, err := http.Post(ts.URL+"/analyze", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var e ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
				t.Fatal(err)
			}
			if !strings.HasPrefix(e.Detail, tt.wantDetail) {
				t.Errorf("detail = %q, want prefix %q", e.Detail, tt.wantDetail)
			}
		})
	}
}

func TestStaticAudio(t *testing.T) {
	ts, static := newTestServer(t, &fakeAnalyzer{}, &fakeDiscoverer{}, nil)

	dir := filepath.Join(static, "audio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "clip.mp3"), []byte("ID3fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(ts.URL + "/static/audio/clip.mp3")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); !strings.Contains(cc, "immutable") {
		t.Errorf("Cache-Control = %q", cc)
	}

	resp, err = http.Get(ts.URL + "/static/audio/missing.mp3")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing file status = %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, &fakeAnalyzer{}, &fakeDiscoverer{}, nil)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/analyze", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
