package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"marketpulse/internal/config"
	"marketpulse/internal/core"
	"marketpulse/internal/pipeline"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Pipeline: config.Pipeline{
			WorkerCount:          5,
			RequiredArticles:     10,
			SummarySentenceCount: 3,
			TopicKeywordCount:    5,
			MinContentWords:      50,
			TopicSeed:            42,
		},
		Fetch:  config.Fetch{Timeout: "2s", MaxAttempts: 2, BackoffBase: "10ms", ExtractMode: "paragraphs"},
		Search: config.Search{Provider: "mock", Timeout: "1s"},
		Audio: config.Audio{
			Enabled:    true,
			Provider:   "mock",
			Translator: "none",
			OutputDir:  t.TempDir(),
			URLPrefix:  "static/audio",
		},
		Cache: config.Cache{Backend: "sqlite", Directory: t.TempDir(), TTL: "1h"},
	}
}

func TestPipelineConfigOverrides(t *testing.T) {
	cfg := testConfig(t)

	got := pipelineConfig(cfg, overrides{})
	if got.WorkerCount != 5 || got.RequiredArticles != 10 || !got.AudioEnabled {
		t.Errorf("pipelineConfig() = %+v", got)
	}

	got = pipelineConfig(cfg, overrides{workers: 2, required: 3, noAudio: true})
	if got.WorkerCount != 2 || got.RequiredArticles != 3 || got.AudioEnabled {
		t.Errorf("pipelineConfig(overrides) = %+v", got)
	}
}

func TestFetchOptions(t *testing.T) {
	opts := fetchOptions(config.Fetch{Timeout: "3s", BackoffBase: "250ms", MaxAttempts: 4, UserAgent: "bot/1.0"})
	if opts.Timeout != 3*time.Second || opts.BackoffBase != 250*time.Millisecond {
		t.Errorf("durations = %v, %v", opts.Timeout, opts.BackoffBase)
	}
	if opts.MaxAttempts != 4 || opts.UserAgent != "bot/1.0" {
		t.Errorf("opts = %+v", opts)
	}

	defaults := fetchOptions(config.Fetch{})
	if defaults.MaxAttempts != 3 || defaults.UserAgent != "Mozilla/5.0" || defaults.Timeout != 10*time.Second {
		t.Errorf("defaults = %+v", defaults)
	}
}

func TestOpenCacheDisabled(t *testing.T) {
	cache, err := openCache(config.Cache{Backend: "none"})
	if err != nil {
		t.Fatalf("openCache() error = %v", err)
	}
	if cache != nil {
		t.Errorf("openCache(none) = %v, want nil", cache)
	}
}

func TestNewApp(t *testing.T) {
	a, err := newApp(testConfig(t), overrides{})
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.Close()

	if a.cache == nil {
		t.Error("sqlite cache not opened")
	}
	if got := a.pipeline.Config(); !got.AudioEnabled {
		t.Errorf("pipeline config = %+v", got)
	}

	report, err := a.pipeline.ProcessReport(context.Background(), nil)
	if err != nil {
		t.Fatalf("ProcessReport(nil) error = %v", err)
	}
	if len(report.Results) != 0 {
		t.Errorf("results = %+v", report.Results)
	}
}

func TestNewAppRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Search.Provider = "altavista"
	if _, err := newApp(cfg, overrides{}); err == nil {
		t.Fatal("expected error for unknown search provider")
	}
}

func TestWriteLinks(t *testing.T) {
	links := []core.ArticleLink{{Title: "Tesla earnings", URL: "https://example.com/1"}}

	var text bytes.Buffer
	if err := writeLinks(&text, links, "text"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "1. Tesla earnings") {
		t.Errorf("text output = %q", text.String())
	}

	var js bytes.Buffer
	if err := writeLinks(&js, nil, "json"); err != nil {
		t.Fatal(err)
	}
	var body map[string][]core.ArticleLink
	if err := json.Unmarshal(js.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if links, ok := body["news_links"]; !ok || links == nil {
		t.Errorf("json output = %s", js.String())
	}
}

func TestWriteReport(t *testing.T) {
	audio := "static/audio/x.mp3"
	report := &pipeline.Report{
		Results: core.ResultSet{
			"B headline": {URL: "https://example.com/b", Summary: "B summary.", Sentiment: core.SentimentNegative, Topics: []string{"lawsuit"}, Analysis: "B headline:\nLegal risk."},
			"A headline": {URL: "https://example.com/a", Summary: "A summary.", Sentiment: core.SentimentPositive, Topics: []string{"revenue", "growth"}, Analysis: "A headline:\nGood.", Audio: &audio},
		},
		Failures: []*core.ArticleError{
			core.NewArticleError(core.ErrorKindContentTooShort, core.ArticleLink{Title: "Stub", URL: "https://example.com/c"}, errors.New("12 words")),
		},
		Degraded: []*core.ArticleError{
			core.NewArticleError(core.ErrorKindEnrichment, core.ArticleLink{Title: "B headline", URL: "https://example.com/b"}, errors.New("no audio")),
		},
		Stats: core.BatchStats{Dispatched: 3, Succeeded: 2, Dropped: 1, Kept: 2, Degraded: 1},
	}

	var text bytes.Buffer
	if err := writeReport(&text, report, "text"); err != nil {
		t.Fatal(err)
	}
	out := text.String()
	if strings.Index(out, "## A headline") > strings.Index(out, "## B headline") {
		t.Error("text report is not ordered by title")
	}
	for _, want := range []string{"revenue, growth", "Audio:     static/audio/x.mp3", "[content_too_short] Stub", "[enrichment_failure] B headline: no audio", "Dispatched 3, succeeded 2, dropped 1, kept 2, degraded 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}

	var js bytes.Buffer
	if err := writeReport(&js, report, "json"); err != nil {
		t.Fatal(err)
	}
	var results core.ResultSet
	if err := json.Unmarshal(js.Bytes(), &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results["A headline"].Audio == nil {
		t.Errorf("json results = %+v", results)
	}
}

func TestPruneAndStatsSQLiteCache(t *testing.T) {
	cache, err := openCache(config.Cache{Backend: "sqlite", Directory: t.TempDir(), TTL: "1h"})
	if err != nil {
		t.Fatalf("openCache() error = %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	if err := cache.Put(ctx, "https://example.com/a", core.AnalysisResult{URL: "https://example.com/a", Sentiment: core.SentimentNeutral}); err != nil {
		t.Fatal(err)
	}

	removed, err := pruneCache(ctx, cache)
	if err != nil {
		t.Fatalf("pruneCache() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0 for a fresh entry", removed)
	}

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	writeCacheStats(&out, stats)
	if !strings.Contains(out.String(), "Backend: sqlite") || !strings.Contains(out.String(), "Entries: 1") {
		t.Errorf("stats output = %q", out.String())
	}
}
