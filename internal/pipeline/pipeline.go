// Package pipeline runs the per-article analysis over a bounded worker pool
// and aggregates the outcomes into a ResultSet.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"marketpulse/internal/core"
	"marketpulse/internal/logger"
	"marketpulse/internal/summarize"
)

// ErrInvalidConfig is the only error Process returns: a batch never fails
// because of an individual article.
var ErrInvalidConfig = errors.New("invalid pipeline configuration")

// Config holds pipeline configuration
type Config struct {
	WorkerCount          int   // Concurrent article tasks
	RequiredArticles     int   // Stop aggregating once this many titles are kept
	SummarySentenceCount int   // Sentences per summary
	TopicKeywordCount    int   // Keywords per article
	MinContentWords      int   // Documents need strictly more words than this
	TopicSeed            int64 // Seed for the topic model
	AudioEnabled         bool
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		WorkerCount:          5,
		RequiredArticles:     10,
		SummarySentenceCount: 3,
		TopicKeywordCount:    5,
		MinContentWords:      50,
		TopicSeed:            42,
		AudioEnabled:         true,
	}
}

// Validate reports systemic misconfiguration.
func (c Config) Validate() error {
	var problems []error
	if c.WorkerCount < 1 {
		problems = append(problems, fmt.Errorf("worker_count must be at least 1, got %d", c.WorkerCount))
	}
	if c.RequiredArticles < 1 {
		problems = append(problems, fmt.Errorf("required_articles must be at least 1, got %d", c.RequiredArticles))
	}
	if c.SummarySentenceCount < 1 {
		problems = append(problems, fmt.Errorf("summary_sentence_count must be at least 1, got %d", c.SummarySentenceCount))
	}
	if c.TopicKeywordCount < 0 {
		problems = append(problems, fmt.Errorf("topic_keyword_count must not be negative, got %d", c.TopicKeywordCount))
	}
	if c.MinContentWords < 0 {
		problems = append(problems, fmt.Errorf("min_content_words must not be negative, got %d", c.MinContentWords))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(problems...))
	}
	return nil
}

// Pipeline orchestrates the analysis of a batch of article links
type Pipeline struct {
	fetcher    PageFetcher
	extractor  TextExtractor
	summarizer Summarizer
	classifier SentimentClassifier
	topics     TopicExtractor
	narrative  NarrativeGenerator
	audio      AudioSynthesizer // Optional
	cache      ResultCache      // Optional

	config Config
	log    *slog.Logger
}

// NewPipeline creates a new pipeline with all dependencies. audio and cache
// may be nil.
func NewPipeline(
	fetcher PageFetcher,
	extractor TextExtractor,
	summarizer Summarizer,
	classifier SentimentClassifier,
	topics TopicExtractor,
	narrative NarrativeGenerator,
	audio AudioSynthesizer,
	cache ResultCache,
	config Config,
) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		extractor:  extractor,
		summarizer: summarizer,
		classifier: classifier,
		topics:     topics,
		narrative:  narrative,
		audio:      audio,
		cache:      cache,
		config:     config,
		log:        logger.Get(),
	}
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Report is the full outcome of a batch. Degraded lists articles that
// succeeded with a fallback summary, no topics or no audio.
type Report struct {
	Results  core.ResultSet       `json:"results"`
	Failures []*core.ArticleError `json:"failures"`
	Degraded []*core.ArticleError `json:"degraded"`
	Stats    core.BatchStats      `json:"stats"`
}

// outcome is the result of one article task: exactly one of result or err
// is set.
type outcome struct {
	result   *core.AnalysisResult
	err      *core.ArticleError
	degraded []*core.ArticleError
	cacheHit bool
}

var (
	errSummaryFallback = errors.New("no sentence vocabulary survived filtering, using fallback summary")
	errNoTopics        = errors.New("no topic vocabulary survived filtering")
	errNoAudio         = errors.New("audio synthesis produced no artifact")
)

// Process analyzes links and returns the ResultSet. Failed articles are
// dropped silently; only ErrInvalidConfig is returned.
func (p *Pipeline) Process(ctx context.Context, links []core.ArticleLink) (core.ResultSet, error) {
	report, err := p.ProcessReport(ctx, links)
	if err != nil {
		return nil, err
	}
	return report.Results, nil
}

// ProcessReport is Process with per-article failures and batch statistics.
//
// Every link is dispatched to the pool and runs to completion, even if ctx
// is cancelled afterwards: tasks only inherit its values. Outcomes are
// then walked in submission order: successes are inserted by title, later
// duplicates overwriting earlier ones, and the walk stops once the set holds
// RequiredArticles entries.
func (p *Pipeline) ProcessReport(ctx context.Context, links []core.ArticleLink) (*Report, error) {
	if err := p.config.Validate(); err != nil {
		return nil, err
	}

	stats := core.BatchStats{
		BatchID:    uuid.NewString(),
		Dispatched: len(links),
		StartTime:  time.Now().UTC(),
	}
	p.log.Info("batch started", "batch_id", stats.BatchID, "articles", len(links), "workers", p.config.WorkerCount)

	taskCtx := context.WithoutCancel(ctx)
	outcomes := make([]outcome, len(links))
	var g errgroup.Group
	g.SetLimit(p.config.WorkerCount)
	for i, link := range links {
		g.Go(func() error {
			outcomes[i] = p.runTask(taskCtx, link)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{
		Results:  core.ResultSet{},
		Failures: []*core.ArticleError{},
		Degraded: []*core.ArticleError{},
	}
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			stats.Dropped++
			report.Failures = append(report.Failures, o.err)
		case o.result != nil:
			stats.Succeeded++
			if o.cacheHit {
				stats.CacheHits++
			}
			if len(o.degraded) > 0 {
				stats.Degraded++
				report.Degraded = append(report.Degraded, o.degraded...)
			}
		}
	}

	for i, o := range outcomes {
		if o.result != nil {
			report.Results[links[i].Title] = *o.result
		}
		if len(report.Results) >= p.config.RequiredArticles {
			break
		}
	}

	stats.Kept = len(report.Results)
	stats.Elapsed = time.Since(stats.StartTime)
	report.Stats = stats

	p.log.Info("batch finished",
		"batch_id", stats.BatchID,
		"dispatched", stats.Dispatched,
		"succeeded", stats.Succeeded,
		"dropped", stats.Dropped,
		"kept", stats.Kept,
		"degraded", stats.Degraded,
		"cache_hits", stats.CacheHits,
		"duration_ms", stats.Elapsed.Milliseconds())
	return report, nil
}

// runTask isolates one article: a panic becomes an internal failure.
func (p *Pipeline) runTask(ctx context.Context, link core.ArticleLink) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: core.NewArticleError(core.ErrorKindInternal, link, fmt.Errorf("panic: %v", r))}
			p.log.Error("article task panicked", "url", link.URL, "title", link.Title, "panic", r)
		}
	}()

	o = p.analyze(ctx, link)
	if o.err != nil {
		p.log.Warn("article dropped", "url", link.URL, "title", link.Title, "kind", o.err.Kind, "error", o.err.Err)
		return o
	}
	for _, d := range o.degraded {
		p.log.Info("article degraded", "url", link.URL, "title", link.Title, "kind", d.Kind, "error", d.Err)
	}
	return o
}

func (p *Pipeline) analyze(ctx context.Context, link core.ArticleLink) outcome {
	key := p.cacheKey(link.URL)
	if cached, ok := p.lookup(ctx, key); ok {
		cached.Analysis = p.narrative.Headline(link.Title, cached.Analysis)
		return outcome{result: cached, cacheHit: true}
	}

	body, err := p.fetcher.FetchPage(ctx, link.URL)
	if err != nil {
		return outcome{err: core.NewArticleError(core.ErrorKindFetch, link, err)}
	}

	doc := p.extractor.Extract(link.URL, body)
	if !doc.Usable(p.config.MinContentWords) {
		return outcome{err: core.NewArticleError(core.ErrorKindContentTooShort, link,
			fmt.Errorf("%d words, need more than %d", doc.WordCount(), p.config.MinContentWords))}
	}

	var degraded []*core.ArticleError
	summary := p.summarizer.SummarizeN(doc.Text, p.config.SummarySentenceCount)
	if summary == summarize.FallbackSummary {
		degraded = append(degraded, core.NewArticleError(core.ErrorKindVectorizationDegenerate, link, errSummaryFallback))
	}
	sentiment := p.classifier.Classify(doc.Text)
	topics := p.topics.ExtractTopics([]string{doc.Text}, p.config.TopicKeywordCount)
	if len(topics) == 0 && p.config.TopicKeywordCount > 0 {
		degraded = append(degraded, core.NewArticleError(core.ErrorKindVectorizationDegenerate, link, errNoTopics))
	}
	narrativeBody := p.narrative.Body(sentiment, doc.Text)

	var audio *string
	if p.config.AudioEnabled && p.audio != nil {
		audio = p.audio.Synthesize(ctx, summary)
		if audio == nil {
			degraded = append(degraded, core.NewArticleError(core.ErrorKindEnrichment, link, errNoAudio))
		}
	}

	result := core.AnalysisResult{
		URL:       link.URL,
		Summary:   summary,
		Sentiment: sentiment,
		Topics:    topics,
		Analysis:  narrativeBody,
		Audio:     audio,
	}
	p.store(ctx, key, result)
	result.Analysis = p.narrative.Headline(link.Title, narrativeBody)
	return outcome{result: &result, degraded: degraded}
}

// cacheKey qualifies url with the settings that change a result, so a batch
// run with a different sentence count, keyword count or seed misses.
func (p *Pipeline) cacheKey(url string) string {
	return fmt.Sprintf("%s#s=%d&t=%d&seed=%d",
		url, p.config.SummarySentenceCount, p.config.TopicKeywordCount, p.config.TopicSeed)
}

func (p *Pipeline) lookup(ctx context.Context, key string) (*core.AnalysisResult, bool) {
	if p.cache == nil {
		return nil, false
	}
	cached, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.log.Warn("result cache read failed", "key", key, "error", err)
		return nil, false
	}
	return cached, ok
}

func (p *Pipeline) store(ctx context.Context, key string, result core.AnalysisResult) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Put(ctx, key, result); err != nil {
		p.log.Warn("result cache write failed", "key", key, "error", err)
	}
}
