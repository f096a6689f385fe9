package pipeline

import (
	"context"

	"marketpulse/internal/core"
)

// PageFetcher retrieves the raw bytes of an article page
type PageFetcher interface {
	// FetchPage returns the page body, retrying transient failures
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// TextExtractor turns a fetched page into plain text
type TextExtractor interface {
	Extract(url string, html []byte) core.ExtractedDocument
}

// Summarizer produces an extractive summary of k sentences
type Summarizer interface {
	SummarizeN(text string, k int) string
}

// SentimentClassifier labels text as Positive, Neutral or Negative
type SentimentClassifier interface {
	Classify(text string) core.Sentiment
}

// TopicExtractor returns up to n keywords for a corpus
type TopicExtractor interface {
	ExtractTopics(corpus []string, n int) []string
}

// NarrativeGenerator renders the rule-based impact analysis. The body does
// not depend on the title, so a cached body can be re-headed for a new one.
type NarrativeGenerator interface {
	Body(sentiment core.Sentiment, text string) string
	Headline(title, body string) string
}

// AudioSynthesizer renders a summary as speech. A nil handle means the
// enrichment failed and the result carries no audio.
type AudioSynthesizer interface {
	Synthesize(ctx context.Context, text string) *string
}

// ResultCache stores finished analyses. Keys are article URLs qualified by
// the pipeline settings that shape a result; cached entries hold the
// narrative body without its title line.
type ResultCache interface {
	// Get returns the cached result for key, if present and fresh
	Get(ctx context.Context, key string) (*core.AnalysisResult, bool, error)

	// Put stores a successful result
	Put(ctx context.Context, key string, result core.AnalysisResult) error
}
