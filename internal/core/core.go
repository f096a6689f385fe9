package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ArticleLink is a candidate article handed to the pipeline by the caller.
// Title is the aggregation key of the ResultSet and is not required to be unique.
type ArticleLink struct {
	Title string `json:"title"` // Headline shown by the search provider
	URL   string `json:"url"`   // Absolute article URL
}

// ExtractedDocument is the plain prose body of a fetched page.
type ExtractedDocument struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// WordCount returns the number of whitespace-separated words in the document.
func (d ExtractedDocument) WordCount() int {
	return len(strings.Fields(d.Text))
}

// Usable reports whether the document has strictly more than minWords words.
func (d ExtractedDocument) Usable(minWords int) bool {
	return d.WordCount() > minWords
}

// Sentiment is the 3-way polarity label attached to every result.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// Valid reports whether s is one of the three labels.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// AnalysisResult is produced once per successfully processed article.
type AnalysisResult struct {
	URL       string    `json:"url"`
	Summary   string    `json:"summary"`   // Extractive summary, or the fallback text
	Sentiment Sentiment `json:"sentiment"` // Always one of the three labels
	Topics    []string  `json:"topics"`    // Highest-weighted keywords, strongest first
	Analysis  string    `json:"analysis"`  // Rule-derived narrative
	Audio     *string   `json:"audio"`     // Relative handle of the translated speech artifact, nil when unavailable
}

// AudioHandle returns the audio handle or an empty string.
func (r AnalysisResult) AudioHandle() string {
	if r.Audio == nil {
		return ""
	}
	return *r.Audio
}

// ResultSet maps article titles to their analysis. Later insertions with an
// existing title overwrite the earlier entry.
type ResultSet map[string]AnalysisResult

// ErrorKind classifies why an article did not make it into the ResultSet, or
// which step of a kept article fell back.
type ErrorKind string

const (
	ErrorKindFetch                   ErrorKind = "fetch_error"
	ErrorKindContentTooShort         ErrorKind = "content_too_short"
	ErrorKindVectorizationDegenerate ErrorKind = "vectorization_degenerate"
	ErrorKindEnrichment              ErrorKind = "enrichment_failure"
	ErrorKindInternal                ErrorKind = "internal_error"
)

var (
	// ErrFetch marks network, timeout and HTTP status failures.
	ErrFetch = errors.New("fetch failed")

	// ErrContentTooShort marks documents at or below the minimum word count.
	ErrContentTooShort = errors.New("content too short")

	// ErrVectorizationDegenerate marks text whose filtered vocabulary is empty.
	ErrVectorizationDegenerate = errors.New("vectorization degenerate")

	// ErrEnrichment marks translation, synthesis or storage failures.
	ErrEnrichment = errors.New("enrichment failed")

	// ErrInternal marks a task that panicked.
	ErrInternal = errors.New("internal error")
)

var kindSentinels = map[ErrorKind]error{
	ErrorKindFetch:                   ErrFetch,
	ErrorKindContentTooShort:         ErrContentTooShort,
	ErrorKindVectorizationDegenerate: ErrVectorizationDegenerate,
	ErrorKindEnrichment:              ErrEnrichment,
	ErrorKindInternal:                ErrInternal,
}

// ArticleError records a per-article failure. It matches the sentinel of its
// kind with errors.Is and unwraps to the underlying cause.
type ArticleError struct {
	Kind  ErrorKind
	Title string
	URL   string
	Err   error
}

// NewArticleError builds an ArticleError for link.
func NewArticleError(kind ErrorKind, link ArticleLink, err error) *ArticleError {
	return &ArticleError{Kind: kind, Title: link.Title, URL: link.URL, Err: err}
}

func (e *ArticleError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.URL)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
}

func (e *ArticleError) Unwrap() error { return e.Err }

// Is lets errors.Is match an ArticleError against its kind sentinel.
func (e *ArticleError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// MarshalJSON renders the error as a flat object for reports.
func (e *ArticleError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Kind  ErrorKind `json:"kind"`
		Title string    `json:"title"`
		URL   string    `json:"url"`
		Error string    `json:"error"`
	}{e.Kind, e.Title, e.URL, msg})
}

// BatchStats summarizes one Process run.
type BatchStats struct {
	BatchID    string        `json:"batch_id"`
	Dispatched int           `json:"dispatched"` // Tasks submitted to the pool
	Succeeded  int           `json:"succeeded"`  // Tasks that produced a result
	Dropped    int           `json:"dropped"`    // Tasks that failed hard
	Kept       int           `json:"kept"`       // Entries in the final ResultSet
	Degraded   int           `json:"degraded"`   // Successful tasks with a fallback summary, no topics or no audio
	CacheHits  int           `json:"cache_hits"`
	StartTime  time.Time     `json:"start_time"`
	Elapsed    time.Duration `json:"elapsed"`
}

// CacheStats describes the result cache.
type CacheStats struct {
	Backend     string    `json:"backend"`
	Entries     int       `json:"entries"`
	OldestEntry time.Time `json:"oldest_entry,omitempty"`
	NewestEntry time.Time `json:"newest_entry,omitempty"`
}
