package summarize

import (
	"errors"
	"log/slog"
	"sort"
	"strings"

	"marketpulse/internal/logger"
	"marketpulse/internal/textproc"
	"marketpulse/internal/vectorspace"
)

// FallbackSummary is returned when the sentences share no usable vocabulary.
const FallbackSummary = "Summary not available."

// Summarizer produces extractive summaries by ranking sentences on their
// TF-IDF similarity graph.
type Summarizer struct {
	options SummarizerOptions
	log     *slog.Logger
}

// SummarizerOptions configures the summarizer behavior
type SummarizerOptions struct {
	SentenceCount    int     // Sentences kept in the summary
	MinSentenceWords int     // Sentences with fewer words are discarded as noise
	MinDF            int     // Terms must appear in at least this many sentences
	MaxDF            float64 // Terms must appear in at most this fraction of sentences
	Damping          float64 // Rank propagation damping factor
	Tolerance        float64 // Per-node convergence tolerance
	MaxIterations    int
}

// DefaultSummarizerOptions returns sensible defaults
func DefaultSummarizerOptions() SummarizerOptions {
	return SummarizerOptions{
		SentenceCount:    3,
		MinSentenceWords: 9,
		MinDF:            2,
		MaxDF:            0.8,
		Damping:          0.85,
		Tolerance:        1e-6,
		MaxIterations:    100,
	}
}

// NewSummarizer creates a summarizer. Zero-valued options fall back to defaults.
func NewSummarizer(options SummarizerOptions) *Summarizer {
	defaults := DefaultSummarizerOptions()
	if options.SentenceCount <= 0 {
		options.SentenceCount = defaults.SentenceCount
	}
	if options.MinSentenceWords <= 0 {
		options.MinSentenceWords = defaults.MinSentenceWords
	}
	if options.MinDF <= 0 {
		options.MinDF = defaults.MinDF
	}
	if options.MaxDF <= 0 {
		options.MaxDF = defaults.MaxDF
	}
	if options.Damping <= 0 {
		options.Damping = defaults.Damping
	}
	if options.Tolerance <= 0 {
		options.Tolerance = defaults.Tolerance
	}
	if options.MaxIterations <= 0 {
		options.MaxIterations = defaults.MaxIterations
	}
	return &Summarizer{options: options, log: logger.Get()}
}

// Summarize returns the configured number of most central sentences of text
// in their original order.
func (s *Summarizer) Summarize(text string) string {
	return s.SummarizeN(text, s.options.SentenceCount)
}

// SummarizeN is Summarize with an explicit sentence count k. Text without a
// single eligible sentence has no vocabulary and yields FallbackSummary.
func (s *Summarizer) SummarizeN(text string, k int) string {
	sentences := s.eligibleSentences(text)
	if len(sentences) == 0 {
		return FallbackSummary
	}
	if len(sentences) <= k {
		return strings.Join(sentences, " ")
	}

	v := vectorspace.Vectorizer{MinDF: s.options.MinDF, MaxDF: s.options.MaxDF, StopWords: true}
	m, err := v.FitTransform(sentences)
	if err != nil {
		if errors.Is(err, vectorspace.ErrEmptyVocabulary) {
			s.log.Debug("summary vocabulary empty, using fallback", "sentences", len(sentences), "error", err)
		}
		return FallbackSummary
	}

	scores := PageRank(m.SimilarityMatrix(), s.options.Damping, s.options.Tolerance, s.options.MaxIterations)
	return strings.Join(selectTop(sentences, scores, k), " ")
}

func (s *Summarizer) eligibleSentences(text string) []string {
	var out []string
	for _, sentence := range textproc.SplitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if len(strings.Fields(sentence)) >= s.options.MinSentenceWords {
			out = append(out, sentence)
		}
	}
	return out
}

// selectTop picks the k highest-scoring sentences, lower index first among
// equal scores, and returns them in reading order.
func selectTop(sentences []string, scores []float64, k int) []string {
	idx := make([]int, len(sentences))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	top := append([]int(nil), idx[:k]...)
	sort.Ints(top)

	out := make([]string, len(top))
	for i, j := range top {
		out[i] = sentences[j]
	}
	return out
}
