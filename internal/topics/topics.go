// Package topics extracts the dominant keywords of a corpus with a seeded
// single-topic LDA over TF-IDF vectors.
package topics

import (
	"errors"
	"log/slog"
	"sort"

	"marketpulse/internal/logger"
	"marketpulse/internal/vectorspace"
)

// DefaultMaxFeatures caps the vocabulary at the most frequent terms.
const DefaultMaxFeatures = 5000

// Extractor returns the highest-weighted terms of a fitted topic.
type Extractor struct {
	model       LDA
	maxFeatures int
	log         *slog.Logger
}

// NewExtractor creates an extractor whose model is seeded with seed.
func NewExtractor(seed int64) *Extractor {
	return &Extractor{
		model:       DefaultLDA(seed),
		maxFeatures: DefaultMaxFeatures,
		log:         logger.Get(),
	}
}

// ExtractTopics returns up to n keywords of the corpus, strongest first.
// Ties keep vocabulary order. An empty vocabulary yields an empty slice.
func (e *Extractor) ExtractTopics(corpus []string, n int) []string {
	keywords := []string{}
	if n <= 0 {
		return keywords
	}

	m, err := vectorspace.Vectorizer{MaxFeatures: e.maxFeatures, StopWords: true}.FitTransform(corpus)
	if err != nil {
		if errors.Is(err, vectorspace.ErrEmptyVocabulary) {
			e.log.Debug("topic vocabulary empty", "documents", len(corpus))
		}
		return keywords
	}

	weights := e.model.Fit(m.Rows)[0]
	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return weights[order[a]] > weights[order[b]]
	})

	for _, idx := range order[:min(n, len(order))] {
		keywords = append(keywords, m.Vocabulary[idx])
	}
	return keywords
}
