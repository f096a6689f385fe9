// Package vectorspace builds TF-IDF document vectors over a pruned vocabulary.
package vectorspace

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"marketpulse/internal/textproc"
)

// ErrEmptyVocabulary is returned when no term survives tokenization and pruning.
var ErrEmptyVocabulary = errors.New("empty vocabulary")

// Vectorizer converts documents into L2-normalized TF-IDF rows.
type Vectorizer struct {
	MinDF       int     // Drop terms found in fewer documents than this (0 or 1 keeps all)
	MaxDF       float64 // Drop terms found in more than this fraction of documents (0 disables)
	MaxFeatures int     // Keep only the most frequent terms across the corpus (0 disables)
	StopWords   bool    // Remove English stopwords before counting
}

// Matrix is a dense document-term matrix.
type Matrix struct {
	Vocabulary []string    // Terms in ascending lexical order, indexing the row columns
	Rows       [][]float64 // One row per input document
	Counts     [][]float64 // Raw term counts, same shape as Rows
}

// FitTransform learns the vocabulary of docs and returns their weighted vectors.
func (v Vectorizer) FitTransform(docs []string) (*Matrix, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents: %w", ErrEmptyVocabulary)
	}

	termCounts := make([]map[string]int, len(docs))
	docFreq := make(map[string]int)
	corpusFreq := make(map[string]int)
	for i, doc := range docs {
		var tokens []string
		if v.StopWords {
			tokens = textproc.ContentTokens(doc)
		} else {
			tokens = textproc.Tokenize(doc)
		}
		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
			corpusFreq[tok]++
		}
		for term := range counts {
			docFreq[term]++
		}
		termCounts[i] = counts
	}
	if len(docFreq) == 0 {
		return nil, ErrEmptyVocabulary
	}

	n := len(docs)
	maxDocs := n
	if v.MaxDF > 0 && v.MaxDF < 1 {
		maxDocs = int(v.MaxDF * float64(n))
	}
	if v.MinDF > maxDocs {
		return nil, fmt.Errorf("max_df keeps fewer documents (%d) than min_df (%d): %w", maxDocs, v.MinDF, ErrEmptyVocabulary)
	}

	var vocab []string
	for term, df := range docFreq {
		if df < v.MinDF || float64(df) > float64(maxDocs) {
			continue
		}
		vocab = append(vocab, term)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("no terms remain after pruning: %w", ErrEmptyVocabulary)
	}

	if v.MaxFeatures > 0 && len(vocab) > v.MaxFeatures {
		sort.Slice(vocab, func(i, j int) bool {
			fi, fj := corpusFreq[vocab[i]], corpusFreq[vocab[j]]
			if fi != fj {
				return fi > fj
			}
			return vocab[i] < vocab[j]
		})
		vocab = vocab[:v.MaxFeatures]
	}
	sort.Strings(vocab)

	idf := make([]float64, len(vocab))
	for j, term := range vocab {
		idf[j] = math.Log(float64(1+n)/float64(1+docFreq[term])) + 1
	}

	m := &Matrix{
		Vocabulary: vocab,
		Rows:       make([][]float64, n),
		Counts:     make([][]float64, n),
	}
	for i, counts := range termCounts {
		row := make([]float64, len(vocab))
		raw := make([]float64, len(vocab))
		for j, term := range vocab {
			if c := counts[term]; c > 0 {
				raw[j] = float64(c)
				row[j] = float64(c) * idf[j]
			}
		}
		normalize(row)
		m.Rows[i] = row
		m.Counts[i] = raw
	}
	return m, nil
}

func normalize(row []float64) {
	norm := floats.Norm(row, 2)
	if norm == 0 {
		return
	}
	floats.Scale(1/norm, row)
}

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	normA, normB := floats.Norm(a, 2), floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}

// SimilarityMatrix returns the pairwise cosine similarity of all rows.
func (m *Matrix) SimilarityMatrix() [][]float64 {
	n := len(m.Rows)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s := CosineSimilarity(m.Rows[i], m.Rows[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}
	return sim
}
