package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"

	"marketpulse/internal/core"
)

// Label thresholds on the compound score.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// SentimentScore holds the polarity breakdown of a text.
type SentimentScore struct {
	Positive float64 `json:"positive"` // Share of positive signal (0.0 to 1.0)
	Negative float64 `json:"negative"` // Share of negative signal (0.0 to 1.0)
	Neutral  float64 `json:"neutral"`  // Share of neutral tokens (0.0 to 1.0)
	Compound float64 `json:"compound"` // Normalized overall polarity (-1.0 to 1.0)
}

// SentimentAnalyzer scores text with the VADER lexicon and rule set.
// The underlying analyzer only reads its tables after construction, so one
// instance is shared by all pipeline workers.
type SentimentAnalyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

// NewSentimentAnalyzer creates a new sentiment analyzer
func NewSentimentAnalyzer() *SentimentAnalyzer {
	return &SentimentAnalyzer{vader: govader.NewSentimentIntensityAnalyzer()}
}

// Classify maps the compound score of text to a label.
func (sa *SentimentAnalyzer) Classify(text string) core.Sentiment {
	return Label(sa.PolarityScores(text).Compound)
}

// Label maps a compound score to Positive (>= 0.05), Negative (<= -0.05) or Neutral.
func Label(compound float64) core.Sentiment {
	switch {
	case compound >= PositiveThreshold:
		return core.SentimentPositive
	case compound <= NegativeThreshold:
		return core.SentimentNegative
	default:
		return core.SentimentNeutral
	}
}

// PolarityScores computes the sentiment breakdown of text.
func (sa *SentimentAnalyzer) PolarityScores(text string) SentimentScore {
	if strings.TrimSpace(text) == "" {
		return SentimentScore{Neutral: 1}
	}
	s := sa.vader.PolarityScores(text)
	return SentimentScore{
		Positive: s.Positive,
		Negative: s.Negative,
		Neutral:  s.Neutral,
		Compound: s.Compound,
	}
}
