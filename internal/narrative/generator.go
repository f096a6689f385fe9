// Package narrative turns an article's subject matter and sentiment into a
// short templated business-impact analysis.
package narrative

import (
	"strings"

	"marketpulse/internal/core"
)

// Category is a subject-matter area detected in article text.
type Category string

const (
	CategoryFinance    Category = "finance"
	CategoryTechnology Category = "technology"
	CategoryLegal      Category = "legal"
	CategoryHR         Category = "hr"
	CategoryBusiness   Category = "business"
)

const (
	noImpactSentence = "No direct business impact identified, but article holds informative value."
	closingSentence  = "Comparatively, this sentiment aligns with industry trends."
)

// rule pairs a category lexicon with its templated sentences. A rule with
// only neutral text is sentiment-independent.
type rule struct {
	category Category
	terms    []string
	positive string
	negative string
	neutral  string
}

func (r rule) sentence(s core.Sentiment) string {
	switch {
	case s == core.SentimentPositive && r.positive != "":
		return r.positive
	case s == core.SentimentNegative && r.negative != "":
		return r.negative
	default:
		return r.neutral
	}
}

// rules are evaluated in this order, which is also the order of the output.
var rules = []rule{
	{
		category: CategoryFinance,
		terms:    []string{"stock", "shares", "market", "investor", "nasdaq"},
		positive: "The article reflects strong financial sentiment, indicating investor optimism.",
		negative: "There are signs of financial concern, possibly hinting at market instability.",
		neutral:  "The financial outlook remains mixed with cautious investor sentiment.",
	},
	{
		category: CategoryTechnology,
		terms:    []string{"launch", "product", "innovation", "technology", "ai", "machine learning"},
		positive: "Technological advancements are portrayed positively, enhancing innovation.",
		negative: "Technological delays may be causing missed opportunities.",
		neutral:  "Progress in tech is mentioned but impact is unclear.",
	},
	{
		category: CategoryLegal,
		terms:    []string{"regulation", "lawsuit", "compliance", "legal"},
		neutral:  "Legal or regulatory factors are discussed, which may pose operational risks.",
	},
	{
		category: CategoryHR,
		terms:    []string{"layoffs", "hiring", "employee", "strike", "union"},
		neutral:  "HR developments like hiring or layoffs could affect company morale.",
	},
	{
		category: CategoryBusiness,
		terms:    []string{"sales", "revenue", "growth", "expansion", "profit"},
		positive: "Business metrics show positive growth or expansion.",
		negative: "Indicators like profit/revenue might be underperforming.",
		neutral:  "Business stability is maintained without major change.",
	},
}

// Generator is a deterministic rule engine with no external dependencies.
type Generator struct{}

// NewGenerator creates a new narrative generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Categories returns the categories whose lexicon occurs in text.
// Terms match as substrings of the lowercased text, so "ai" also
// matches inside longer words.
func (g *Generator) Categories(text string) []Category {
	lower := strings.ToLower(text)
	var matched []Category
	for _, r := range rules {
		for _, term := range r.terms {
			if strings.Contains(lower, term) {
				matched = append(matched, r.category)
				break
			}
		}
	}
	return matched
}

// Generate produces "<title>:\n" followed by one sentence per matched
// category and a closing comparison sentence. It never fails.
func (g *Generator) Generate(title string, sentiment core.Sentiment, text string) string {
	return g.Headline(title, g.Body(sentiment, text))
}

// Body renders the title-independent part of the narrative.
func (g *Generator) Body(sentiment core.Sentiment, text string) string {
	lower := strings.ToLower(text)
	var parts []string
	for _, r := range rules {
		for _, term := range r.terms {
			if strings.Contains(lower, term) {
				parts = append(parts, r.sentence(sentiment))
				break
			}
		}
	}

	if len(parts) == 0 {
		parts = append(parts, noImpactSentence)
	}
	parts = append(parts, closingSentence)
	return strings.Join(parts, " ")
}

// Headline prefixes body with the article title.
func (g *Generator) Headline(title, body string) string {
	return title + ":\n" + body
}
