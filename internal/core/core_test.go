package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExtractedDocumentUsable(t *testing.T) {
	tests := []struct {
		name     string
		words    int
		minWords int
		want     bool
	}{
		{"exactly at threshold is dropped", 50, 50, false},
		{"one above threshold proceeds", 51, 50, true},
		{"well below threshold", 10, 50, false},
		{"empty document", 0, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := ExtractedDocument{URL: "https://example.com", Text: strings.TrimSpace(strings.Repeat("word ", tt.words))}
			if got := doc.Usable(tt.minWords); got != tt.want {
				t.Errorf("Usable(%d) with %d words = %v, want %v", tt.minWords, tt.words, got, tt.want)
			}
		})
	}
}

func TestWordCountCollapsesWhitespace(t *testing.T) {
	doc := ExtractedDocument{Text: "  alpha\tbeta\n\ngamma   delta "}
	if got := doc.WordCount(); got != 4 {
		t.Errorf("Expected 4 words, got %d", got)
	}
}

func TestSentimentValid(t *testing.T) {
	for _, s := range []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative} {
		if !s.Valid() {
			t.Errorf("Expected %q to be valid", s)
		}
	}
	if Sentiment("Mixed").Valid() {
		t.Error("Mixed should not be a valid label")
	}
}

func TestArticleErrorMatchesKind(t *testing.T) {
	cause := fmt.Errorf("status 503")
	err := error(NewArticleError(ErrorKindFetch, ArticleLink{Title: "A", URL: "https://a.example"}, cause))

	if !errors.Is(err, ErrFetch) {
		t.Error("Expected fetch ArticleError to match ErrFetch")
	}
	if errors.Is(err, ErrContentTooShort) {
		t.Error("Fetch ArticleError should not match ErrContentTooShort")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected ArticleError to unwrap to its cause")
	}

	var ae *ArticleError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &ae) {
		t.Fatal("Expected errors.As to find the ArticleError")
	}
	if ae.Title != "A" {
		t.Errorf("Expected title A, got %s", ae.Title)
	}
}

func TestArticleErrorJSON(t *testing.T) {
	err := NewArticleError(ErrorKindContentTooShort, ArticleLink{Title: "B", URL: "https://b.example"}, ErrContentTooShort)
	data, mErr := json.Marshal(err)
	if mErr != nil {
		t.Fatalf("Marshal failed: %v", mErr)
	}

	var decoded map[string]string
	if uErr := json.Unmarshal(data, &decoded); uErr != nil {
		t.Fatalf("Unmarshal failed: %v", uErr)
	}
	if decoded["kind"] != string(ErrorKindContentTooShort) {
		t.Errorf("Expected kind %s, got %s", ErrorKindContentTooShort, decoded["kind"])
	}
	if decoded["url"] != "https://b.example" {
		t.Errorf("Unexpected url %s", decoded["url"])
	}
}

func TestAnalysisResultAudioNullInJSON(t *testing.T) {
	data, err := json.Marshal(AnalysisResult{URL: "https://c.example", Sentiment: SentimentNeutral})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"audio":null`) {
		t.Errorf("Expected audio to serialize as null, got %s", data)
	}

	handle := "static/audio/x.mp3"
	r := AnalysisResult{Audio: &handle}
	if r.AudioHandle() != handle {
		t.Errorf("Expected handle %s, got %s", handle, r.AudioHandle())
	}
}
