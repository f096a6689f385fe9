// Package extract turns fetched HTML into the plain text that the analysis
// stages consume.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"marketpulse/internal/core"
	"marketpulse/internal/logger"
)

// Mode selects how the page body is located before paragraphs are collected.
type Mode string

const (
	// ModeParagraphs collects every <p> element of the page.
	ModeParagraphs Mode = "paragraphs"
	// ModeReadability isolates the main article with readability first and
	// falls back to ModeParagraphs when that yields no paragraphs.
	ModeReadability Mode = "readability"
)

// ParseMode maps a configuration value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeParagraphs:
		return ModeParagraphs, nil
	case ModeReadability:
		return ModeReadability, nil
	default:
		return "", fmt.Errorf("unknown extract mode %q", s)
	}
}

// Extractor produces ExtractedDocuments from raw HTML.
type Extractor struct {
	mode Mode
	log  *slog.Logger
}

// NewExtractor creates an extractor for mode.
func NewExtractor(mode Mode) *Extractor {
	if mode == "" {
		mode = ModeParagraphs
	}
	return &Extractor{mode: mode, log: logger.Get()}
}

// Extract returns the text of all paragraph elements, each trimmed and
// joined by a single space. Malformed markup yields whatever text the
// parser recovers; Extract never fails.
func (e *Extractor) Extract(pageURL string, html []byte) core.ExtractedDocument {
	if e.mode == ModeReadability {
		if text := e.readable(pageURL, html); text != "" {
			return core.ExtractedDocument{URL: pageURL, Text: text}
		}
	}
	return core.ExtractedDocument{URL: pageURL, Text: Paragraphs(bytes.NewReader(html))}
}

func (e *Extractor) readable(pageURL string, html []byte) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		e.log.Debug("unparseable page URL, using full page", "url", pageURL, "error", err)
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(html), parsed)
	if err != nil {
		e.log.Debug("readability failed, using full page", "url", pageURL, "error", err)
		return ""
	}
	return Paragraphs(strings.NewReader(article.Content))
}

// Paragraphs concatenates the trimmed text of every <p> element in r.
func Paragraphs(r io.Reader) string {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return ""
	}

	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(s.Text()))
	})
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
