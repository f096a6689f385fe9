package search

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"marketpulse/internal/fetch"
)

// DefaultBingNewsURL is the Bing News HTML search page.
const DefaultBingNewsURL = "https://www.bing.com/news/search"

// BingNewsProvider scrapes headline anchors from Bing News results.
type BingNewsProvider struct {
	fetcher *fetch.Client
	baseURL string
}

// NewBingNewsProvider creates a provider that fetches through fetcher.
func NewBingNewsProvider(fetcher *fetch.Client) *BingNewsProvider {
	return &BingNewsProvider{fetcher: fetcher, baseURL: DefaultBingNewsURL}
}

// GetName returns the name of this provider
func (b *BingNewsProvider) GetName() string {
	return "Bing News"
}

// Search fetches the results page for query and returns every a.title anchor.
func (b *BingNewsProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("FORM", "HDRSC6")
	if config.Language != "" {
		params.Set("setlang", config.Language)
	}

	body, err := b.fetcher.FetchPage(ctx, b.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	return limit(parseBingResults(body), config.MaxResults), nil
}

func parseBingResults(body []byte) []Result {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var results []Result
	doc.Find("a.title").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		results = append(results, Result{
			URL:    href,
			Title:  strings.TrimSpace(s.Text()),
			Domain: extractDomain(href),
			Source: "Bing News",
			Rank:   len(results) + 1,
		})
	})
	return results
}
