package search

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"marketpulse/internal/fetch"
)

// DefaultGoogleNewsURL is the Google News RSS search endpoint.
const DefaultGoogleNewsURL = "https://news.google.com/rss/search"

// GoogleNewsProvider reads the Google News RSS search feed.
type GoogleNewsProvider struct {
	fetcher *fetch.Client
	baseURL string
}

// NewGoogleNewsProvider creates a provider that fetches through fetcher.
func NewGoogleNewsProvider(fetcher *fetch.Client) *GoogleNewsProvider {
	return &GoogleNewsProvider{fetcher: fetcher, baseURL: DefaultGoogleNewsURL}
}

// GetName returns the name of this provider
func (g *GoogleNewsProvider) GetName() string {
	return "Google News"
}

// Search returns the feed items for query.
func (g *GoogleNewsProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	lang := config.Language
	if lang == "" {
		lang = "en"
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", lang)
	params.Set("gl", "US")
	params.Set("ceid", "US:"+lang)

	body, err := g.fetcher.FetchPage(ctx, g.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse news feed: %w", err)
	}

	results := make([]Result, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		r := Result{
			URL:     item.Link,
			Title:   strings.TrimSpace(item.Title),
			Snippet: strings.TrimSpace(item.Description),
			Domain:  extractDomain(item.Link),
			Source:  "Google News",
			Rank:    len(results) + 1,
		}
		if item.PublishedParsed != nil {
			r.PublishedAt = *item.PublishedParsed
		}
		results = append(results, r)
	}
	return limit(results, config.MaxResults), nil
}
