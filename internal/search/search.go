// Package search discovers news article links for a company.
package search

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"marketpulse/internal/core"
	"marketpulse/internal/fetch"
	"marketpulse/internal/logger"
)

// Provider defines the unified interface for search providers
type Provider interface {
	// Search performs a search with configuration
	Search(ctx context.Context, query string, config Config) ([]Result, error)

	// GetName returns the name of the search provider
	GetName() string
}

// Config holds configuration for search requests
type Config struct {
	MaxResults int    // Maximum number of results to return (0 means all)
	Language   string // Language preference (e.g., "en")
}

// Result represents a unified search result
type Result struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Snippet     string    `json:"snippet"`
	Domain      string    `json:"domain"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Source      string    `json:"source"` // Provider-specific source identifier
	Rank        int       `json:"rank"`   // Position in search results
}

// ProviderType represents the type of search provider
type ProviderType string

const (
	ProviderTypeBing       ProviderType = "bing"
	ProviderTypeGoogleNews ProviderType = "googlenews"
	ProviderTypeMock       ProviderType = "mock"
)

// ProviderFactory creates search providers based on type and configuration
type ProviderFactory struct {
	fetcher *fetch.Client
}

// NewProviderFactory creates a factory whose providers share fetcher.
func NewProviderFactory(fetcher *fetch.Client) *ProviderFactory {
	return &ProviderFactory{fetcher: fetcher}
}

// CreateProvider creates a search provider of the specified type
func (f *ProviderFactory) CreateProvider(providerType ProviderType) (Provider, error) {
	switch ProviderType(strings.ToLower(string(providerType))) {
	case ProviderTypeBing, "":
		return NewBingNewsProvider(f.fetcher), nil
	case ProviderTypeGoogleNews:
		return NewGoogleNewsProvider(f.fetcher), nil
	case ProviderTypeMock:
		return NewMockProvider(), nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// GetAvailableProviders returns a list of available provider types
func (f *ProviderFactory) GetAvailableProviders() []ProviderType {
	return []ProviderType{
		ProviderTypeBing,
		ProviderTypeGoogleNews,
		ProviderTypeMock,
	}
}

// Discoverer turns a company name into article links. It never fails:
// provider errors yield an empty list.
type Discoverer struct {
	provider Provider
	config   Config
	log      *slog.Logger
}

// NewDiscoverer creates a discoverer over provider.
func NewDiscoverer(provider Provider, config Config) *Discoverer {
	return &Discoverer{provider: provider, config: config, log: logger.Get()}
}

// DiscoverLinks returns a (title, url) pair for every result that has a URL,
// in provider order. Repeated URLs are kept; the pipeline keys by title.
func (d *Discoverer) DiscoverLinks(ctx context.Context, company string) []core.ArticleLink {
	links := []core.ArticleLink{}
	company = strings.TrimSpace(company)
	if company == "" {
		d.log.Warn("link discovery skipped", "error", ErrEmptyQuery)
		return links
	}

	results, err := d.provider.Search(ctx, company, d.config)
	if err != nil {
		d.log.Warn("link discovery failed", "provider", d.provider.GetName(), "company", company, "error", err)
		return links
	}

	for _, r := range results {
		if r.URL == "" {
			continue
		}
		links = append(links, core.ArticleLink{Title: r.Title, URL: r.URL})
	}
	d.log.Info("links discovered", "provider", d.provider.GetName(), "company", company, "count", len(links))
	return links
}

// extractDomain returns the host of urlStr without a leading "www.".
func extractDomain(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

func limit(results []Result, n int) []Result {
	if n > 0 && len(results) > n {
		return results[:n]
	}
	return results
}
