package search

import (
	"context"
	"fmt"
)

// MockProvider implements Provider for testing purposes
type MockProvider struct {
	name    string
	results []Result
	err     error
}

// NewMockProvider creates a new mock search provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		name: "Mock",
		results: []Result{
			{URL: "https://example.com/article1", Title: "Example Article 1", Domain: "example.com", Source: "Mock", Rank: 1},
			{URL: "https://test.org/article2", Title: "Test Article 2", Domain: "test.org", Source: "Mock", Rank: 2},
			{URL: "https://demo.net/article3", Title: "Demo Article 3", Domain: "demo.net", Source: "Mock", Rank: 3},
		},
	}
}

// GetName returns the name of this provider
func (m *MockProvider) GetName() string {
	return m.name
}

// Search returns mock search results with the query folded into each title
func (m *MockProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := limit(m.results, config.MaxResults)
	results := make([]Result, len(src))
	for i, result := range src {
		result.Title = fmt.Sprintf("%s (for query: %s)", result.Title, query)
		results[i] = result
	}
	return results, nil
}

// SetResults allows customization of mock results for testing
func (m *MockProvider) SetResults(results []Result) {
	m.results = results
}

// SetError makes every search fail with err
func (m *MockProvider) SetError(err error) {
	m.err = err
}

// SetName allows customization of provider name for testing
func (m *MockProvider) SetName(name string) {
	m.name = name
}
