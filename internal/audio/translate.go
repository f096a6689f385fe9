package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultTranslateEndpoint is Google's public translation endpoint.
const DefaultTranslateEndpoint = "https://translate.googleapis.com/translate_a/single"

// Translator converts text between languages.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// GoogleTranslator calls the public Google translation endpoint.
type GoogleTranslator struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewGoogleTranslator creates a translator using client for requests.
func NewGoogleTranslator(client *http.Client) *GoogleTranslator {
	return &GoogleTranslator{Endpoint: DefaultTranslateEndpoint, HTTPClient: client}
}

// Translate returns text translated from source to target.
func (g *GoogleTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", source)
	params.Set("tl", target)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("translate API error %d: %s", resp.StatusCode, string(body))
	}

	// The payload is [[["translated", "original", ...], ...], ...].
	var payload []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode translation: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty translation response")
	}
	var segments [][]any
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("unexpected translation shape: %w", err)
	}

	var out strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			out.WriteString(s)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("translation returned no text")
	}
	return out.String(), nil
}

// IdentityTranslator returns text unchanged. It backs translator "none".
type IdentityTranslator struct{}

// Translate returns text as is.
func (IdentityTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}
