package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultGTTSEndpoint is the speech endpoint used by Google Translate.
	DefaultGTTSEndpoint = "https://translate.google.com/translate_tts"
	// DefaultOpenAIEndpoint is the OpenAI speech endpoint.
	DefaultOpenAIEndpoint = "https://api.openai.com/v1/audio/speech"

	// maxChunkRunes is the longest text the Google speech endpoint accepts per request.
	maxChunkRunes = 100
)

// SpeechProvider renders text in lang as mp3 audio.
type SpeechProvider interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// GTTSProvider synthesizes speech through the Google Translate speech
// endpoint, one request per chunk of at most 100 characters.
type GTTSProvider struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewGTTSProvider creates a provider using client for requests.
func NewGTTSProvider(client *http.Client) *GTTSProvider {
	return &GTTSProvider{Endpoint: DefaultGTTSEndpoint, HTTPClient: client}
}

// Synthesize returns the concatenated mp3 frames for every chunk of text.
func (p *GTTSProvider) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	chunks := ChunkText(text, maxChunkRunes)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no text to speak")
	}

	var audio bytes.Buffer
	for i, chunk := range chunks {
		params := url.Values{}
		params.Set("ie", "UTF-8")
		params.Set("client", "tw-ob")
		params.Set("tl", lang)
		params.Set("q", chunk)
		params.Set("total", strconv.Itoa(len(chunks)))
		params.Set("idx", strconv.Itoa(i))
		params.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := p.HTTPClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to make request: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("speech API error %d for chunk %d", resp.StatusCode, i)
		}
		_, err = io.Copy(&audio, resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read audio data: %w", err)
		}
	}
	return audio.Bytes(), nil
}

// ChunkText splits text on word boundaries into pieces of at most limit
// runes. Words longer than limit are split mid-word.
func ChunkText(text string, limit int) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		if len(runes) == 0 {
			continue
		}
		need := len(runes)
		if curLen > 0 {
			need++
		}
		if curLen+need > limit {
			flush()
			need = len(runes)
		}
		if curLen > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(string(runes))
		curLen += need
	}
	flush()
	return chunks
}

// OpenAITTSRequest represents OpenAI TTS request
type OpenAITTSRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// OpenAIProvider synthesizes speech with the OpenAI speech API. The model
// infers the language from the input text.
type OpenAIProvider struct {
	Endpoint   string
	APIKey     string
	Model      string
	Voice      string
	Speed      float64
	HTTPClient *http.Client
}

// Synthesize returns mp3 audio for text.
func (p *OpenAIProvider) Synthesize(ctx context.Context, text, _ string) ([]byte, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	requestData := OpenAITTSRequest{
		Model:          p.Model,
		Input:          text,
		Voice:          p.Voice,
		ResponseFormat: "mp3",
		Speed:          p.Speed,
	}
	if requestData.Model == "" {
		requestData.Model = "tts-1"
	}
	if requestData.Voice == "" {
		requestData.Voice = "alloy"
	}
	if requestData.Speed == 0 {
		requestData.Speed = 1.0
	}
	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = DefaultOpenAIEndpoint
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("OpenAI API error %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}
	return data, nil
}

// MockProvider produces placeholder audio for tests and offline runs.
type MockProvider struct{}

// Synthesize returns an ID3-prefixed payload holding the text.
func (MockProvider) Synthesize(_ context.Context, text, lang string) ([]byte, error) {
	return []byte(fmt.Sprintf("ID3 mock audio [%s]\n%s", lang, text)), nil
}
