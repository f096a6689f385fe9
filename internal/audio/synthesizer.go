// Package audio renders summaries as translated speech files.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"marketpulse/internal/core"
	"marketpulse/internal/logger"
)

// Provider names a speech backend.
type Provider string

const (
	ProviderGTTS   Provider = "gtts"
	ProviderOpenAI Provider = "openai"
	ProviderMock   Provider = "mock"
)

// TranslatorName names a translation backend.
type TranslatorName string

const (
	TranslatorGoogle TranslatorName = "google"
	TranslatorNone   TranslatorName = "none"
)

// Config holds audio synthesis configuration.
type Config struct {
	SourceLang   string
	TargetLang   string
	Provider     Provider
	Translator   TranslatorName
	OutputDir    string
	URLPrefix    string
	Timeout      time.Duration
	OpenAIAPIKey string
	OpenAIModel  string
	OpenAIVoice  string
	HTTPClient   *http.Client
}

// GetAvailableProviders returns available speech providers
func GetAvailableProviders() []string {
	return []string{string(ProviderGTTS), string(ProviderOpenAI), string(ProviderMock)}
}

// ValidateConfig validates audio configuration
func ValidateConfig(cfg Config) error {
	switch cfg.Provider {
	case ProviderGTTS, ProviderMock:
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return fmt.Errorf("OpenAI API key is required for the openai provider")
		}
	default:
		return fmt.Errorf("unsupported speech provider: %q (supported: %s)", cfg.Provider, strings.Join(GetAvailableProviders(), ", "))
	}
	switch cfg.Translator {
	case TranslatorGoogle, TranslatorNone, "":
	default:
		return fmt.Errorf("unsupported translator: %q", cfg.Translator)
	}
	return nil
}

// Synthesizer translates a summary, speaks it and stores the audio.
type Synthesizer struct {
	translator Translator
	speech     SpeechProvider
	store      ArtifactStore
	source     string
	target     string
	timeout    time.Duration
	log        *slog.Logger
}

// NewSynthesizer wires explicit collaborators.
func NewSynthesizer(translator Translator, speech SpeechProvider, store ArtifactStore, source, target string, timeout time.Duration) *Synthesizer {
	if source == "" {
		source = "en"
	}
	if target == "" {
		target = "hi"
	}
	return &Synthesizer{
		translator: translator,
		speech:     speech,
		store:      store,
		source:     source,
		target:     target,
		timeout:    timeout,
		log:        logger.Get(),
	}
}

// New builds a Synthesizer from configuration.
func New(cfg Config) (*Synthesizer, error) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderGTTS
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	var translator Translator = NewGoogleTranslator(client)
	if cfg.Translator == TranslatorNone {
		translator = IdentityTranslator{}
	}

	var speech SpeechProvider
	switch cfg.Provider {
	case ProviderOpenAI:
		speech = &OpenAIProvider{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			Voice:      cfg.OpenAIVoice,
			HTTPClient: client,
		}
	case ProviderMock:
		speech = MockProvider{}
	default:
		speech = NewGTTSProvider(client)
	}

	store := NewFileStore(cfg.OutputDir, cfg.URLPrefix)
	return NewSynthesizer(translator, speech, store, cfg.SourceLang, cfg.TargetLang, cfg.Timeout), nil
}

// Render translates, synthesizes and stores text, returning the artifact
// handle. Every error wraps core.ErrEnrichment.
func (s *Synthesizer) Render(ctx context.Context, text string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	translated, err := s.translator.Translate(ctx, text, s.source, s.target)
	if err != nil {
		return "", fmt.Errorf("%w: translate: %v", core.ErrEnrichment, err)
	}
	data, err := s.speech.Synthesize(ctx, translated, s.target)
	if err != nil {
		return "", fmt.Errorf("%w: synthesize: %v", core.ErrEnrichment, err)
	}
	handle, err := s.store.Save(data)
	if err != nil {
		return "", fmt.Errorf("%w: store: %v", core.ErrEnrichment, err)
	}
	return handle, nil
}

// Synthesize is the best-effort form of Render: any failure yields nil.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) *string {
	handle, err := s.Render(ctx, text)
	if err != nil {
		s.log.Warn("audio synthesis failed", "error", err)
		return nil
	}
	return &handle
}
