package handlers

import (
	"fmt"
	"time"

	"marketpulse/internal/audio"
	"marketpulse/internal/config"
	"marketpulse/internal/extract"
	"marketpulse/internal/fetch"
	"marketpulse/internal/logger"
	"marketpulse/internal/pipeline"
	"marketpulse/internal/search"
	"marketpulse/internal/store"
)

// overrides carries per-invocation flag values; zero values keep the config.
type overrides struct {
	workers  int
	required int
	noAudio  bool
}

// app holds the components a command needs, built from configuration
type app struct {
	cfg        *config.Config
	pipeline   *pipeline.Pipeline
	discoverer *search.Discoverer
	cache      store.Cache
}

// loadConfig returns the loaded configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// fetchOptions maps the fetch section onto client options
func fetchOptions(c config.Fetch) fetch.Options {
	opts := fetch.DefaultOptions()
	opts.Timeout = config.ParseDuration(c.Timeout, opts.Timeout)
	opts.BackoffBase = config.ParseDuration(c.BackoffBase, opts.BackoffBase)
	if c.MaxAttempts > 0 {
		opts.MaxAttempts = c.MaxAttempts
	}
	if c.UserAgent != "" {
		opts.UserAgent = c.UserAgent
	}
	opts.RequestsPerSecond = c.RequestsPerSecond
	opts.Burst = c.Burst
	return opts
}

// pipelineConfig maps the pipeline section onto pipeline.Config
func pipelineConfig(cfg *config.Config, o overrides) pipeline.Config {
	p := pipeline.Config{
		WorkerCount:          cfg.Pipeline.WorkerCount,
		RequiredArticles:     cfg.Pipeline.RequiredArticles,
		SummarySentenceCount: cfg.Pipeline.SummarySentenceCount,
		TopicKeywordCount:    cfg.Pipeline.TopicKeywordCount,
		MinContentWords:      cfg.Pipeline.MinContentWords,
		TopicSeed:            cfg.Pipeline.TopicSeed,
		AudioEnabled:         cfg.Audio.Enabled && !o.noAudio,
	}
	if o.workers > 0 {
		p.WorkerCount = o.workers
	}
	if o.required > 0 {
		p.RequiredArticles = o.required
	}
	return p
}

// audioConfig maps the audio section onto audio.Config
func audioConfig(c config.Audio) audio.Config {
	return audio.Config{
		SourceLang:   c.SourceLang,
		TargetLang:   c.TargetLang,
		Provider:     audio.Provider(c.Provider),
		Translator:   audio.TranslatorName(c.Translator),
		OutputDir:    c.OutputDir,
		URLPrefix:    c.URLPrefix,
		Timeout:      config.ParseDuration(c.Timeout, 30*time.Second),
		OpenAIAPIKey: c.OpenAI.APIKey,
		OpenAIModel:  c.OpenAI.Model,
		OpenAIVoice:  c.OpenAI.Voice,
	}
}

// openCache opens the configured result cache; nil when disabled
func openCache(c config.Cache) (store.Cache, error) {
	return store.Open(store.Options{
		Backend:   store.Backend(c.Backend),
		Directory: c.Directory,
		RedisURL:  c.RedisURL,
		RedisAddr: c.RedisAddr,
		TTL:       config.ParseDuration(c.TTL, 24*time.Hour),
	})
}

// newDiscoverer builds link discovery for the configured provider
func newDiscoverer(c config.Search, fetchCfg config.Fetch) (*search.Discoverer, error) {
	opts := fetchOptions(fetchCfg)
	opts.Timeout = config.ParseDuration(c.Timeout, opts.Timeout)

	providerType := search.ProviderType(c.Provider)
	if providerType == "" {
		providerType = search.ProviderTypeBing
	}
	provider, err := search.NewProviderFactory(fetch.NewClient(opts)).CreateProvider(providerType)
	if err != nil {
		return nil, err
	}
	return search.NewDiscoverer(provider, search.Config{
		MaxResults: c.MaxResults,
		Language:   c.Language,
	}), nil
}

// newApp wires every component from configuration
func newApp(cfg *config.Config, o overrides) (*app, error) {
	log := logger.Get()

	discoverer, err := newDiscoverer(cfg.Search, cfg.Fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to create search provider: %w", err)
	}

	mode, err := extract.ParseMode(cfg.Fetch.ExtractMode)
	if err != nil {
		return nil, err
	}

	cache, err := openCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to open result cache: %w", err)
	}

	pcfg := pipelineConfig(cfg, o)
	builder := pipeline.NewBuilder().
		WithConfig(pcfg).
		WithFetchOptions(fetchOptions(cfg.Fetch)).
		WithExtractMode(mode)

	if cache != nil {
		builder = builder.WithCache(cache)
		log.Info("Result cache enabled", "backend", cfg.Cache.Backend)
	}

	if pcfg.AudioEnabled {
		synth, err := audio.New(audioConfig(cfg.Audio))
		if err != nil {
			log.Warn("Audio disabled", "error", err)
			builder = builder.WithoutAudio()
		} else {
			builder = builder.WithAudio(synth)
		}
	} else {
		builder = builder.WithoutAudio()
	}

	p, err := builder.Build()
	if err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return nil, err
	}

	return &app{cfg: cfg, pipeline: p, discoverer: discoverer, cache: cache}, nil
}

// Close releases the cache connection
func (a *app) Close() {
	if a.cache == nil {
		return
	}
	if err := a.cache.Close(); err != nil {
		logger.Error("Failed to close result cache", err)
	}
}
