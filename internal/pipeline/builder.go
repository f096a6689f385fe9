package pipeline

import (
	"marketpulse/internal/extract"
	"marketpulse/internal/fetch"
	"marketpulse/internal/narrative"
	"marketpulse/internal/sentiment"
	"marketpulse/internal/summarize"
	"marketpulse/internal/topics"
)

// Builder helps construct a fully configured Pipeline
type Builder struct {
	config       Config
	fetchOptions fetch.Options
	extractMode  extract.Mode
	fetcher      PageFetcher
	audio        AudioSynthesizer
	cache        ResultCache
}

// NewBuilder creates a new pipeline builder with default settings
func NewBuilder() *Builder {
	return &Builder{
		config:       DefaultConfig(),
		fetchOptions: fetch.DefaultOptions(),
		extractMode:  extract.ModeParagraphs,
	}
}

// WithConfig sets the pipeline configuration
func (b *Builder) WithConfig(config Config) *Builder {
	b.config = config
	return b
}

// WithFetchOptions sets the HTTP retrieval options
func (b *Builder) WithFetchOptions(opts fetch.Options) *Builder {
	b.fetchOptions = opts
	return b
}

// WithFetcher replaces the HTTP fetcher
func (b *Builder) WithFetcher(fetcher PageFetcher) *Builder {
	b.fetcher = fetcher
	return b
}

// WithExtractMode selects how article text is located
func (b *Builder) WithExtractMode(mode extract.Mode) *Builder {
	b.extractMode = mode
	return b
}

// WithAudio sets the speech synthesizer
func (b *Builder) WithAudio(audio AudioSynthesizer) *Builder {
	b.audio = audio
	return b
}

// WithoutAudio disables audio synthesis
func (b *Builder) WithoutAudio() *Builder {
	b.audio = nil
	b.config.AudioEnabled = false
	return b
}

// WithCache sets the result cache
func (b *Builder) WithCache(cache ResultCache) *Builder {
	b.cache = cache
	return b
}

// Build constructs a fully configured Pipeline
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	fetcher := b.fetcher
	if fetcher == nil {
		fetcher = fetch.NewClient(b.fetchOptions)
	}

	summarizerOptions := summarize.DefaultSummarizerOptions()
	summarizerOptions.SentenceCount = b.config.SummarySentenceCount

	return NewPipeline(
		fetcher,
		extract.NewExtractor(b.extractMode),
		summarize.NewSummarizer(summarizerOptions),
		sentiment.NewSentimentAnalyzer(),
		topics.NewExtractor(b.config.TopicSeed),
		narrative.NewGenerator(),
		b.audio,
		b.cache,
		b.config,
	), nil
}
