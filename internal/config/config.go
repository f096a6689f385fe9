package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      App      `mapstructure:"app"`
	Pipeline Pipeline `mapstructure:"pipeline"`
	Fetch    Fetch    `mapstructure:"fetch"`
	Search   Search   `mapstructure:"search"`
	Audio    Audio    `mapstructure:"audio"`
	Cache    Cache    `mapstructure:"cache"`
	Server   Server   `mapstructure:"server"`
	Logging  Logging  `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	DataDir    string `mapstructure:"data_dir"`
	ConfigFile string `mapstructure:"config_file"`
}

// Pipeline holds the batch analysis settings
type Pipeline struct {
	WorkerCount          int   `mapstructure:"worker_count"`
	RequiredArticles     int   `mapstructure:"required_articles"`
	SummarySentenceCount int   `mapstructure:"summary_sentence_count"`
	TopicKeywordCount    int   `mapstructure:"topic_keyword_count"`
	MinContentWords      int   `mapstructure:"min_content_words"`
	TopicSeed            int64 `mapstructure:"topic_seed"`
}

// Fetch holds article retrieval settings
type Fetch struct {
	Timeout           string  `mapstructure:"timeout"`
	MaxAttempts       int     `mapstructure:"max_attempts"`
	BackoffBase       string  `mapstructure:"backoff_base"`
	UserAgent         string  `mapstructure:"user_agent"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	ExtractMode       string  `mapstructure:"extract_mode"`
}

// Search holds link discovery configuration
type Search struct {
	Provider   string `mapstructure:"provider"`
	MaxResults int    `mapstructure:"max_results"`
	Language   string `mapstructure:"language"`
	Timeout    string `mapstructure:"timeout"`
}

// Audio holds translated speech configuration
type Audio struct {
	Enabled    bool        `mapstructure:"enabled"`
	SourceLang string      `mapstructure:"source_lang"`
	TargetLang string      `mapstructure:"target_lang"`
	Provider   string      `mapstructure:"provider"`
	Translator string      `mapstructure:"translator"`
	OutputDir  string      `mapstructure:"output_dir"`
	URLPrefix  string      `mapstructure:"url_prefix"`
	Timeout    string      `mapstructure:"timeout"`
	OpenAI     AudioOpenAI `mapstructure:"openai"`
}

// AudioOpenAI holds OpenAI speech settings
type AudioOpenAI struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	Voice  string `mapstructure:"voice"`
}

// Cache holds result cache configuration
type Cache struct {
	Backend   string `mapstructure:"backend"`
	Directory string `mapstructure:"directory"`
	RedisURL  string `mapstructure:"redis_url"`
	RedisAddr string `mapstructure:"redis_addr"`
	TTL       string `mapstructure:"ttl"`
}

// Server holds HTTP API configuration
type Server struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	ReadTimeout    string `mapstructure:"read_timeout"`
	WriteTimeout   string `mapstructure:"write_timeout"`
	RequestTimeout string `mapstructure:"request_timeout"`
	StaticDir      string `mapstructure:"static_dir"`
	CORS           CORS   `mapstructure:"cors"`
}

// CORS holds cross-origin settings
type CORS struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	// Configure viper
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".marketpulse")
		viper.SetConfigType("yaml")
	}

	// Set defaults
	setDefaults()

	// Bind environment variables
	bindEnvironmentVariables()

	// Enable automatic environment variable reading
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal into struct
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.App.ConfigFile = viper.ConfigFileUsed()

	// Apply post-processing
	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset discards the loaded configuration so the next Load starts fresh.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.data_dir", ".marketpulse-cache")

	// Pipeline defaults
	viper.SetDefault("pipeline.worker_count", 5)
	viper.SetDefault("pipeline.required_articles", 10)
	viper.SetDefault("pipeline.summary_sentence_count", 3)
	viper.SetDefault("pipeline.topic_keyword_count", 5)
	viper.SetDefault("pipeline.min_content_words", 50)
	viper.SetDefault("pipeline.topic_seed", 42)

	// Fetch defaults
	viper.SetDefault("fetch.timeout", "10s")
	viper.SetDefault("fetch.max_attempts", 3)
	viper.SetDefault("fetch.backoff_base", "1s")
	viper.SetDefault("fetch.user_agent", "Mozilla/5.0")
	viper.SetDefault("fetch.requests_per_second", 0)
	viper.SetDefault("fetch.burst", 5)
	viper.SetDefault("fetch.extract_mode", "paragraphs")

	// Search defaults
	viper.SetDefault("search.provider", "bing")
	viper.SetDefault("search.max_results", 0)
	viper.SetDefault("search.language", "en")
	viper.SetDefault("search.timeout", "10s")

	// Audio defaults
	viper.SetDefault("audio.enabled", true)
	viper.SetDefault("audio.source_lang", "en")
	viper.SetDefault("audio.target_lang", "hi")
	viper.SetDefault("audio.provider", "gtts")
	viper.SetDefault("audio.translator", "google")
	viper.SetDefault("audio.output_dir", "static/audio")
	viper.SetDefault("audio.url_prefix", "static/audio")
	viper.SetDefault("audio.timeout", "30s")
	viper.SetDefault("audio.openai.model", "tts-1")
	viper.SetDefault("audio.openai.voice", "alloy")

	// Cache defaults
	viper.SetDefault("cache.backend", "none")
	viper.SetDefault("cache.directory", ".marketpulse-cache")
	viper.SetDefault("cache.ttl", "24h")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "5m")
	viper.SetDefault("server.request_timeout", "5m")
	viper.SetDefault("server.static_dir", "static")
	viper.SetDefault("server.cors.enabled", true)
	viper.SetDefault("server.cors.allowed_origins", []string{"*"})

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	// OpenAI API key for the openai speech provider
	bindEnvKeys("audio.openai.api_key", []string{
		"OPENAI_API_KEY",
	})

	// Redis
	bindEnvKeys("cache.redis_url", []string{
		"REDIS_URL",
	})

	bindEnvKeys("cache.redis_addr", []string{
		"REDIS_ADDR",
	})

	// General settings
	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"MARKETPULSE_DEBUG",
	})

	bindEnvKeys("search.provider", []string{
		"SEARCH_PROVIDER",
	})

	bindEnvKeys("server.port", []string{
		"PORT",
	})

	bindEnvKeys("logging.level", []string{
		"LOG_LEVEL",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	// Expand paths
	if config.Cache.Directory != "" {
		config.Cache.Directory = expandPath(config.Cache.Directory)
	}
	if config.Audio.OutputDir != "" {
		config.Audio.OutputDir = expandPath(config.Audio.OutputDir)
	}
	if config.Server.StaticDir != "" {
		config.Server.StaticDir = expandPath(config.Server.StaticDir)
	}

	if config.App.Debug {
		config.Logging.Level = "debug"
	}

	// Validate durations
	durations := map[string]string{
		"fetch.timeout":          config.Fetch.Timeout,
		"fetch.backoff_base":     config.Fetch.BackoffBase,
		"search.timeout":         config.Search.Timeout,
		"audio.timeout":          config.Audio.Timeout,
		"cache.ttl":              config.Cache.TTL,
		"server.read_timeout":    config.Server.ReadTimeout,
		"server.write_timeout":   config.Server.WriteTimeout,
		"server.request_timeout": config.Server.RequestTimeout,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig ensures the configuration is usable
func validateConfig(config *Config) error {
	var errors []string

	p := config.Pipeline
	if p.WorkerCount < 1 {
		errors = append(errors, fmt.Sprintf("pipeline.worker_count must be at least 1, got %d", p.WorkerCount))
	}
	if p.RequiredArticles < 1 {
		errors = append(errors, fmt.Sprintf("pipeline.required_articles must be at least 1, got %d", p.RequiredArticles))
	}
	if p.SummarySentenceCount < 1 {
		errors = append(errors, fmt.Sprintf("pipeline.summary_sentence_count must be at least 1, got %d", p.SummarySentenceCount))
	}
	if p.TopicKeywordCount < 0 || p.MinContentWords < 0 {
		errors = append(errors, "pipeline.topic_keyword_count and pipeline.min_content_words must not be negative")
	}

	switch config.Fetch.ExtractMode {
	case "", "paragraphs", "readability":
	default:
		errors = append(errors, fmt.Sprintf("Unknown fetch.extract_mode: %s. Supported: paragraphs, readability", config.Fetch.ExtractMode))
	}

	switch config.Search.Provider {
	case "", "bing", "googlenews", "mock":
	default:
		errors = append(errors, fmt.Sprintf("Unknown search provider: %s. Supported: bing, googlenews, mock", config.Search.Provider))
	}

	if config.Audio.Enabled {
		switch config.Audio.Provider {
		case "gtts", "mock":
		case "openai":
			if config.Audio.OpenAI.APIKey == "" {
				errors = append(errors, "OpenAI speech requires an API key. Set OPENAI_API_KEY or audio.openai.api_key")
			}
		default:
			errors = append(errors, fmt.Sprintf("Unknown audio provider: %s. Supported: gtts, openai, mock", config.Audio.Provider))
		}
		switch config.Audio.Translator {
		case "", "google", "none":
		default:
			errors = append(errors, fmt.Sprintf("Unknown audio translator: %s. Supported: google, none", config.Audio.Translator))
		}
	}

	switch config.Cache.Backend {
	case "", "none", "sqlite":
	case "redis":
		if config.Cache.RedisURL == "" && config.Cache.RedisAddr == "" {
			errors = append(errors, "Redis cache requires an address. Set REDIS_URL, REDIS_ADDR or cache.redis_addr")
		}
	default:
		errors = append(errors, fmt.Sprintf("Unknown cache backend: %s. Supported: none, sqlite, redis", config.Cache.Backend))
	}

	switch config.Logging.Format {
	case "", "json", "text":
	default:
		errors = append(errors, fmt.Sprintf("Unknown logging format: %s. Supported: json, text", config.Logging.Format))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ParseDuration parses a validated duration string, returning def when empty.
func ParseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
