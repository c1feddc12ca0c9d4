package bitewise

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sosodev/duration"
	"gopkg.in/yaml.v3"
)

// Embedder backends selectable with EMBEDDER.
const (
	EmbedderOpenAI = "openai"
	EmbedderHash   = "hash"
)

// Config holds all environment variables
type Config struct {
	NewsAPIKey     string
	NewsAPIBaseURL string

	OpenAIAPIKey   string
	OpenAIBaseURL  string
	EmbeddingModel string
	ChatModel      string

	Embedder       string
	HashDimension  int
	EmbeddingCache string

	SettingsFile string
	DataDir      string

	// SearchWindow is how far back user searches look.
	SearchWindow time.Duration
	// SourceTimeout bounds the work spent on one crawled source or feed.
	SourceTimeout    time.Duration
	CrawlConcurrency int
	UserAgent        string
}

// LoadConfig reads the configuration from the environment. Durations are
// ISO 8601 (P8D, PT45S).
func LoadConfig() (Config, error) {
	cfg := Config{
		NewsAPIKey:       os.Getenv("NEWSAPI_KEY"),
		NewsAPIBaseURL:   getEnvOrDefault("NEWSAPI_BASE_URL", DefaultNewsAPIBaseURL),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		EmbeddingModel:   getEnvOrDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		ChatModel:        getEnvOrDefault("OPENAI_CHAT_MODEL", "gpt-4.1"),
		Embedder:         getEnvOrDefault("EMBEDDER", EmbedderOpenAI),
		EmbeddingCache:   getEnvOrDefault("EMBEDDING_CACHE", "embeddings.db"),
		SettingsFile:     getEnvOrDefault("SETTINGS_FILE", "bitewise.yaml"),
		DataDir:          getEnvOrDefault("DATA_DIR", "data"),
		UserAgent:        getEnvOrDefault("CRAWLER_USER_AGENT", "minicrawl"),
		HashDimension:    256,
		CrawlConcurrency: 8,
	}

	var err error
	if cfg.SearchWindow, err = isoDuration("SEARCH_WINDOW", "P8D"); err != nil {
		return Config{}, err
	}
	if cfg.SourceTimeout, err = isoDuration("SOURCE_TIMEOUT", "PT45S"); err != nil {
		return Config{}, err
	}
	if cfg.HashDimension, err = intEnv("HASH_EMBEDDING_DIM", cfg.HashDimension); err != nil {
		return Config{}, err
	}
	if cfg.CrawlConcurrency, err = intEnv("CRAWL_CONCURRENCY", cfg.CrawlConcurrency); err != nil {
		return Config{}, err
	}

	switch cfg.Embedder {
	case EmbedderOpenAI, EmbedderHash:
	default:
		return Config{}, fmt.Errorf("unknown EMBEDDER %q", cfg.Embedder)
	}
	return cfg, nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func isoDuration(key, def string) (time.Duration, error) {
	raw := getEnvOrDefault(key, def)
	d, err := duration.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d.ToTimeDuration(), nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

// Settings is the content of the settings file: the outlet directory, the
// user's preferred sources and the pipeline profiles.
type Settings struct {
	Sources []Source `yaml:"sources"`
	// Preferred are search API source ids fetched on top of the general batches.
	Preferred []string `yaml:"preferred"`
	// Domains restricts the preferred search batch to these domains.
	Domains []string `yaml:"domains"`
	// Language is the ISO 639-1 code crawled articles must be written in.
	// Any unsupported value such as "any" turns the check off.
	Language string             `yaml:"language"`
	Summary  SummaryPreferences `yaml:"summary"`
	Daily    Profile            `yaml:"daily"`
	Search   Profile            `yaml:"search"`
}

// DefaultSettings is used when no settings file exists.
func DefaultSettings() Settings {
	return Settings{
		Sources:  DefaultSources,
		Language: "en",
		Summary:  DefaultSummaryPreferences,
		Daily:    DailyProfile,
		Search:   SearchProfile,
	}
}

// LoadSettings reads the YAML settings file at path. A missing file yields
// DefaultSettings; keys absent from the file keep their defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if len(settings.Sources) == 0 {
		settings.Sources = DefaultSources
	}
	return settings, nil
}
