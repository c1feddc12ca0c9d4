package bitewise

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"NEWSAPI_BASE_URL", "EMBEDDER", "SEARCH_WINDOW", "SOURCE_TIMEOUT", "CRAWL_CONCURRENCY", "HASH_EMBEDDING_DIM", "DATA_DIR"} {
		t.Setenv(key, "")
	}
	t.Setenv("NEWSAPI_KEY", "news-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NewsAPIKey != "news-key" || cfg.NewsAPIBaseURL != DefaultNewsAPIBaseURL {
		t.Errorf("unexpected news api config %+v", cfg)
	}
	if cfg.SearchWindow != 8*24*time.Hour {
		t.Errorf("search window = %v", cfg.SearchWindow)
	}
	if cfg.SourceTimeout != 45*time.Second {
		t.Errorf("source timeout = %v", cfg.SourceTimeout)
	}
	if cfg.Embedder != EmbedderOpenAI || cfg.HashDimension != 256 || cfg.CrawlConcurrency != 8 || cfg.DataDir != "data" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("EMBEDDER", EmbedderHash)
	t.Setenv("SEARCH_WINDOW", "P2D")
	t.Setenv("SOURCE_TIMEOUT", "PT1M30S")
	t.Setenv("HASH_EMBEDDING_DIM", "64")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedder != EmbedderHash || cfg.HashDimension != 64 {
		t.Errorf("unexpected embedder %s/%d", cfg.Embedder, cfg.HashDimension)
	}
	if cfg.SearchWindow != 48*time.Hour || cfg.SourceTimeout != 90*time.Second {
		t.Errorf("unexpected durations %v %v", cfg.SearchWindow, cfg.SourceTimeout)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"EMBEDDER":          "word2vec",
		"SEARCH_WINDOW":     "eight days",
		"CRAWL_CONCURRENCY": "many",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := LoadConfig(); err == nil {
				t.Errorf("expected an error for %s=%s", key, value)
			}
		})
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(settings.Sources) != len(DefaultSources) || settings.Language != "en" || settings.Daily.Name != "daily" || settings.Search.Name != "search" {
		t.Errorf("expected default settings, got %+v", settings)
	}
}

func TestLoadSettingsOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bitewise.yaml")
	content := `
sources:
  - url: https://apnews.com/
    name: AP
    bias: center
    crawl: true
preferred: [reuters, associated-press]
domains: [reuters.com]
language: any
summary:
  tone: conversational
  plain_language: true
daily:
  clustering:
    eps: 0.3
  filter:
    max_clusters: 3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(settings.Sources) != 1 || settings.Sources[0].Bias != "center" {
		t.Errorf("unexpected sources %+v", settings.Sources)
	}
	if len(settings.Preferred) != 2 || settings.Domains[0] != "reuters.com" {
		t.Errorf("unexpected preferences %v %v", settings.Preferred, settings.Domains)
	}
	if settings.Summary.Tone != "conversational" || !settings.Summary.PlainLanguage || settings.Summary.Length != "short" {
		t.Errorf("unexpected summary preferences %+v", settings.Summary)
	}
	if settings.Language != "any" || NewLanguageFilter(settings.Language) != nil {
		t.Errorf("language check should be off, got %q", settings.Language)
	}

	daily := settings.Daily
	if daily.Clustering.Eps != 0.3 || daily.Clustering.MinSamples != TightParams.MinSamples {
		t.Errorf("unexpected clustering %+v", daily.Clustering)
	}
	if daily.Filter.MaxClusters != 3 || daily.Filter.DominanceThreshold != 0.5 || len(daily.Filter.GarbageLists) != len(DefaultGarbageLists) {
		t.Errorf("unexpected filter %+v", daily.Filter)
	}
	if !daily.DropRepeatedTitles || daily.Text != TextSnippet {
		t.Errorf("daily defaults lost: %+v", daily)
	}
	if settings.Search.Clustering != GeneralParams {
		t.Errorf("search profile changed: %+v", settings.Search)
	}
}

func TestLoadSettingsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bitewise.yaml")
	if err := os.WriteFile(path, []byte("daily: [not, a, profile]"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Error("expected a parse error")
	}
}
