package bitewise

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Files written by the stage commands, relative to the data directory.
const (
	searchDir        = "search"
	headlinesFile    = "daily/headlines.json"
	crawledFile      = "daily/crawled.json"
	topicsFile       = "clusters/topics.json"
	searchResultFile = "clusters/search.json"
	summariesFile    = "summaries/topics.json"
	reportMarkdown   = "report.md"
	reportHTML       = "report.html"
)

// App holds the configuration and the shared, lazily loaded resources of the
// command line stages.
type App struct {
	Config   Config
	Settings Settings
	Log      *zap.SugaredLogger

	mu       sync.Mutex
	cleaner  *TextCleaner
	embedder Embedder
	closers  []func() error
}

// NewApp creates the application.
func NewApp(cfg Config, settings Settings, log *zap.SugaredLogger) *App {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &App{Config: cfg, Settings: settings, Log: log}
}

// Commands returns the stage commands.
func (a *App) Commands() []*cobra.Command {
	return []*cobra.Command{
		a.fetchSearchCmd(),
		a.fetchDailyCmd(),
		a.crawlCmd(),
		a.clusterTopicsCmd(),
		a.clusterSearchCmd(),
		a.summarizeCmd(),
		a.generateReportCmd(),
	}
}

// Close releases the embedding cache.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.Log.Warnf("Failed to close resource: %v", err)
		}
	}
	a.closers = nil
}

// Clean removes the snapshots, cluster results, summaries and reports from the
// data directory and returns how many files were removed. The embedding cache
// is kept.
func (a *App) Clean() int {
	removed := 0
	for _, dir := range []string{searchDir, "daily", "clusters", "summaries"} {
		path := a.path(dir)
		files, err := os.ReadDir(path)
		if err != nil {
			if !os.IsNotExist(err) {
				a.Log.Warnf("Failed to read %s: %v", path, err)
			}
			continue
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			if err := os.Remove(filepath.Join(path, file.Name())); err != nil {
				a.Log.Warnf("Failed to remove %s: %v", file.Name(), err)
				continue
			}
			removed++
		}
	}

	for _, report := range []string{reportMarkdown, reportHTML} {
		err := os.Remove(a.path(report))
		switch {
		case err == nil:
			removed++
		case !os.IsNotExist(err):
			a.Log.Warnf("Failed to remove %s: %v", report, err)
		}
	}
	return removed
}

func (a *App) path(name string) string {
	return filepath.Join(a.Config.DataDir, name)
}

// Sources returns the outlet directory from the settings.
func (a *App) Sources() *SourceDirectory {
	return NewSourceDirectory(a.Settings.Sources)
}

// Cleaner loads the lemma dictionary once.
func (a *App) Cleaner() (*TextCleaner, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cleaner != nil {
		return a.cleaner, nil
	}
	cleaner, err := NewTextCleaner()
	if err != nil {
		return nil, err
	}
	a.cleaner = cleaner
	return cleaner, nil
}

// Embedder loads the configured embedding model once, behind the SQLite cache.
func (a *App) Embedder(ctx context.Context) (Embedder, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.embedder != nil {
		return a.embedder, nil
	}

	var inner Embedder
	switch a.Config.Embedder {
	case EmbedderHash:
		inner = NewHashEmbedder(a.Config.HashDimension)
	default:
		e, err := NewOpenAIEmbedder(ctx, OpenAIEmbedderConfig{
			APIKey:  a.Config.OpenAIAPIKey,
			BaseURL: a.Config.OpenAIBaseURL,
			Model:   a.Config.EmbeddingModel,
		})
		if err != nil {
			return nil, err
		}
		inner = e
	}

	if a.Config.EmbeddingCache == "" {
		a.embedder = inner
		return inner, nil
	}
	cached, err := NewCachedEmbedder(inner, a.Config.EmbeddingCache, a.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding cache: %w", err)
	}
	a.closers = append(a.closers, cached.Close)
	a.embedder = cached
	return cached, nil
}

// Pipeline wires the cleaner, embedder and source directory.
func (a *App) Pipeline(ctx context.Context) (*Pipeline, error) {
	cleaner, err := a.Cleaner()
	if err != nil {
		return nil, err
	}
	embedder, err := a.Embedder(ctx)
	if err != nil {
		return nil, err
	}
	return NewPipeline(cleaner, embedder, a.Sources(), a.Log), nil
}

func (a *App) newsClient() (*NewsAPIClient, error) {
	if a.Config.NewsAPIKey == "" {
		return nil, fmt.Errorf("missing NEWSAPI_KEY")
	}
	return NewNewsAPIClient(a.Config.NewsAPIBaseURL, a.Config.NewsAPIKey, a.Log), nil
}
