package bitewise

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SearchPreferences are the user choices applied to API requests.
type SearchPreferences struct {
	// Domains are fetched in a separate, preferred batch.
	Domains []string
	// Sources are search API source ids fetched as the preferred daily batch.
	Sources []string
}

// UserSearch answers a question with the search API: one batch sorted by
// popularity, one by relevancy and, when the user prefers domains, a preferred
// batch restricted to them. Failing requests contribute an empty batch; only
// when every request fails is an error returned.
func UserSearch(ctx context.Context, client *NewsAPIClient, cleaner *TextCleaner, question string, prefs SearchPreferences, window time.Duration, now time.Time) ([]ArticleRecord, error) {
	query := cleaner.ParseQuery(question)
	if query == "" {
		query = strings.TrimSpace(question)
	}
	base := EverythingQuery{
		Query:          query,
		From:           now.Add(-window),
		Language:       "en",
		ExcludeDomains: prefs.Domains,
	}

	popularity, relevancy := base, base
	popularity.SortBy = "popularity"
	relevancy.SortBy = "relevancy"
	queries := []EverythingQuery{popularity, relevancy}
	if len(prefs.Domains) > 0 {
		preferred := base
		preferred.SortBy = "popularity"
		preferred.Domains = prefs.Domains
		preferred.ExcludeDomains = nil
		queries = append(queries, preferred)
	}

	batches := make([]Batch, len(queries))
	errs := make([]error, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			batches[i], errs[i] = client.Everything(gctx, q)
			return nil
		})
	}
	_ = g.Wait()
	if err := allFailed(errs, client.log); err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", query, err)
	}

	var preferred Batch
	if len(queries) > 2 {
		preferred = batches[2]
	}
	return Aggregate(batches[:2], preferred), nil
}

// DailyNews collects the top headlines of every category plus, when the user
// follows sources, a preferred batch of their headlines.
func DailyNews(ctx context.Context, client *NewsAPIClient, prefs SearchPreferences, question string) ([]ArticleRecord, error) {
	queries := make([]HeadlinesQuery, 0, len(DailyCategories)+1)
	for _, category := range DailyCategories {
		queries = append(queries, HeadlinesQuery{Category: category, Country: "us"})
	}
	if len(prefs.Sources) > 0 {
		queries = append(queries, HeadlinesQuery{Query: question, Sources: prefs.Sources})
	}

	batches := make([]Batch, len(queries))
	errs := make([]error, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, q := range queries {
		g.Go(func() error {
			batches[i], errs[i] = client.TopHeadlines(gctx, q)
			return nil
		})
	}
	_ = g.Wait()
	if err := allFailed(errs, client.log); err != nil {
		return nil, fmt.Errorf("failed to fetch headlines: %w", err)
	}

	var preferred Batch
	if len(prefs.Sources) > 0 {
		preferred = batches[len(DailyCategories)]
	}
	return Aggregate(batches[:len(DailyCategories)], preferred), nil
}

// allFailed logs individual failures and returns their join when nothing
// succeeded.
func allFailed(errs []error, log *zap.SugaredLogger) error {
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			log.Warnf("Request failed, continuing with remaining batches: %v", err)
		}
	}
	if failed == len(errs) && failed > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (a *App) fetchSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-search <question>",
		Short: "Search the news API for a question and save the aggregated articles",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := a.FetchSearch(cmd.Context(), strings.Join(args, " ")); err != nil {
				a.Log.Errorf("Failed to fetch search results: %v", err)
			}
		},
	}
}

// FetchSearch runs a user search and returns the snapshot path.
func (a *App) FetchSearch(ctx context.Context, question string) (string, error) {
	client, err := a.newsClient()
	if err != nil {
		return "", err
	}
	cleaner, err := a.Cleaner()
	if err != nil {
		return "", err
	}

	now := time.Now()
	prefs := SearchPreferences{Domains: a.Settings.Domains}
	articles, err := UserSearch(ctx, client, cleaner, question, prefs, a.Config.SearchWindow, now)
	if err != nil {
		return "", err
	}

	path := a.path(searchDir + "/" + SnapshotFilename(question, now))
	if err := SaveJSON(path, articles); err != nil {
		return "", err
	}
	a.Log.Infof("Saved %d articles to %s", len(articles), path)
	return path, nil
}

func (a *App) fetchDailyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-daily",
		Short: "Fetch the top headlines of every category",
		Run: func(cmd *cobra.Command, args []string) {
			if err := a.FetchDaily(cmd.Context()); err != nil {
				a.Log.Errorf("Failed to fetch headlines: %v", err)
			}
		},
	}
}

// FetchDaily saves the daily headline snapshot.
func (a *App) FetchDaily(ctx context.Context) error {
	client, err := a.newsClient()
	if err != nil {
		return err
	}
	articles, err := DailyNews(ctx, client, SearchPreferences{Sources: a.Settings.Preferred}, "")
	if err != nil {
		return err
	}
	if err := SaveJSON(a.path(headlinesFile), articles); err != nil {
		return err
	}
	a.Log.Infof("Saved %d headlines to %s", len(articles), a.path(headlinesFile))
	return nil
}

func (a *App) crawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Crawl outlet front pages and feeds",
		Run: func(cmd *cobra.Command, args []string) {
			if err := a.Crawl(cmd.Context()); err != nil {
				a.Log.Errorf("Failed to crawl: %v", err)
			}
		},
	}
}

// Crawl collects front page articles and feed items into one snapshot.
func (a *App) Crawl(ctx context.Context) error {
	sources := a.Sources()
	cfg := DefaultCrawlerConfig
	cfg.UserAgent = a.Config.UserAgent
	cfg.SourceTimeout = a.Config.SourceTimeout
	cfg.Concurrency = a.Config.CrawlConcurrency

	seeds := sources.Seeds()
	feeds := sources.Feeds()
	a.Log.Infof("Crawling %d front pages and %d feeds...", len(seeds), len(feeds))

	var crawled, fed []Batch
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		crawled = NewCrawler(cfg, a.Log).Crawl(gctx, seeds)
		return nil
	})
	g.Go(func() error {
		fed = NewFeedFetcher(cfg.SourceTimeout, cfg.Concurrency, a.Log).FetchAll(gctx, feeds)
		return nil
	})
	_ = g.Wait()

	articles, dropped := NewLanguageFilter(a.Settings.Language).Keep(Aggregate(append(crawled, fed...), nil))
	if dropped > 0 {
		a.Log.Infof("Dropped %d articles not written in %s", dropped, a.Settings.Language)
		for i := range articles {
			articles[i].ID = i
		}
	}
	if len(articles) == 0 {
		return errors.New("no articles collected")
	}
	if err := SaveJSON(a.path(crawledFile), articles); err != nil {
		return err
	}
	a.Log.Infof("Saved %d crawled articles to %s", len(articles), a.path(crawledFile))
	return nil
}
