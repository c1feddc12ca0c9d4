package bitewise

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func (a *App) clusterTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cluster-topics",
		Short: "Cluster the crawled articles into the day's topics",
		Run: func(cmd *cobra.Command, args []string) {
			if err := a.ClusterTopics(cmd.Context()); err != nil {
				a.Log.Errorf("Failed to cluster topics: %v", err)
			}
		},
	}
}

// ClusterTopics runs the daily profile over the crawled snapshot and, when
// present, the headline snapshot.
func (a *App) ClusterTopics(ctx context.Context) error {
	articles, err := a.loadDailyArticles()
	if err != nil {
		return err
	}
	result, err := a.cluster(ctx, articles, a.Settings.Daily)
	if err != nil {
		return err
	}
	return a.saveResult(topicsFile, result)
}

// loadDailyArticles aggregates the daily snapshots. Preferred records of either
// snapshot go ahead of everything else, so they win a url collision.
func (a *App) loadDailyArticles() ([]ArticleRecord, error) {
	var batches []Batch
	var preferred Batch
	for _, name := range []string{crawledFile, headlinesFile} {
		articles, err := LoadSnapshot(a.path(name))
		if errors.Is(err, os.ErrNotExist) {
			a.Log.Infof("No snapshot at %s, skipping", a.path(name))
			continue
		}
		if err != nil {
			return nil, err
		}
		prefs, general := splitPreferred(articles)
		preferred = append(preferred, prefs...)
		batches = append(batches, general)
	}
	if len(batches) == 0 {
		return nil, fmt.Errorf("no article snapshots in %s, run crawl or fetch-daily first", a.Config.DataDir)
	}
	return Aggregate(batches, preferred), nil
}

func (a *App) clusterSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cluster-search [snapshot]",
		Short: "Cluster the articles of a saved search (latest when omitted)",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if err := a.ClusterSearch(cmd.Context(), path); err != nil {
				a.Log.Errorf("Failed to cluster search results: %v", err)
			}
		},
	}
}

// ClusterSearch runs the search profile over one search snapshot.
func (a *App) ClusterSearch(ctx context.Context, path string) error {
	if path == "" {
		latest, err := latestSnapshot(a.path(searchDir))
		if err != nil {
			return err
		}
		path = latest
	}
	articles, err := LoadSnapshot(path)
	if err != nil {
		return err
	}
	result, err := a.cluster(ctx, articles, a.Settings.Search)
	if err != nil {
		return err
	}
	return a.saveResult(searchResultFile, result)
}

func (a *App) cluster(ctx context.Context, articles []ArticleRecord, profile Profile) (*Result, error) {
	pipeline, err := a.Pipeline(ctx)
	if err != nil {
		return nil, err
	}
	a.Log.Infof("Clustering %d articles with the %s profile...", len(articles), profile.Name)
	return pipeline.Run(ctx, articles, profile)
}

func (a *App) saveResult(name string, result *Result) error {
	if err := SaveJSON(a.path(name), result); err != nil {
		return err
	}
	for _, topic := range result.Topics {
		a.Log.Infof("Topic %d (%d articles): %s", topic.ID, topic.Size, strings.Join(topic.Keywords, ", "))
	}
	a.Log.Infof("Saved %d topics to %s", len(result.Topics), a.path(name))
	return nil
}

// splitPreferred separates records saved from the preferred batch of an
// earlier aggregation from the rest, keeping their order.
func splitPreferred(articles []ArticleRecord) (preferred, general Batch) {
	for _, article := range articles {
		if article.Preferred {
			preferred = append(preferred, article)
		} else {
			general = append(general, article)
		}
	}
	return preferred, general
}

// latestSnapshot returns the most recently modified JSON file in dir.
func latestSnapshot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var latest string
	var latestMod int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); latest == "" || mod > latestMod {
			latest, latestMod = filepath.Join(dir, entry.Name()), mod
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no search snapshots in %s", dir)
	}
	return latest, nil
}
