package bitewise

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Clustering inputs a profile can embed.
const (
	// TextSnippet embeds the title plus the leading cleaned content.
	TextSnippet = "snippet"
	// TextHeadline embeds the cleaned title and description.
	TextHeadline = "headline"
)

// Profile is one pipeline variant: which text is embedded, how dense a
// cluster must be, and which clusters survive.
type Profile struct {
	Name               string        `yaml:"name" json:"name"`
	Text               string        `yaml:"text" json:"text"`
	Clustering         ClusterParams `yaml:"clustering" json:"clustering"`
	Filter             FilterConfig  `yaml:"filter" json:"filter"`
	Topics             TopicConfig   `yaml:"topics" json:"topics"`
	DropRepeatedTitles bool          `yaml:"drop_repeated_titles" json:"drop_repeated_titles"`
}

var (
	// DailyProfile discovers the day's topics from crawled front pages.
	DailyProfile = Profile{
		Name:               "daily",
		Text:               TextSnippet,
		Clustering:         TightParams,
		Filter:             DefaultFilterConfig,
		Topics:             DefaultTopicConfig,
		DropRepeatedTitles: true,
	}

	// SearchProfile groups the results of one user search. Every valid
	// cluster is kept.
	SearchProfile = Profile{
		Name:       "search",
		Text:       TextHeadline,
		Clustering: GeneralParams,
		Filter: FilterConfig{
			DominanceThreshold: DefaultFilterConfig.DominanceThreshold,
			GarbageOverlap:     DefaultFilterConfig.GarbageOverlap,
			GarbageLists:       DefaultGarbageLists,
		},
		Topics: DefaultTopicConfig,
	}
)

// Result is the clustered output of one pipeline run.
type Result struct {
	// RunID tells the log lines and output files of one run apart.
	RunID string `json:"run_id"`
	// ClusteredArticles maps a cluster id to its representatives followed by
	// the remaining members.
	ClusteredArticles map[int][]EnrichedArticle `json:"clustered_articles"`
	Topics            []ClusterInfo             `json:"topics"`
	Rejected          []Rejection               `json:"rejected,omitempty"`
	Quality           ClusterQuality            `json:"quality"`
}

// Pipeline turns a set of articles into topic clusters. It keeps no per-run
// state, so one Pipeline may serve concurrent runs.
type Pipeline struct {
	cleaner  *TextCleaner
	embedder Embedder
	sources  *SourceDirectory
	log      *zap.SugaredLogger
}

// NewPipeline wires the shared resources of the pipeline.
func NewPipeline(cleaner *TextCleaner, embedder Embedder, sources *SourceDirectory, log *zap.SugaredLogger) *Pipeline {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{cleaner: cleaner, embedder: embedder, sources: sources, log: log}
}

// Run cleans, embeds and clusters the articles, filters degenerate clusters
// and orders each surviving cluster with its representatives first.
// Too few articles for any cluster is a valid empty result.
func (p *Pipeline) Run(ctx context.Context, articles []ArticleRecord, profile Profile) (*Result, error) {
	result := &Result{
		RunID:             uuid.New().String(),
		ClusteredArticles: make(map[int][]EnrichedArticle),
	}
	log := p.log.With("run", result.RunID, "profile", profile.Name)

	articles = Deduplicate(articles)
	if profile.DropRepeatedTitles {
		articles = DropRepeatedTitles(articles)
	}
	if len(articles) == 0 {
		log.Infof("No articles to cluster for %s", profile.Name)
		return result, nil
	}

	enriched := make([]ArticleRecord, len(articles))
	for i, article := range articles {
		enriched[i] = p.sources.Enrich(article).ArticleRecord
	}
	cleaned := p.cleaner.CleanArticles(enriched)

	texts := make([]string, len(cleaned))
	for i, article := range cleaned {
		texts[i] = p.clusterText(article, profile.Text)
	}

	log.Infof("Embedding %d articles with %s", len(texts), p.embedder.Model())
	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed articles: %w", err)
	}
	if len(vectors) != len(cleaned) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(cleaned), len(vectors))
	}
	dim := p.embedder.Dimension()
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, %s produces %d", i, len(v), p.embedder.Model(), dim)
		}
	}

	labels, err := DBSCAN(vectors, profile.Clustering)
	if err != nil {
		return nil, fmt.Errorf("failed to cluster articles: %w", err)
	}
	for i := range cleaned {
		cleaned[i].Cluster = labels[i]
	}

	result.Quality = MeasureClusters(vectors, labels)
	log.Infof("Clustering quality: %s (silhouette %.3f, coherence %.3f)",
		result.Quality.Assessment, result.Quality.Silhouette, result.Quality.Coherence)

	model := FitTopics(cleaned, labels, vectors, profile.Topics)
	clusters := buildClusters(cleaned, labels, model)
	kept, rejected := FilterClusters(clusters, profile.Filter)
	for _, r := range rejected {
		log.Debugw("Removed cluster", "cluster", r.ClusterID, "reason", r.Reason, "detail", r.Detail)
	}
	log.Infof("Found %d clusters for %s, kept %d", len(clusters), profile.Name, len(kept))

	for _, cluster := range kept {
		reps, rest := SelectRepresentatives(cluster.Members, model.RepresentativeDocs(cluster.ID), profile.Topics.RepresentativeCount)
		cluster.Representatives = reps

		list := make([]EnrichedArticle, 0, len(reps)+len(rest))
		for _, a := range reps {
			list = append(list, EnrichedArticle{ArticleRecord: a.ArticleRecord, Representative: true})
		}
		for _, a := range rest {
			list = append(list, EnrichedArticle{ArticleRecord: a.ArticleRecord})
		}
		result.ClusteredArticles[cluster.ID] = list
		result.Topics = append(result.Topics, cluster)
	}
	result.Rejected = rejected
	return result, nil
}

func (p *Pipeline) clusterText(article CleanedArticle, text string) string {
	if text == TextHeadline {
		return p.cleaner.Clean(article.Title + " " + article.Description)
	}
	return article.Snippet
}

// buildClusters groups cleaned articles by label, in order of first appearance.
func buildClusters(articles []CleanedArticle, labels []int, model *TopicModel) []ClusterInfo {
	groups, order := groupLabels(labels)
	clusters := make([]ClusterInfo, 0, len(order))
	for _, label := range order {
		members := make([]CleanedArticle, 0, len(groups[label]))
		for _, idx := range groups[label] {
			members = append(members, articles[idx])
		}
		source, fraction := sourceDominance(members)
		clusters = append(clusters, ClusterInfo{
			ID:                     label,
			Size:                   len(members),
			Keywords:               model.Keywords(label),
			DominantSource:         source,
			DominantSourceFraction: fraction,
			Members:                members,
		})
	}
	return clusters
}
