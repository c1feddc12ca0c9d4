package bitewise

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
)

const (
	stormContent    = "Storm floods coast evacuation hurricane rain winds damage shelters"
	electionContent = "Senate election ballot candidates campaign polls debate turnout"
)

// topicArticles returns six storm articles from six outlets and ten election
// articles, six of which come from outlet A, plus one unrelated article.
func topicArticles() []ArticleRecord {
	var articles []ArticleRecord
	for i := range 6 {
		articles = append(articles, ArticleRecord{
			URL:     fmt.Sprintf("https://s%d.com/storm", i),
			Title:   fmt.Sprintf("Storm update %d", i),
			Source:  fmt.Sprintf("S%d", i),
			Content: stormContent,
		})
	}
	electionSources := []string{"A", "B", "A", "C", "A", "D", "A", "E", "A", "A"}
	for i, source := range electionSources {
		articles = append(articles, ArticleRecord{
			URL:     fmt.Sprintf("https://%s.com/election/%d", source, i),
			Title:   fmt.Sprintf("Election news %d", i),
			Source:  source,
			Content: electionContent,
		})
	}
	articles = append(articles, ArticleRecord{
		URL:     "https://z.com/pasta",
		Title:   "Pasta recipe",
		Source:  "Z",
		Content: "Cooking pasta with tomato basil garlic olive oil",
	})
	for i := range articles {
		articles[i].ID = i
	}
	return articles
}

func testPipeline(embedder Embedder) *Pipeline {
	return NewPipeline(NewTextCleanerWith(nil), embedder, NewSourceDirectory(nil), nil)
}

func TestPipelineRemovesSingleSourceTopic(t *testing.T) {
	result, err := testPipeline(NewHashEmbedder(256)).Run(context.Background(), topicArticles(), DailyProfile)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := result.ClusteredArticles[NoiseLabel]; ok {
		t.Error("noise must never be returned as a cluster")
	}
	if len(result.ClusteredArticles) != 1 || len(result.Topics) != 1 {
		t.Fatalf("expected exactly one topic, got %d clusters and %d topics", len(result.ClusteredArticles), len(result.Topics))
	}
	if result.Quality.Clusters != 2 {
		t.Errorf("expected the election articles to form a cluster before filtering, quality %+v", result.Quality)
	}

	var biasRejected bool
	for _, r := range result.Rejected {
		if r.Reason == RejectSourceBias && r.Detail == "A" {
			biasRejected = true
		}
	}
	if !biasRejected {
		t.Errorf("expected the election cluster to be rejected for source bias, got %+v", result.Rejected)
	}

	for id, articles := range result.ClusteredArticles {
		if len(articles) != 6 {
			t.Errorf("cluster %d has %d articles, want 6", id, len(articles))
		}
		for _, a := range articles {
			if a.Source == "A" {
				t.Errorf("cluster %d contains an article from the dominant source", id)
			}
			if a.BiasRating == nil || *a.BiasRating != BiasUnknown || a.ReadTime == nil {
				t.Errorf("article %d was not enriched: %+v", a.ID, a.ArticleRecord)
			}
		}
	}

	topic := result.Topics[0]
	if topic.DominantSourceFraction >= 0.5 {
		t.Errorf("kept topic is dominated by %s (%f)", topic.DominantSource, topic.DominantSourceFraction)
	}
	if len(topic.Keywords) == 0 {
		t.Error("expected keywords for the kept topic")
	}
}

func TestPipelineRepresentativesFirst(t *testing.T) {
	result, err := testPipeline(NewHashEmbedder(256)).Run(context.Background(), topicArticles(), DailyProfile)
	if err != nil {
		t.Fatal(err)
	}
	for id, articles := range result.ClusteredArticles {
		reps := 0
		for i, a := range articles {
			if a.Representative {
				if i != reps {
					t.Errorf("cluster %d: representative at position %d after a regular member", id, i)
				}
				reps++
			}
		}
		if reps == 0 || reps > MaxRepresentatives {
			t.Errorf("cluster %d has %d representatives", id, reps)
		}
	}
}

func TestPipelineDeterministic(t *testing.T) {
	p := testPipeline(NewHashEmbedder(128))
	first, err := p.Run(context.Background(), topicArticles(), DailyProfile)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Run(context.Background(), topicArticles(), DailyProfile)
	if err != nil {
		t.Fatal(err)
	}
	if first.RunID == second.RunID {
		t.Error("every run should get its own id")
	}
	first.RunID, second.RunID = "", ""
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Error("equal input produced different results")
	}
}

func TestPipelineConcurrentRuns(t *testing.T) {
	p := testPipeline(NewHashEmbedder(128))
	want, err := p.Run(context.Background(), topicArticles(), DailyProfile)
	if err != nil {
		t.Fatal(err)
	}
	want.RunID = ""
	wantJSON, _ := json.Marshal(want)

	const runs = 8
	results := make([]*Result, runs)
	errs := make([]error, runs)
	var wg sync.WaitGroup
	for i := range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = p.Run(context.Background(), topicArticles(), DailyProfile)
		}()
	}
	wg.Wait()

	ids := make(map[string]bool)
	for i, result := range results {
		if errs[i] != nil {
			t.Fatalf("run %d: %v", i, errs[i])
		}
		ids[result.RunID] = true
		result.RunID = ""
		got, _ := json.Marshal(result)
		if string(got) != string(wantJSON) {
			t.Errorf("run %d differs from a sequential run", i)
		}
	}
	if len(ids) != runs {
		t.Errorf("expected %d distinct run ids, got %d", runs, len(ids))
	}
}

func TestPipelineEmptyInput(t *testing.T) {
	embedder := &countingEmbedder{inner: NewHashEmbedder(32)}
	result, err := testPipeline(embedder).Run(context.Background(), nil, DailyProfile)
	if err != nil {
		t.Fatal(err)
	}
	if result.ClusteredArticles == nil || len(result.ClusteredArticles) != 0 {
		t.Errorf("expected an empty cluster map, got %v", result.ClusteredArticles)
	}
	if len(embedder.texts) != 0 {
		t.Error("embedder should not be called without articles")
	}
}

func TestPipelineTooFewArticles(t *testing.T) {
	articles := topicArticles()[:3]
	result, err := testPipeline(NewHashEmbedder(64)).Run(context.Background(), articles, DailyProfile)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.ClusteredArticles) != 0 {
		t.Errorf("expected no clusters, got %v", result.ClusteredArticles)
	}
	if result.Quality.Noise != 3 {
		t.Errorf("expected every article as noise, got %+v", result.Quality)
	}
}

func TestPipelineSearchProfileUsesHeadlines(t *testing.T) {
	embedder := &countingEmbedder{inner: NewHashEmbedder(64)}
	articles := []ArticleRecord{
		{URL: "https://x.com/1", Title: "Rover lands", Description: "The rover touched down on Mars", Source: "X", Content: "long body"},
	}
	if _, err := testPipeline(embedder).Run(context.Background(), articles, SearchProfile); err != nil {
		t.Fatal(err)
	}
	want := []string{"rover lands rover touched mars"}
	if !reflect.DeepEqual(embedder.texts, want) {
		t.Errorf("embedded %q, want %q", embedder.texts, want)
	}
}

// staleEmbedder reports a wider dimension than the vectors it returns, as a
// cache written by another model would.
type staleEmbedder struct{ HashEmbedder }

func (s *staleEmbedder) Dimension() int { return s.HashEmbedder.Dimension() * 2 }

func TestPipelineDimensionMismatch(t *testing.T) {
	embedder := &staleEmbedder{*NewHashEmbedder(32)}
	_, err := testPipeline(embedder).Run(context.Background(), topicArticles(), DailyProfile)
	if err == nil || !strings.Contains(err.Error(), "dimension 32") {
		t.Errorf("expected a dimension error, got %v", err)
	}
}

type failingEmbedder struct{ HashEmbedder }

func (failingEmbedder) Embed(context.Context, []string) ([][]float64, error) {
	return nil, errors.New("model unavailable")
}

func TestPipelineEmbeddingFailure(t *testing.T) {
	_, err := testPipeline(&failingEmbedder{}).Run(context.Background(), topicArticles(), DailyProfile)
	if err == nil {
		t.Error("expected the embedding error to surface")
	}
}
