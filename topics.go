package bitewise

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// TopicConfig controls the keyword representation of clusters.
type TopicConfig struct {
	// KeywordCount is how many top terms describe a cluster.
	KeywordCount int `yaml:"keyword_count" json:"keyword_count"`
	// RepresentativeCount is how many representative documents are kept.
	RepresentativeCount int `yaml:"representative_count" json:"representative_count"`
}

// DefaultTopicConfig matches five representation words and three exemplars.
var DefaultTopicConfig = TopicConfig{KeywordCount: 5, RepresentativeCount: MaxRepresentatives}

// TopicModel holds per-cluster keywords and representative documents of one
// pipeline run.
type TopicModel struct {
	keywords        map[int][]string
	representatives map[int][]string
}

// Keywords returns the ranked keyword representation of a cluster.
func (m *TopicModel) Keywords(label int) []string {
	if m == nil {
		return nil
	}
	return m.keywords[label]
}

// RepresentativeDocs returns the snippets closest to the cluster centroid,
// closest first.
func (m *TopicModel) RepresentativeDocs(label int) []string {
	if m == nil {
		return nil
	}
	return m.representatives[label]
}

var termPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// FitTopics builds keyword representations from the members' snippets with a
// class-based TF-IDF over unigrams and bigrams, and picks the representative
// documents of each cluster by cosine similarity to its centroid.
func FitTopics(articles []CleanedArticle, labels []int, vectors [][]float64, cfg TopicConfig) *TopicModel {
	if cfg.KeywordCount <= 0 {
		cfg.KeywordCount = DefaultTopicConfig.KeywordCount
	}
	if cfg.RepresentativeCount <= 0 {
		cfg.RepresentativeCount = DefaultTopicConfig.RepresentativeCount
	}

	model := &TopicModel{
		keywords:        make(map[int][]string),
		representatives: make(map[int][]string),
	}
	groups, order := groupLabels(labels)

	counts := make(map[int]map[string]float64, len(groups))
	totalFreq := make(map[string]float64)
	totalWords := 0.0
	for _, label := range order {
		termCounts := make(map[string]float64)
		for _, idx := range groups[label] {
			for _, term := range snippetTerms(articles[idx].Snippet) {
				termCounts[term]++
				totalFreq[term]++
				totalWords++
			}
		}
		counts[label] = termCounts
	}

	avgWords := 0.0
	if len(groups) > 0 {
		avgWords = totalWords / float64(len(groups))
	}

	for _, label := range order {
		model.keywords[label] = topTerms(counts[label], totalFreq, avgWords, cfg.KeywordCount)
		if len(vectors) == len(articles) {
			model.representatives[label] = closestSnippets(articles, vectors, groups[label], cfg.RepresentativeCount)
		}
	}
	return model
}

// snippetTerms tokenizes like a default count vectorizer (lowercase, runs of
// two or more word characters) and appends adjacent bigrams.
func snippetTerms(snippet string) []string {
	tokens := termPattern.FindAllString(strings.ToLower(snippet), -1)
	terms := make([]string, 0, len(tokens)*2)
	terms = append(terms, tokens...)
	for i := 1; i < len(tokens); i++ {
		terms = append(terms, tokens[i-1]+" "+tokens[i])
	}
	return terms
}

func topTerms(termCounts, totalFreq map[string]float64, avgWords float64, n int) []string {
	type scored struct {
		term  string
		score float64
	}
	classWords := 0.0
	for _, c := range termCounts {
		classWords += c
	}
	if classWords == 0 {
		return nil
	}

	all := make([]scored, 0, len(termCounts))
	for term, c := range termCounts {
		tf := c / classWords
		idf := math.Log(1 + avgWords/totalFreq[term])
		all = append(all, scored{term: term, score: tf * idf})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].term < all[j].term
	})

	if len(all) > n {
		all = all[:n]
	}
	out := make([]string, len(all))
	for i, s := range all {
		out[i] = s.term
	}
	return out
}

func closestSnippets(articles []CleanedArticle, vectors [][]float64, members []int, n int) []string {
	center := centroid(vectors, members)
	if center == nil {
		return nil
	}

	ranked := make([]int, len(members))
	copy(ranked, members)
	sims := make(map[int]float64, len(members))
	for _, idx := range members {
		sims[idx] = cosineSimilarity(vectors[idx], center)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return sims[ranked[i]] > sims[ranked[j]]
	})

	var docs []string
	seen := make(map[string]bool)
	for _, idx := range ranked {
		snippet := articles[idx].Snippet
		if snippet == "" || seen[snippet] {
			continue
		}
		seen[snippet] = true
		docs = append(docs, snippet)
		if len(docs) == n {
			break
		}
	}
	return docs
}
