package bitewise

import (
	"sort"
)

// ClusterInfo describes one cluster of a pipeline run.
type ClusterInfo struct {
	ID                     int              `json:"cluster_id"`
	Size                   int              `json:"size"`
	Keywords               []string         `json:"keywords"`
	DominantSource         string           `json:"dominant_source"`
	DominantSourceFraction float64          `json:"dominant_source_fraction"`
	Members                []CleanedArticle `json:"-"`
	Representatives        []CleanedArticle `json:"-"`
}

// GarbageList is a named set of boilerplate keywords.
type GarbageList struct {
	Name  string   `yaml:"name" json:"name"`
	Words []string `yaml:"words" json:"words"`
}

// DefaultGarbageLists are the keyword sets crawled boilerplate clusters around.
var DefaultGarbageLists = []GarbageList{
	{
		Name: "promotional",
		Words: []string{"newsletter", "book", "signup", "sign-up", "daily", "time", "bbc", "sign up",
			"crossword", "atlantic", "best", "the", "weekday", "puzzle", "new york"},
	},
	{
		Name:  "advertising",
		Words: []string{"ad", "video", "content", "video content", "loading video", "ad audio", "relevant ad", "advertisement"},
	},
	{
		Name:  "advice",
		Words: []string{"time", "dear", "life", "question", "advice", "prudence"},
	},
}

// FilterConfig holds the cluster validity rules.
type FilterConfig struct {
	// MaxClusters caps the surviving clusters; 0 keeps all of them.
	MaxClusters int `yaml:"max_clusters" json:"max_clusters"`
	// DominanceThreshold rejects clusters where one source has at least this
	// share of the members.
	DominanceThreshold float64 `yaml:"dominance_threshold" json:"dominance_threshold"`
	// GarbageOverlap is how many keywords must hit one garbage list to reject.
	GarbageOverlap int           `yaml:"garbage_overlap" json:"garbage_overlap"`
	GarbageLists   []GarbageList `yaml:"garbage_lists" json:"garbage_lists"`
}

// DefaultFilterConfig is the daily topic discovery setting.
var DefaultFilterConfig = FilterConfig{
	MaxClusters:        5,
	DominanceThreshold: 0.5,
	GarbageOverlap:     4,
	GarbageLists:       DefaultGarbageLists,
}

// Rejection reasons.
const (
	RejectNoise      = "noise"
	RejectSourceBias = "source_bias"
	RejectGarbage    = "garbage_keywords"
	RejectOverCap    = "over_cap"
)

// Rejection records why a cluster did not survive.
type Rejection struct {
	ClusterID int    `json:"cluster_id"`
	Reason    string `json:"reason"`
	Detail    string `json:"detail,omitempty"`
}

// FilterClusters orders clusters by size (largest first, ties by id), drops
// noise, single-source and boilerplate clusters, and keeps at most
// cfg.MaxClusters of the survivors.
func FilterClusters(clusters []ClusterInfo, cfg FilterConfig) ([]ClusterInfo, []Rejection) {
	ordered := make([]ClusterInfo, len(clusters))
	copy(ordered, clusters)
	sort.SliceStable(ordered, func(i, j int) bool {
		if len(ordered[i].Members) != len(ordered[j].Members) {
			return len(ordered[i].Members) > len(ordered[j].Members)
		}
		return ordered[i].ID < ordered[j].ID
	})

	var kept []ClusterInfo
	var rejected []Rejection
	for _, cluster := range ordered {
		if cluster.ID == NoiseLabel {
			rejected = append(rejected, Rejection{ClusterID: cluster.ID, Reason: RejectNoise})
			continue
		}

		if cfg.DominanceThreshold > 0 && cluster.DominantSourceFraction >= cfg.DominanceThreshold {
			rejected = append(rejected, Rejection{
				ClusterID: cluster.ID,
				Reason:    RejectSourceBias,
				Detail:    cluster.DominantSource,
			})
			continue
		}

		// Without keywords nothing proves the cluster is boilerplate.
		if list, hits := garbageHits(cluster.Keywords, cfg.GarbageLists); hits >= cfg.GarbageOverlap && cfg.GarbageOverlap > 0 {
			rejected = append(rejected, Rejection{ClusterID: cluster.ID, Reason: RejectGarbage, Detail: list})
			continue
		}

		if cfg.MaxClusters > 0 && len(kept) >= cfg.MaxClusters {
			rejected = append(rejected, Rejection{ClusterID: cluster.ID, Reason: RejectOverCap})
			continue
		}
		kept = append(kept, cluster)
	}
	return kept, rejected
}

// garbageHits returns the first garbage list with the largest keyword overlap.
func garbageHits(keywords []string, lists []GarbageList) (string, int) {
	if len(keywords) == 0 {
		return "", 0
	}
	words := newWordSet(keywords...)
	bestName, best := "", 0
	for _, list := range lists {
		hits := 0
		for w := range newWordSet(list.Words...) {
			if words.has(w) {
				hits++
			}
		}
		if hits > best {
			bestName, best = list.Name, hits
		}
	}
	return bestName, best
}

// sourceDominance returns the most frequent source among members and its
// share. Ties go to the source seen first.
func sourceDominance(members []CleanedArticle) (string, float64) {
	if len(members) == 0 {
		return "", 0
	}
	counts := make(map[string]int)
	var order []string
	for _, m := range members {
		if _, ok := counts[m.Source]; !ok {
			order = append(order, m.Source)
		}
		counts[m.Source]++
	}
	top := order[0]
	for _, source := range order[1:] {
		if counts[source] > counts[top] {
			top = source
		}
	}
	return top, float64(counts[top]) / float64(len(members))
}
