package bitewise

import (
	"math"
	"strings"
)

// ClusterQuality summarizes how well separated the clusters of a run are.
// Noise points are left out of every score.
type ClusterQuality struct {
	Articles   int     `json:"articles"`
	Clusters   int     `json:"clusters"`
	Noise      int     `json:"noise"`
	Silhouette float64 `json:"average_silhouette_score"`
	Coherence  float64 `json:"cluster_coherence"`
	Assessment string  `json:"quality_assessment"`
}

// MeasureClusters scores the labelled embeddings with the cosine silhouette
// and the size-weighted mean pairwise similarity inside clusters.
func MeasureClusters(vectors [][]float64, labels []int) ClusterQuality {
	q := ClusterQuality{Articles: len(labels)}
	groups, order := groupLabels(labels)
	var clusterLabels []int
	for _, label := range order {
		if label == NoiseLabel {
			q.Noise = len(groups[label])
			continue
		}
		clusterLabels = append(clusterLabels, label)
	}
	q.Clusters = len(clusterLabels)
	if q.Clusters == 0 || len(vectors) != len(labels) {
		q.Assessment = assessClusteringQuality(q)
		return q
	}

	sim, err := similarityMatrix(vectors)
	if err != nil {
		q.Assessment = assessClusteringQuality(q)
		return q
	}
	distance := func(i, j int) float64 { return 1.0 - sim.At(i, j) }

	if q.Clusters > 1 {
		total, points := 0.0, 0
		for _, label := range clusterLabels {
			for _, i := range groups[label] {
				a := 0.0
				if len(groups[label]) > 1 {
					for _, j := range groups[label] {
						if j != i {
							a += distance(i, j)
						}
					}
					a /= float64(len(groups[label]) - 1)
				}

				b := math.Inf(1)
				for _, other := range clusterLabels {
					if other == label {
						continue
					}
					avg := 0.0
					for _, j := range groups[other] {
						avg += distance(i, j)
					}
					b = math.Min(b, avg/float64(len(groups[other])))
				}

				if m := math.Max(a, b); m > 0 {
					total += (b - a) / m
				}
				points++
			}
		}
		q.Silhouette = total / float64(points)
	}

	weighted, members := 0.0, 0
	for _, label := range clusterLabels {
		idx := groups[label]
		if len(idx) < 2 {
			continue
		}
		sum, pairs := 0.0, 0
		for x := range idx {
			for y := x + 1; y < len(idx); y++ {
				sum += sim.At(idx[x], idx[y])
				pairs++
			}
		}
		weighted += sum / float64(pairs) * float64(len(idx))
		members += len(idx)
	}
	if members > 0 {
		q.Coherence = weighted / float64(members)
	}

	q.Assessment = assessClusteringQuality(q)
	return q
}

func assessClusteringQuality(q ClusterQuality) string {
	if q.Clusters == 0 {
		return "no dense topics found"
	}

	var assessment []string
	switch {
	case q.Clusters == 1:
		assessment = append(assessment, "single topic")
	case q.Silhouette > 0.7:
		assessment = append(assessment, "excellent cluster separation")
	case q.Silhouette > 0.5:
		assessment = append(assessment, "good cluster separation")
	case q.Silhouette > 0.25:
		assessment = append(assessment, "moderate cluster separation")
	case q.Silhouette > 0:
		assessment = append(assessment, "weak cluster separation")
	default:
		assessment = append(assessment, "poor cluster separation")
	}

	if noiseShare := float64(q.Noise) / float64(q.Articles); noiseShare > 0.8 {
		assessment = append(assessment, "most articles left as noise")
	} else if noiseShare > 0.5 {
		assessment = append(assessment, "more than half the articles left as noise")
	}
	return strings.Join(assessment, " with ")
}
