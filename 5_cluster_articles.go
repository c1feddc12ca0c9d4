package bitewise

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NoiseLabel is the label of points that belong to no dense neighbourhood.
const NoiseLabel = -1

// ClusterParams are the DBSCAN density settings. Eps is a cosine distance;
// MinSamples counts the point itself.
type ClusterParams struct {
	Eps        float64 `yaml:"eps" json:"eps"`
	MinSamples int     `yaml:"min_samples" json:"min_samples"`
}

var (
	// GeneralParams is the loose setting used for search results.
	GeneralParams = ClusterParams{Eps: 0.5, MinSamples: 3}
	// TightParams is the setting used for daily topic discovery.
	TightParams = ClusterParams{Eps: 0.35, MinSamples: 5}
)

// DBSCAN labels every vector with a cluster id or NoiseLabel using cosine
// distance. Points are scanned in input order and cluster ids are handed out
// in the order clusters are discovered, so equal input gives equal labels.
func DBSCAN(vectors [][]float64, params ClusterParams) ([]int, error) {
	n := len(vectors)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = NoiseLabel
	}
	if n == 0 {
		return labels, nil
	}
	if params.MinSamples < 1 {
		params.MinSamples = 1
	}

	sim, err := similarityMatrix(vectors)
	if err != nil {
		return nil, err
	}

	neighbors := make([][]int, n)
	for i := range n {
		for j := range n {
			if 1.0-sim.At(i, j) <= params.Eps {
				neighbors[i] = append(neighbors[i], j)
			}
		}
	}

	core := func(i int) bool { return len(neighbors[i]) >= params.MinSamples }

	currentCluster := 0
	for i := range n {
		if labels[i] != NoiseLabel || !core(i) {
			continue
		}
		labels[i] = currentCluster
		queue := []int{i}
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			for _, q := range neighbors[p] {
				if labels[q] != NoiseLabel {
					continue
				}
				labels[q] = currentCluster
				if core(q) {
					queue = append(queue, q)
				}
			}
		}
		currentCluster++
	}

	return labels, nil
}

// similarityMatrix returns the pairwise cosine similarities of vectors.
func similarityMatrix(vectors [][]float64) (*mat.Dense, error) {
	n := len(vectors)
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("embeddings have zero dimension")
	}

	x := mat.NewDense(n, dim, nil)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), dim)
		}
		x.SetRow(i, normalizeVector(v))
	}

	var sim mat.Dense
	sim.Mul(x, x.T())
	return &sim, nil
}

// normalizeVector returns an L2-normalised copy of v. Zero vectors stay zero.
func normalizeVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	if norm := floats.Norm(out, 2); norm > 0 {
		floats.Scale(1/norm, out)
	}
	return out
}

// cosineSimilarity calculates cosine similarity between two vectors
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}

// centroid averages the normalised vectors at the given indices.
func centroid(vectors [][]float64, indices []int) []float64 {
	if len(indices) == 0 || len(vectors) == 0 {
		return nil
	}
	sum := make([]float64, len(vectors[indices[0]]))
	for _, idx := range indices {
		floats.Add(sum, normalizeVector(vectors[idx]))
	}
	floats.Scale(1/float64(len(indices)), sum)
	return sum
}

// groupLabels returns member indices per label in input order, plus the
// labels in order of first appearance.
func groupLabels(labels []int) (map[int][]int, []int) {
	groups := make(map[int][]int)
	var order []int
	for i, label := range labels {
		if _, ok := groups[label]; !ok {
			order = append(order, label)
		}
		groups[label] = append(groups[label], i)
	}
	return groups, order
}
