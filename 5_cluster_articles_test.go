package bitewise

import (
	"reflect"
	"testing"
)

// twoTopics returns three vectors around the x axis, three around the y axis
// and one outlier on the z axis.
func twoTopics() [][]float64 {
	return [][]float64{
		{1, 0.05, 0},
		{0.05, 1, 0},
		{1, 0, 0.02},
		{0, 1, 0.03},
		{0.98, 0.1, 0},
		{0.1, 0.97, 0},
		{0, 0, 1},
	}
}

func TestDBSCANGroupsDenseRegions(t *testing.T) {
	labels, err := DBSCAN(twoTopics(), ClusterParams{Eps: 0.1, MinSamples: 3})
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 1, 0, 1, 0, 1, NoiseLabel}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}
}

func TestDBSCANAllNoiseWhenTooSparse(t *testing.T) {
	labels, err := DBSCAN(twoTopics(), ClusterParams{Eps: 0.1, MinSamples: 5})
	if err != nil {
		t.Fatal(err)
	}
	for i, l := range labels {
		if l != NoiseLabel {
			t.Errorf("point %d labelled %d, want noise", i, l)
		}
	}
}

func TestDBSCANDeterministic(t *testing.T) {
	first, _ := DBSCAN(twoTopics(), GeneralParams)
	for range 5 {
		again, _ := DBSCAN(twoTopics(), GeneralParams)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("labels changed between runs: %v vs %v", first, again)
		}
	}
}

func TestDBSCANEdgeCases(t *testing.T) {
	labels, err := DBSCAN(nil, TightParams)
	if err != nil || len(labels) != 0 {
		t.Errorf("empty input: labels %v, err %v", labels, err)
	}

	if _, err := DBSCAN([][]float64{{1, 0}, {1, 0, 0}}, GeneralParams); err == nil {
		t.Error("expected an error for mismatched dimensions")
	}

	labels, err = DBSCAN([][]float64{{0, 0}, {0, 0}}, ClusterParams{Eps: 0.5, MinSamples: 2})
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range labels {
		if l != NoiseLabel {
			t.Errorf("zero vectors should not form a cluster, got %v", labels)
		}
	}
}

func TestCentroidAndCosine(t *testing.T) {
	c := centroid([][]float64{{2, 0}, {0, 3}}, []int{0, 1})
	if !reflect.DeepEqual(c, []float64{0.5, 0.5}) {
		t.Errorf("centroid = %v", c)
	}
	if s := cosineSimilarity([]float64{1, 0}, []float64{0, 0}); s != 0 {
		t.Errorf("cosine with zero vector = %f", s)
	}
	if s := cosineSimilarity([]float64{1, 1}, []float64{2, 2}); s < 0.9999 {
		t.Errorf("cosine of parallel vectors = %f", s)
	}
}

func TestMeasureClusters(t *testing.T) {
	vectors := twoTopics()
	q := MeasureClusters(vectors, []int{0, 1, 0, 1, 0, 1, NoiseLabel})
	if q.Articles != 7 || q.Clusters != 2 || q.Noise != 1 {
		t.Errorf("unexpected counts %+v", q)
	}
	if q.Silhouette < 0.7 {
		t.Errorf("expected well separated clusters, silhouette %f", q.Silhouette)
	}
	if q.Coherence < 0.9 {
		t.Errorf("expected coherent clusters, coherence %f", q.Coherence)
	}
	if q.Assessment != "excellent cluster separation" {
		t.Errorf("assessment = %q", q.Assessment)
	}

	q = MeasureClusters(vectors, []int{-1, -1, -1, -1, -1, -1, -1})
	if q.Clusters != 0 || q.Assessment != "no dense topics found" {
		t.Errorf("unexpected all-noise quality %+v", q)
	}
}
