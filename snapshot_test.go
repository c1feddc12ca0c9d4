package bitewise

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSnapshotFilename(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	if got := SnapshotFilename("What's new?", now); got != "what_s_new_20240301_093000.json" {
		t.Errorf("SnapshotFilename = %q", got)
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "search.json")
	articles := []ArticleRecord{
		{ID: 4, URL: "https://x.com/a?b=1&c=2", Title: "Q&A <live>", Source: "X", Description: "desc", Content: "body", PublishedTime: "2024-03-01", Authors: []string{"Ann"}, Preferred: true},
		{ID: 5, URL: "https://y.com/b", Title: "Two", Source: "Y", Content: "body"},
	}
	if err := SaveJSON(path, articles); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"title": "Q&A <live>"`) {
		t.Errorf("expected unescaped, indented JSON:\n%s", data)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(loaded))
	}
	first := loaded[0]
	if first.ID != 4 || !first.Preferred || first.Description != "desc" || first.Authors[0] != "Ann" {
		t.Errorf("unexpected first article %+v", first)
	}
	if loaded[1].PublishedTime != UnknownTime {
		t.Errorf("empty time should load as %q, got %q", UnknownTime, loaded[1].PublishedTime)
	}
}

func TestLoadCrawledSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawled.json")
	content := `[
  {"url": "https://x.com/a", "title": "A", "source": "https://x.com/", "fullContent": "full", "content": "short", "authors": "Ann, Bob", "time": "2024-03-01"},
  {"url": "https://x.com/b", "title": "B", "source": "https://x.com/", "content": "only", "authors": ["Cy"]}
]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded[0].ID != 0 || loaded[1].ID != 1 {
		t.Errorf("records without ids should be numbered by position: %d %d", loaded[0].ID, loaded[1].ID)
	}
	if loaded[0].Content != "full" || len(loaded[0].Authors) != 2 || loaded[1].Authors[0] != "Cy" {
		t.Errorf("unexpected records %+v", loaded)
	}
}

func TestLoadSnapshotMissing(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}
