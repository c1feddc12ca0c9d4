package bitewise

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var filenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SnapshotFilename names the snapshot of one search:
// "what's new?" at 2024-03-01 09:30:00 gives "what_s_new_20240301_093000.json".
func SnapshotFilename(question string, now time.Time) string {
	sanitized := strings.Trim(filenameUnsafe.ReplaceAllString(strings.ToLower(question), "_"), "_")
	return fmt.Sprintf("%s_%s.json", sanitized, now.Format("20060102_150405"))
}

// SaveJSON writes v as indented JSON, creating parent directories.
func SaveJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads the JSON file at path into v.
func LoadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// LoadSnapshot reads an article snapshot. Crawled snapshots and aggregated
// snapshots share the same field names, so both load through CrawledRecord
// semantics and are normalized on the way in.
func LoadSnapshot(path string) ([]ArticleRecord, error) {
	var raw []snapshotRecord
	if err := LoadJSON(path, &raw); err != nil {
		return nil, err
	}
	out := make([]ArticleRecord, len(raw))
	for i, r := range raw {
		article := Normalize(r.CrawledRecord)
		article.ID = i
		if r.ID != nil {
			article.ID = *r.ID
		}
		article.Description = strings.TrimSpace(r.Description)
		article.Preferred = r.Preferred
		out[i] = article
	}
	return out, nil
}

type snapshotRecord struct {
	CrawledRecord
	ID          *int   `json:"id"`
	Description string `json:"description"`
	Preferred   bool   `json:"userPref"`
}
