package bitewise

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Aggregate merges producer batches into one ordered, duplicate-free list.
// Records of the preferred batch come first and are flagged Preferred, then
// the general batches in order. Already normalized records keep their flag.
// Redacted records and records without a url are skipped; when a url repeats
// the first occurrence wins. Ids are assigned 0..n-1 in output order. A nil
// batch counts as empty.
func Aggregate(batches []Batch, preferred Batch) []ArticleRecord {
	seen := orderedmap.New[string, ArticleRecord]()

	add := func(batch Batch, isPreferred bool) {
		for _, raw := range batch {
			article := Normalize(raw)
			if article.URL == "" || article.isRemoved() {
				continue
			}
			if _, ok := seen.Get(article.URL); ok {
				continue
			}
			article.Preferred = article.Preferred || isPreferred
			seen.Set(article.URL, article)
		}
	}

	add(preferred, true)
	for _, batch := range batches {
		add(batch, false)
	}

	return collect(seen, true)
}

// Deduplicate drops every record whose url was already seen earlier in the
// slice. Ids and provenance are kept as they are, so applying it twice gives
// the same result as applying it once.
func Deduplicate(articles []ArticleRecord) []ArticleRecord {
	seen := orderedmap.New[string, ArticleRecord]()
	for _, article := range articles {
		if article.URL == "" {
			continue
		}
		if _, ok := seen.Get(article.URL); ok {
			continue
		}
		seen.Set(article.URL, article)
	}
	return collect(seen, false)
}

func collect(seen *orderedmap.OrderedMap[string, ArticleRecord], renumber bool) []ArticleRecord {
	out := make([]ArticleRecord, 0, seen.Len())
	for pair := seen.Oldest(); pair != nil; pair = pair.Next() {
		article := pair.Value
		if renumber {
			article.ID = len(out)
		}
		out = append(out, article)
	}
	return out
}

// DropRepeatedTitles removes articles without content and articles that repeat
// the (title, source) pair of an earlier one. Crawled front pages often link the
// same story under several urls.
func DropRepeatedTitles(articles []ArticleRecord) []ArticleRecord {
	type titleKey struct{ title, source string }
	seen := make(map[titleKey]bool, len(articles))
	out := make([]ArticleRecord, 0, len(articles))
	for _, article := range articles {
		if article.Content == "" {
			continue
		}
		key := titleKey{article.Title, article.Source}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, article)
	}
	return out
}
