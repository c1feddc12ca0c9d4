package bitewise

import (
	"encoding/json"
	"regexp"
	"strings"
)

// UnknownTime marks an article whose publication time was not reported.
const UnknownTime = "unknown"

// RemovedSentinel is what the search API puts in place of redacted articles.
const RemovedSentinel = "[Removed]"

// ArticleRecord is the uniform article schema every producer is normalized into
type ArticleRecord struct {
	ID            int      `json:"id"`
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Source        string   `json:"source"`
	Description   string   `json:"description,omitempty"`
	Content       string   `json:"content"`
	PublishedTime string   `json:"time"`
	Authors       []string `json:"authors"`
	ImageURL      string   `json:"imageUrl"`
	BiasRating    *int     `json:"biasRating,omitempty"`
	ReadTime      *int     `json:"readTime,omitempty"`
	Preferred     bool     `json:"userPref"`
}

// RawRecord is an article as delivered by one of the producers.
// The set of implementations is closed: CrawledRecord, SearchAPIRecord and
// ArticleRecord itself (snapshots that were already normalized).
type RawRecord interface {
	rawRecord()
}

func (CrawledRecord) rawRecord()   {}
func (SearchAPIRecord) rawRecord() {}
func (ArticleRecord) rawRecord()   {}

// Batch is one producer response.
type Batch []RawRecord

// CrawledRecord is the crawler / feed snapshot format
type CrawledRecord struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Source      string     `json:"source"`
	FullContent string     `json:"fullContent,omitempty"`
	Content     string     `json:"content"`
	ImageURL    string     `json:"imageUrl"`
	Authors     AuthorList `json:"authors"`
	Time        string     `json:"time"`
	ReadTime    *int       `json:"readTime,omitempty"`
	BiasRating  *int       `json:"biasRating,omitempty"`
}

// SearchAPIRecord is a single entry of a NewsAPI "articles" array
type SearchAPIRecord struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// AuthorList accepts either a JSON string or a JSON array of strings.
type AuthorList []string

func (a *AuthorList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = splitAuthors(single)
		return nil
	}
	// numbers, objects: treat as missing rather than failing the snapshot
	*a = nil
	return nil
}

func splitAuthors(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var truncationMarker = regexp.MustCompile(`\s*\[\+\d+ chars\]\s*$`)

// Normalize converts any raw record into an ArticleRecord. It never fails:
// missing fields become empty strings, nil authors or UnknownTime.
func Normalize(r RawRecord) ArticleRecord {
	switch rec := r.(type) {
	case CrawledRecord:
		content := rec.FullContent
		if strings.TrimSpace(content) == "" {
			content = rec.Content
		}
		return ArticleRecord{
			URL:           strings.TrimSpace(rec.URL),
			Title:         strings.TrimSpace(rec.Title),
			Source:        strings.TrimSpace(rec.Source),
			Content:       strings.TrimSpace(content),
			PublishedTime: timeOrUnknown(rec.Time),
			Authors:       nonEmpty(rec.Authors),
			ImageURL:      strings.TrimSpace(rec.ImageURL),
			BiasRating:    rec.BiasRating,
			ReadTime:      rec.ReadTime,
		}
	case *CrawledRecord:
		if rec == nil {
			return ArticleRecord{PublishedTime: UnknownTime}
		}
		return Normalize(*rec)
	case SearchAPIRecord:
		return ArticleRecord{
			URL:           strings.TrimSpace(rec.URL),
			Title:         strings.TrimSpace(rec.Title),
			Source:        strings.TrimSpace(rec.Source.Name),
			Description:   strings.TrimSpace(rec.Description),
			Content:       strings.TrimSpace(truncationMarker.ReplaceAllString(rec.Content, "")),
			PublishedTime: timeOrUnknown(rec.PublishedAt),
			Authors:       splitAuthors(rec.Author),
			ImageURL:      strings.TrimSpace(rec.URLToImage),
		}
	case *SearchAPIRecord:
		if rec == nil {
			return ArticleRecord{PublishedTime: UnknownTime}
		}
		return Normalize(*rec)
	case ArticleRecord:
		if rec.PublishedTime == "" {
			rec.PublishedTime = UnknownTime
		}
		return rec
	default:
		return ArticleRecord{PublishedTime: UnknownTime}
	}
}

// isRemoved reports whether the producer redacted this article.
func (a ArticleRecord) isRemoved() bool {
	return a.URL == RemovedSentinel || a.Title == RemovedSentinel || a.Source == RemovedSentinel
}

func timeOrUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return UnknownTime
	}
	return s
}

func nonEmpty(list []string) []string {
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
