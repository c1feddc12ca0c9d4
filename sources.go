package bitewise

import (
	"strings"
	"unicode/utf8"
)

// Bias ratings as reported on enriched articles.
const (
	BiasLeft = iota
	BiasLeftCenter
	BiasCenter
	BiasRightCenter
	BiasRight
	BiasUnknown
)

var biasTranslation = map[string]int{
	"left":         BiasLeft,
	"left-center":  BiasLeftCenter,
	"center":       BiasCenter,
	"right-center": BiasRightCenter,
	"right":        BiasRight,
}

// Read time buckets.
const (
	ReadShort  = 0 // under two minutes
	ReadMedium = 1 // two to seven minutes
	ReadLong   = 2
)

// Source is a news outlet known to the directory.
type Source struct {
	URL  string `yaml:"url" json:"url"`
	Name string `yaml:"name" json:"name"`
	// Bias is one of left, left-center, center, right-center, right.
	Bias string `yaml:"bias,omitempty" json:"bias,omitempty"`
	// Feed is an optional RSS or Atom feed of the outlet.
	Feed string `yaml:"feed,omitempty" json:"feed,omitempty"`
	// Crawl marks the outlet front page as a crawler seed.
	Crawl bool `yaml:"crawl,omitempty" json:"crawl,omitempty"`
}

// EnrichedArticle is an article ready for the response body.
type EnrichedArticle struct {
	ArticleRecord
	Representative bool `json:"representative"`
}

// SourceDirectory resolves outlet urls to display names and bias ratings.
type SourceDirectory struct {
	all    []Source
	byURL  map[string]Source
	byName map[string]Source
}

// NewSourceDirectory indexes sources by normalised url and by name.
func NewSourceDirectory(sources []Source) *SourceDirectory {
	d := &SourceDirectory{
		all:    sources,
		byURL:  make(map[string]Source, len(sources)),
		byName: make(map[string]Source, len(sources)),
	}
	for _, s := range sources {
		if s.URL != "" {
			d.byURL[sourceKey(s.URL)] = s
		}
		if s.Name != "" {
			d.byName[strings.ToLower(s.Name)] = s
		}
	}
	return d
}

// Lookup returns the display name and bias rating of a source given either as
// a front page url or as a name. Unknown sources keep their name and get
// BiasUnknown.
func (d *SourceDirectory) Lookup(source string) (string, int) {
	if d == nil {
		return source, BiasUnknown
	}
	s, ok := d.byURL[sourceKey(source)]
	if !ok {
		s, ok = d.byName[strings.ToLower(strings.TrimSpace(source))]
	}
	if !ok {
		return source, BiasUnknown
	}
	bias, known := biasTranslation[strings.ToLower(s.Bias)]
	if !known {
		bias = BiasUnknown
	}
	return s.Name, bias
}

// Seeds returns the crawl seeds in configuration order.
func (d *SourceDirectory) Seeds() []Source {
	if d == nil {
		return nil
	}
	var out []Source
	for _, s := range d.all {
		if s.Crawl && s.URL != "" {
			out = append(out, s)
		}
	}
	return out
}

// Feeds returns the sources that publish a feed, in configuration order.
func (d *SourceDirectory) Feeds() []Source {
	if d == nil {
		return nil
	}
	var out []Source
	for _, s := range d.all {
		if s.Feed != "" {
			out = append(out, s)
		}
	}
	return out
}

// Enrich attaches display name, bias rating and read time to an article.
// Values a producer already set are kept.
func (d *SourceDirectory) Enrich(article ArticleRecord) EnrichedArticle {
	name, bias := d.Lookup(article.Source)
	article.Source = name
	if article.BiasRating == nil {
		article.BiasRating = &bias
	}
	if article.ReadTime == nil {
		article.ReadTime = ReadTimeBucket(utf8.RuneCountInString(article.Content))
	}
	return EnrichedArticle{ArticleRecord: article}
}

// ReadTimeBucket estimates reading time from the character count, assuming
// five characters per word and 250 words per minute. Zero characters give nil.
func ReadTimeBucket(chars int) *int {
	if chars <= 0 {
		return nil
	}
	minutes := float64(chars) / 5 / 250
	bucket := ReadLong
	switch {
	case minutes < 2:
		bucket = ReadShort
	case minutes <= 7:
		bucket = ReadMedium
	}
	return &bucket
}

func sourceKey(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	if u != "" && !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}
