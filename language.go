package bitewise

import (
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

// languageCodes maps the ISO 639-1 codes accepted in the settings file to the
// detector languages.
var languageCodes = map[string]lingua.Language{
	"en": lingua.English,
	"de": lingua.German,
	"fr": lingua.French,
	"es": lingua.Spanish,
	"it": lingua.Italian,
	"pt": lingua.Portuguese,
	"nl": lingua.Dutch,
	"ru": lingua.Russian,
	"ar": lingua.Arabic,
	"zh": lingua.Chinese,
}

const (
	// languageSampleChars is how much of an article is fed to the detector.
	languageSampleChars = 500
	// minLanguageChars is the shortest text the detector is asked about.
	minLanguageChars = 40
)

// LanguageFilter drops crawled articles written in another language than the
// wanted one. Front pages often link localized editions.
type LanguageFilter struct {
	detector lingua.LanguageDetector
	want     lingua.Language
}

// NewLanguageFilter builds a detector over every supported language and keeps
// articles in the language with the given ISO 639-1 code. An unknown code
// gives a nil filter, which keeps everything.
func NewLanguageFilter(code string) *LanguageFilter {
	want, ok := languageCodes[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return nil
	}
	languages := make([]lingua.Language, 0, len(languageCodes))
	for _, l := range languageCodes {
		languages = append(languages, l)
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		Build()
	return &LanguageFilter{detector: detector, want: want}
}

// Keep returns the articles in the wanted language, in order, and the number
// dropped. Articles too short to judge are kept.
func (f *LanguageFilter) Keep(articles []ArticleRecord) ([]ArticleRecord, int) {
	if f == nil {
		return articles, 0
	}
	kept := make([]ArticleRecord, 0, len(articles))
	for _, article := range articles {
		text := truncateRunes(strings.TrimSpace(article.Title+" "+article.Content), languageSampleChars)
		if utf8.RuneCountInString(text) < minLanguageChars {
			kept = append(kept, article)
			continue
		}
		if language, ok := f.detector.DetectLanguageOf(text); ok && language != f.want {
			continue
		}
		kept = append(kept, article)
	}
	return kept, len(articles) - len(kept)
}
