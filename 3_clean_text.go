package bitewise

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// SnippetContentChars is how much cleaned content goes into a snippet.
const SnippetContentChars = 300

// Lemmatizer maps a word to its dictionary base form.
type Lemmatizer interface {
	Lemma(word string) string
}

// CleanedArticle is an article plus its clustering-ready text.
type CleanedArticle struct {
	ArticleRecord
	CleanedText string `json:"cleanedText"`
	Snippet     string `json:"snippet"`
	Cluster     int    `json:"cluster"`
}

// TextCleaner turns free text into lowercase lemmatized tokens without urls,
// punctuation or stopwords. It holds only read-only resources and is safe for
// concurrent use.
type TextCleaner struct {
	lemmatizer Lemmatizer
	stopwords  wordSet
}

var (
	urlPattern     = regexp.MustCompile(`http\S+|www\S+|https\S+`)
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	queryPunct     = regexp.MustCompile(`[^\p{L}\p{N}_'\s-]+`)
)

// NewTextCleaner loads the English lemma dictionary. Loading takes a while, so
// construct one cleaner per process and share it.
func NewTextCleaner() (*TextCleaner, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("failed to load lemma dictionary: %w", err)
	}
	return NewTextCleanerWith(lemmatizer), nil
}

// NewTextCleanerWith builds a cleaner around an existing lemmatizer.
// A nil lemmatizer leaves tokens unchanged.
func NewTextCleanerWith(lemmatizer Lemmatizer) *TextCleaner {
	return &TextCleaner{lemmatizer: lemmatizer, stopwords: englishStopwords}
}

// Clean returns the space-joined cleaned tokens of text. Empty input gives "".
func (c *TextCleaner) Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = nonWordPattern.ReplaceAllString(text, " ")

	tokens := strings.Fields(text)
	out := tokens[:0]
	for _, token := range tokens {
		if c.stopwords.has(token) {
			continue
		}
		out = append(out, c.lemma(token))
	}
	return strings.Join(out, " ")
}

// ParseQuery prepares a user question for the search API: stopwords and
// punctuation are dropped and the rest is lemmatized. A word the dictionary
// leaves alone keeps its casing
// ("what is happening in the Israel Hamas war?" -> "happening Israel Hamas war").
func (c *TextCleaner) ParseQuery(question string) string {
	question = queryPunct.ReplaceAllString(question, " ")
	var out []string
	for _, token := range strings.Fields(question) {
		lower := strings.ToLower(token)
		if c.stopwords.has(lower) {
			continue
		}
		lemma := c.lemma(token)
		if lemma == lower {
			lemma = token
		}
		out = append(out, lemma)
	}
	return strings.Join(out, " ")
}

func (c *TextCleaner) lemma(token string) string {
	if c.lemmatizer == nil {
		return token
	}
	if lemma := c.lemmatizer.Lemma(token); lemma != "" {
		return lemma
	}
	return token
}

// CleanArticle derives the cleaned text and snippet of one article.
func (c *TextCleaner) CleanArticle(article ArticleRecord) CleanedArticle {
	cleaned := c.Clean(article.Content)
	return CleanedArticle{
		ArticleRecord: article,
		CleanedText:   cleaned,
		Snippet:       strings.TrimSpace(article.Title + " " + truncateRunes(cleaned, SnippetContentChars)),
		Cluster:       NoiseLabel,
	}
}

// CleanArticles cleans a whole batch, keeping order.
func (c *TextCleaner) CleanArticles(articles []ArticleRecord) []CleanedArticle {
	out := make([]CleanedArticle, len(articles))
	for i, article := range articles {
		out[i] = c.CleanArticle(article)
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
