package bitewise

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeSummarizer struct {
	inputs []string
	fail   func(articles string) bool
}

func (f *fakeSummarizer) Summarize(_ context.Context, articles string) (TopicSummary, error) {
	f.inputs = append(f.inputs, articles)
	if f.fail != nil && f.fail(articles) {
		return TopicSummary{}, errors.New("model unavailable")
	}
	first := strings.TrimSuffix(strings.TrimPrefix(strings.SplitN(articles, "\n", 2)[0], "### "), " ###")
	return TopicSummary{
		Headline:  "About " + first,
		Summary:   fmt.Sprintf("%d articles", strings.Count(articles, "### ")),
		KeyPoints: []string{"point"},
	}, nil
}

func sampleResult() *Result {
	return &Result{
		RunID:             "run-1",
		ClusteredArticles: map[int][]EnrichedArticle{
			0: {
				{ArticleRecord: ArticleRecord{Title: "Storm lead", Content: "body"}, Representative: true},
				{ArticleRecord: ArticleRecord{Title: "Storm follow", Content: "body"}},
			},
			2: {
				{ArticleRecord: ArticleRecord{Title: "Budget lead", Content: "body"}, Representative: true},
			},
		},
		Topics: []ClusterInfo{
			{ID: 2, Size: 1, Keywords: []string{"budget"}},
			{ID: 0, Size: 2, Keywords: []string{"storm"}},
		},
	}
}

func TestFormatArticles(t *testing.T) {
	got := FormatArticles([]EnrichedArticle{
		{ArticleRecord: ArticleRecord{Title: "One", Content: "first"}},
		{ArticleRecord: ArticleRecord{Title: "Two", Content: strings.Repeat("x", maxArticleChars+10)}},
	})
	want := "### One ###\nfirst\n\n### Two ###\n" + strings.Repeat("x", maxArticleChars)
	if got != want {
		t.Errorf("FormatArticles = %q", got)
	}
}

func TestSummarizeTopics(t *testing.T) {
	summarizer := &fakeSummarizer{}
	digest := SummarizeTopics(context.Background(), summarizer, sampleResult(), nil)

	if len(digest.Topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(digest.Topics))
	}
	if digest.RunID != "run-1" {
		t.Errorf("digest should carry the run id, got %q", digest.RunID)
	}
	if digest.Topics[0].ClusterID != 2 || digest.Topics[0].Summary.Headline != "About Budget lead" {
		t.Errorf("topics should keep the clustering order, got %+v", digest.Topics[0])
	}
	if digest.Topics[1].Summary.Summary != "2 articles" || len(digest.Topics[1].Articles) != 2 {
		t.Errorf("unexpected storm topic %+v", digest.Topics[1])
	}

	// two topics plus the overview of their leads
	if len(summarizer.inputs) != 3 {
		t.Fatalf("expected 3 model calls, got %d", len(summarizer.inputs))
	}
	overview := summarizer.inputs[2]
	if !strings.Contains(overview, "Budget lead") || !strings.Contains(overview, "Storm lead") || strings.Contains(overview, "Storm follow") {
		t.Errorf("overview should cover only representatives: %q", overview)
	}
	if digest.Overview != "2 articles" {
		t.Errorf("overview = %q", digest.Overview)
	}
}

func TestSummarizeTopicsFallback(t *testing.T) {
	summarizer := &fakeSummarizer{fail: func(articles string) bool {
		return strings.HasPrefix(articles, "### Storm lead")
	}}
	digest := SummarizeTopics(context.Background(), summarizer, sampleResult(), nil)
	if len(digest.Topics) != 2 {
		t.Fatalf("a failed summary should not drop the topic, got %d topics", len(digest.Topics))
	}
	if got := digest.Topics[1].Summary; got.Headline != "Storm lead" || got.Summary != "" {
		t.Errorf("expected the lead headline as fallback, got %+v", got)
	}
}

func TestSummarySchema(t *testing.T) {
	schema, err := summarySchema()
	if err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(schema)
	for _, want := range []string{`"headline"`, `"key_points"`, `"additionalProperties":false`, `"type":"object"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("schema %s is missing %s", data, want)
		}
	}
}

func TestSummaryPreferencesPrompt(t *testing.T) {
	prompt := DefaultSummaryPreferences.SystemPrompt()
	for _, want := range []string{"triple hashtags", "a three sentence summary", "Keep the tone formal.", "highlight summary"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("default prompt is missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "jargon") {
		t.Error("default prompt should not restrict jargon")
	}

	custom := SummaryPreferences{Length: "long", Tone: "analytical", Format: "bullets", PlainLanguage: true}.SystemPrompt()
	for _, want := range []string{"two paragraphs", "Keep the tone analytical.", "bullet points", "avoid jargon"} {
		if !strings.Contains(custom, want) {
			t.Errorf("custom prompt is missing %q:\n%s", want, custom)
		}
	}

	unknown := SummaryPreferences{Length: "epic", Tone: "angry", Format: "poem"}.SystemPrompt()
	if unknown != prompt {
		t.Errorf("unknown preferences should fall back to the defaults:\n%s", unknown)
	}
}

func TestOpenAISummarizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Model          string `json:"model"`
			ResponseFormat struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		if err := json.Unmarshal(body, &req); err != nil || req.ResponseFormat.Type != "json_schema" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if !strings.Contains(string(body), "Keep the tone conversational.") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		content, _ := json.Marshal(TopicSummary{Headline: "Storm", Summary: "A storm.", KeyPoints: []string{"rain"}})
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": string(content)},
			}},
		})
	}))
	defer srv.Close()

	prefs := DefaultSummaryPreferences
	prefs.Tone = "conversational"
	summarizer, err := NewOpenAISummarizer("test-key", srv.URL+"/", "test-model", prefs)
	if err != nil {
		t.Fatal(err)
	}
	got, err := summarizer.Summarize(context.Background(), "### Storm ###\nrain")
	if err != nil {
		t.Fatal(err)
	}
	if got.Headline != "Storm" || got.Summary != "A storm." || len(got.KeyPoints) != 1 {
		t.Errorf("unexpected summary %+v", got)
	}

	if _, err := NewOpenAISummarizer("", "", "", DefaultSummaryPreferences); err == nil {
		t.Error("expected an error without an API key")
	}
}
