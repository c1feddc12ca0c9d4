package bitewise

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// maxArticleChars bounds each article body sent to the model.
const maxArticleChars = 1500

// TopicSummary is the structured response of the summarization model.
type TopicSummary struct {
	Headline  string   `json:"headline" jsonschema:"description=Short neutral headline naming the story"`
	Summary   string   `json:"summary" jsonschema:"description=Overview of what the articles report"`
	KeyPoints []string `json:"key_points" jsonschema:"description=Up to five short facts shared by the articles"`
}

// SummarizedTopic is one topic with its summary and articles.
type SummarizedTopic struct {
	ClusterID int               `json:"cluster_id"`
	Keywords  []string          `json:"keywords"`
	Summary   TopicSummary      `json:"summary"`
	Articles  []EnrichedArticle `json:"articles"`
}

// TopicDigest is the summarized output of a clustering run.
type TopicDigest struct {
	// RunID is the id of the clustering run the digest was made from.
	RunID    string            `json:"run_id,omitempty"`
	Overview string            `json:"overview"`
	Topics   []SummarizedTopic `json:"topics"`
}

// Summarizer turns formatted articles into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, articles string) (TopicSummary, error)
}

// SummaryPreferences shape the summaries the model writes. Unknown values fall
// back to the defaults.
type SummaryPreferences struct {
	// Length is short, medium or long.
	Length string `yaml:"length"`
	// Tone is formal, conversational, technical or analytical.
	Tone string `yaml:"tone"`
	// Format is highlights, bullets, analysis or quotes.
	Format string `yaml:"format"`
	// PlainLanguage asks the model to avoid jargon.
	PlainLanguage bool `yaml:"plain_language"`
}

// DefaultSummaryPreferences ask for a short formal highlight summary.
var DefaultSummaryPreferences = SummaryPreferences{
	Length: "short",
	Tone:   "formal",
	Format: "highlights",
}

var summaryLengths = map[string]string{
	"short":  "a three sentence summary",
	"medium": "a five sentence summary",
	"long":   "a summary of two paragraphs",
}

var summaryTones = map[string]bool{"formal": true, "conversational": true, "technical": true, "analytical": true}

var summaryFormats = map[string]string{
	"highlights": "Write the summary as a highlight summary.",
	"bullets":    "Write the key points as concise bullet points covering the key content and understandings.",
	"analysis":   "Write the summary as a thoughtful analysis.",
	"quotes":     "Build the summary around direct quotations from the articles and comment on them.",
}

// SystemPrompt returns the instructions sent with every summary request.
func (p SummaryPreferences) SystemPrompt() string {
	length, ok := summaryLengths[p.Length]
	if !ok {
		length = summaryLengths[DefaultSummaryPreferences.Length]
	}
	tone := p.Tone
	if !summaryTones[tone] {
		tone = DefaultSummaryPreferences.Tone
	}
	format, ok := summaryFormats[p.Format]
	if !ok {
		format = summaryFormats[DefaultSummaryPreferences.Format]
	}

	var b strings.Builder
	b.WriteString(summaryPromptHeader)
	fmt.Fprintf(&b, "\n\nWrite a short neutral headline, %s and up to five key points. Keep the tone %s. %s", length, tone, format)
	if p.PlainLanguage {
		b.WriteString(" Use clear, simple language and avoid jargon.")
	}
	b.WriteString(" Cover what the articles agree on and do not reference specific articles, titles or sources.")
	return b.String()
}

// OpenAISummarizer summarizes with a chat model and structured output.
type OpenAISummarizer struct {
	client openai.Client
	model  string
	schema any
	prompt string
}

// NewOpenAISummarizer creates the client and the response schema.
func NewOpenAISummarizer(apiKey, baseURL, model string, prefs SummaryPreferences) (*OpenAISummarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key")
	}
	if model == "" {
		model = string(openai.ChatModelGPT4_1)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	schema, err := summarySchema()
	if err != nil {
		return nil, err
	}
	return &OpenAISummarizer{
		client: openai.NewClient(opts...),
		model:  model,
		schema: schema,
		prompt: prefs.SystemPrompt(),
	}, nil
}

func summarySchema() (any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaObj := reflector.Reflect(&TopicSummary{})
	if schemaObj.Type == "" {
		schemaObj.Type = "object"
	}

	schemaBytes, err := json.Marshal(schemaObj)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schema any
	if err := json.Unmarshal(schemaBytes, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	return schema, nil
}

const summaryPromptHeader = `You summarize news coverage. The articles are formatted as follows:

Each article begins with a title enclosed in triple hashtags (###), followed by its content. Articles are separated by two newlines. The first articles are the most representative of the story.`

// Summarize asks the model for a TopicSummary of the formatted articles.
func (s *OpenAISummarizer) Summarize(ctx context.Context, articles string) (TopicSummary, error) {
	chatCompletion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(s.prompt),
			openai.UserMessage(articles),
		},
		Model:       openai.ChatModel(s.model),
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "topic_summary",
					Description: openai.String("Summarize the articles of one news topic"),
					Schema:      s.schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return TopicSummary{}, fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	if len(chatCompletion.Choices) == 0 || chatCompletion.Choices[0].Message.Content == "" {
		return TopicSummary{}, fmt.Errorf("no content in summary response")
	}

	var summary TopicSummary
	if err := json.Unmarshal([]byte(chatCompletion.Choices[0].Message.Content), &summary); err != nil {
		return TopicSummary{}, fmt.Errorf("failed to parse summary: %w", err)
	}
	return summary, nil
}

// FormatArticles renders articles in the "### title ###" layout the prompt
// describes, in the order given.
func FormatArticles(articles []EnrichedArticle) string {
	var b strings.Builder
	for i, article := range articles {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "### %s ###\n%s", article.Title, truncateRunes(article.Content, maxArticleChars))
	}
	return b.String()
}

// SummarizeTopics summarizes every topic of a clustering run and writes an
// overview from the representative articles of all topics. A topic whose
// summary fails falls back to its lead headline.
func SummarizeTopics(ctx context.Context, summarizer Summarizer, result *Result, log *zap.SugaredLogger) TopicDigest {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	digest := TopicDigest{RunID: result.RunID}
	var leads []EnrichedArticle
	for _, topic := range result.Topics {
		articles := result.ClusteredArticles[topic.ID]
		if len(articles) == 0 {
			continue
		}

		summary, err := summarizer.Summarize(ctx, FormatArticles(articles))
		if err != nil {
			log.Warnf("Failed to summarize topic %d: %v", topic.ID, err)
			summary = TopicSummary{Headline: articles[0].Title}
		}
		digest.Topics = append(digest.Topics, SummarizedTopic{
			ClusterID: topic.ID,
			Keywords:  topic.Keywords,
			Summary:   summary,
			Articles:  articles,
		})

		for _, article := range articles {
			if article.Representative {
				leads = append(leads, article)
			}
		}
		log.Infof("Summarized topic %d: %s", topic.ID, summary.Headline)
	}

	if len(leads) > 0 {
		overview, err := summarizer.Summarize(ctx, FormatArticles(leads))
		if err != nil {
			log.Warnf("Failed to write overview: %v", err)
		} else {
			digest.Overview = overview.Summary
		}
	}
	return digest
}

func (a *App) summarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize",
		Short: "Summarize the clustered topics",
		Run: func(cmd *cobra.Command, args []string) {
			if err := a.Summarize(cmd.Context()); err != nil {
				a.Log.Errorf("Failed to summarize topics: %v", err)
			}
		},
	}
}

// Summarize reads the topic clusters and saves their digest.
func (a *App) Summarize(ctx context.Context) error {
	var result Result
	if err := LoadJSON(a.path(topicsFile), &result); err != nil {
		return err
	}
	summarizer, err := NewOpenAISummarizer(a.Config.OpenAIAPIKey, a.Config.OpenAIBaseURL, a.Config.ChatModel, a.Settings.Summary)
	if err != nil {
		return err
	}
	digest := SummarizeTopics(ctx, summarizer, &result, a.Log)
	if err := SaveJSON(a.path(summariesFile), digest); err != nil {
		return err
	}
	a.Log.Infof("Saved %d topic summaries to %s", len(digest.Topics), a.path(summariesFile))
	return nil
}
