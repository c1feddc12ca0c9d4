package bitewise

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/report.html
var htmlTemplate string

//go:embed templates/styles.css
var cssStyles string

const reportTitle = "Today's Topics"

var biasLabels = []string{"left", "left-center", "center", "right-center", "right", "unrated"}

var readTimeLabels = []string{"under 2 min", "2-7 min", "over 7 min"}

func (a *App) generateReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-report",
		Short: "Generate the topic report in markdown and HTML",
		Run: func(cmd *cobra.Command, args []string) {
			if err := a.GenerateReport(time.Now()); err != nil {
				a.Log.Errorf("Failed to generate report: %v", err)
			}
		},
	}
}

// GenerateReport renders the saved topic digest to report.md and report.html
// in the data directory.
func (a *App) GenerateReport(now time.Time) error {
	var digest TopicDigest
	if err := LoadJSON(a.path(summariesFile), &digest); err != nil {
		return err
	}

	report := FormatReport(digest, now)
	if err := os.WriteFile(a.path(reportMarkdown), []byte(report), 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	a.Log.Infof("Report generated: %s", a.path(reportMarkdown))

	htmlContent, err := RenderHTML(report, now)
	if err != nil {
		return err
	}
	if err := os.WriteFile(a.path(reportHTML), []byte(htmlContent), 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}
	a.Log.Infof("HTML report generated: %s", a.path(reportHTML))
	return nil
}

// FormatReport converts a topic digest to markdown. The title and date are
// left to the page template.
func FormatReport(digest TopicDigest, now time.Time) string {
	var b strings.Builder
	if len(digest.Topics) == 0 {
		b.WriteString("No topics found for today.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "*%d topics on %s*\n\n", len(digest.Topics), now.Format("2 January 2006"))
	if digest.Overview != "" {
		fmt.Fprintf(&b, "%s\n\n", digest.Overview)
	}

	for i, topic := range digest.Topics {
		headline := topic.Summary.Headline
		if headline == "" {
			headline = strings.Join(topic.Keywords, ", ")
		}
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, headline)
		if topic.Summary.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", topic.Summary.Summary)
		}
		for _, point := range topic.Summary.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", point)
		}
		if len(topic.Summary.KeyPoints) > 0 {
			b.WriteString("\n")
		}

		b.WriteString("**Coverage:**\n\n")
		for _, article := range topic.Articles {
			fmt.Fprintf(&b, "- [%s](%s) %s\n", escapeLinkText(article.Title), article.URL, articleNote(article))
		}
		b.WriteString("\n---\n\n")
	}
	return b.String()
}

// articleNote describes source, bias and read time of an article.
func articleNote(article EnrichedArticle) string {
	parts := []string{article.Source}
	if article.BiasRating != nil && *article.BiasRating >= 0 && *article.BiasRating < len(biasLabels) {
		parts = append(parts, biasLabels[*article.BiasRating])
	}
	if article.ReadTime != nil && *article.ReadTime >= 0 && *article.ReadTime < len(readTimeLabels) {
		parts = append(parts, readTimeLabels[*article.ReadTime])
	}
	note := "(" + strings.Join(parts, ", ") + ")"
	if article.Representative {
		note = "⭐ " + note
	}
	return note
}

func escapeLinkText(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}

// RenderHTML generates a complete HTML document with embedded CSS
func RenderHTML(markdownContent string, now time.Time) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdownContent), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML template: %w", err)
	}

	data := struct {
		Title string
		Date  string
		Body  template.HTML
		CSS   template.CSS
	}{
		Title: reportTitle,
		Date:  now.Format("2 January 2006"),
		Body:  template.HTML(buf.String()),
		CSS:   template.CSS(cssStyles),
	}

	var result bytes.Buffer
	if err := tmpl.Execute(&result, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return result.String(), nil
}
