package bitewise

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleRobots = `
# sample
User-agent: googlebot
Disallow: /

User-agent: *
Crawl-delay: 2
Disallow: /private
Allow: /

User-agent: minicrawl
Disallow: /news
`

func TestEvaluateRobots(t *testing.T) {
	base := "https://example.com/"
	tests := []struct {
		name    string
		url     string
		agent   string
		allowed bool
	}{
		{"wildcard allow", "https://example.com/news/today", "otherbot", true},
		{"wildcard disallow", "https://example.com/private/x", "otherbot", false},
		{"first match wins", "https://example.com/news/today", "minicrawl", true},
		{"specific agent", "https://example.com/anything", "googlebot", false},
		{"foreign url", "https://elsewhere.com/private", "otherbot", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateRobots(sampleRobots, base, tt.url, tt.agent)
			if got.Allowed != tt.allowed {
				t.Errorf("Allowed = %v, want %v", got.Allowed, tt.allowed)
			}
		})
	}

	if d := EvaluateRobots(sampleRobots, base, base, "otherbot"); d.CrawlDelay != 2*time.Second {
		t.Errorf("crawl delay = %v", d.CrawlDelay)
	}
	if d := EvaluateRobots("", base, base+"x", "minicrawl"); !d.Allowed || d.CrawlDelay != 0 {
		t.Errorf("empty robots.txt should allow everything, got %+v", d)
	}
}

func TestEvaluateRobotsIgnoresMalformedLines(t *testing.T) {
	body := "User-agent: *\nDisallow:\nDisallow private\nDisallow: relative/path\nCrawl-delay: soon\n"
	d := EvaluateRobots(body, "https://example.com", "https://example.com/relative/path", "bot")
	if !d.Allowed || d.CrawlDelay != 0 {
		t.Errorf("got %+v", d)
	}
}

func TestFetchRobots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" || r.UserAgent() != "minicrawl" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	}))
	defer srv.Close()

	body := fetchRobots(context.Background(), srv.Client(), srv.URL+"/", "minicrawl")
	if body == "" {
		t.Fatal("expected a robots.txt body")
	}
	if fetchRobots(context.Background(), srv.Client(), srv.URL, "otherbot") != "" {
		t.Error("a failed fetch should give an empty body")
	}
}
