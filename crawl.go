package bitewise

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CrawlerConfig tunes the front page crawler.
type CrawlerConfig struct {
	UserAgent string
	// MaxLinks is the number of articles taken from one front page.
	MaxLinks int
	// MinExtraChars is how much longer than the seed an article url must be.
	MinExtraChars int
	// MinTitleChars is the shortest anchor text taken as a headline.
	MinTitleChars int
	// MinDelay is the pause between article requests when robots.txt asks for less.
	MinDelay time.Duration
	// SourceTimeout bounds the whole crawl of one source.
	SourceTimeout time.Duration
	Concurrency   int
}

// DefaultCrawlerConfig holds the per-seed link limits and timeouts of a crawl.
var DefaultCrawlerConfig = CrawlerConfig{
	UserAgent:     "minicrawl",
	MaxLinks:      30,
	MinExtraChars: 20,
	MinTitleChars: 20,
	MinDelay:      500 * time.Millisecond,
	SourceTimeout: 45 * time.Second,
	Concurrency:   8,
}

// Crawler collects articles linked from outlet front pages.
type Crawler struct {
	cfg    CrawlerConfig
	client *http.Client
	log    *zap.SugaredLogger
}

// NewCrawler creates a crawler. Zero fields of cfg take the defaults, except
// MinDelay which may be zero.
func NewCrawler(cfg CrawlerConfig, log *zap.SugaredLogger) *Crawler {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultCrawlerConfig.UserAgent
	}
	if cfg.MaxLinks <= 0 {
		cfg.MaxLinks = DefaultCrawlerConfig.MaxLinks
	}
	if cfg.MinExtraChars <= 0 {
		cfg.MinExtraChars = DefaultCrawlerConfig.MinExtraChars
	}
	if cfg.MinTitleChars <= 0 {
		cfg.MinTitleChars = DefaultCrawlerConfig.MinTitleChars
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = DefaultCrawlerConfig.SourceTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultCrawlerConfig.Concurrency
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Crawler{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log,
	}
}

// Crawl crawls every seed concurrently and returns one batch per seed, in seed
// order. A seed that fails or runs out of time contributes an empty batch.
func (c *Crawler) Crawl(ctx context.Context, seeds []Source) []Batch {
	batches := make([]Batch, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i, seed := range seeds {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, c.cfg.SourceTimeout)
			defer cancel()

			batch, err := c.CrawlSource(sctx, seed)
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				c.log.Warnf("Timed out crawling %s, dropping its articles", seed.URL)
			case err != nil:
				c.log.Warnf("Failed to crawl %s: %v", seed.URL, err)
			default:
				batches[i] = batch
				c.log.Infof("Crawled %d articles from %s", len(batch), seed.URL)
			}
			return nil
		})
	}
	_ = g.Wait()
	return batches
}

// CrawlSource reads the front page of seed and fetches every article it links.
func (c *Crawler) CrawlSource(ctx context.Context, seed Source) (Batch, error) {
	base := strings.TrimRight(seed.URL, "/") + "/"
	robots := fetchRobots(ctx, c.client, base, c.cfg.UserAgent)
	front := EvaluateRobots(robots, base, base, c.cfg.UserAgent)
	if !front.Allowed {
		c.log.Infof("robots.txt disallows %s", base)
		return nil, nil
	}
	delay := max(front.CrawlDelay, c.cfg.MinDelay)

	doc, err := c.fetchDocument(ctx, base)
	if err != nil {
		return nil, err
	}

	var batch Batch
	for i, link := range c.extractLinks(doc, base) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !EvaluateRobots(robots, base, link.url, c.cfg.UserAgent).Allowed {
			continue
		}
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		record, err := c.fetchArticle(ctx, link.url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Debugf("Failed to fetch article %s: %v", link.url, err)
			record = CrawledRecord{URL: link.url}
		}
		record.Title = link.title
		record.Source = base
		batch = append(batch, record)
	}
	return batch, nil
}

type articleLink struct {
	url   string
	title string
}

// extractLinks returns the article-looking links of a front page: urls at
// least MinExtraChars longer than the seed with MinTitleChars of anchor text.
func (c *Crawler) extractLinks(doc *goquery.Document, base string) []articleLink {
	var links []articleLink
	seen := make(map[string]bool)
	root := strings.TrimRight(base, "/")
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if len(links) >= c.cfg.MaxLinks {
			return false
		}
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
			href = root + href
		}
		title := strings.Join(strings.Fields(a.Text()), " ")
		if len(href)-len(base) < c.cfg.MinExtraChars || utf8.RuneCountInString(title) < c.cfg.MinTitleChars {
			return true
		}
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			return true
		}
		if seen[href] {
			return true
		}
		seen[href] = true
		links = append(links, articleLink{url: href, title: title})
		return true
	})
	return links
}

// fetchArticle extracts the paragraph text and page metadata of an article.
func (c *Crawler) fetchArticle(ctx context.Context, url string) (CrawledRecord, error) {
	doc, err := c.fetchDocument(ctx, url)
	if err != nil {
		return CrawledRecord{}, err
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	record := CrawledRecord{
		URL:      url,
		Content:  strings.Join(paragraphs, " "),
		ImageURL: metaContent(doc, `meta[property="og:image"]`),
		Time:     metaContent(doc, `meta[property="article:published_time"]`),
	}
	if author := metaContent(doc, `meta[name="author"]`); author != "" {
		record.Authors = splitAuthors(author)
	}
	return record, nil
}

func (c *Crawler) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	return doc, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}
