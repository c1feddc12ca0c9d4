package bitewise

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FeedFetcher turns outlet RSS and Atom feeds into crawled records.
type FeedFetcher struct {
	timeout     time.Duration
	concurrency int
	log         *zap.SugaredLogger
}

// NewFeedFetcher bounds each feed by timeout.
func NewFeedFetcher(timeout time.Duration, concurrency int, log *zap.SugaredLogger) *FeedFetcher {
	if timeout <= 0 {
		timeout = DefaultCrawlerConfig.SourceTimeout
	}
	if concurrency <= 0 {
		concurrency = DefaultCrawlerConfig.Concurrency
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &FeedFetcher{timeout: timeout, concurrency: concurrency, log: log}
}

// FetchAll reads every feed concurrently and returns one batch per source in
// source order. Failed feeds contribute an empty batch.
func (f *FeedFetcher) FetchAll(ctx context.Context, sources []Source) []Batch {
	batches := make([]Batch, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			batch, err := f.Fetch(gctx, src)
			if err != nil {
				f.log.Warnf("Error parsing feed %s: %v", src.Feed, err)
				return nil
			}
			batches[i] = batch
			f.log.Infof("Loaded %d items from %s", len(batch), src.Feed)
			return nil
		})
	}
	_ = g.Wait()
	return batches
}

// Fetch reads the feed of one source.
func (f *FeedFetcher) Fetch(ctx context.Context, src Source) (Batch, error) {
	if src.Feed == "" {
		return nil, errors.New("source has no feed")
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	feed, err := gofeed.NewParser().ParseURLWithContext(src.Feed, ctx)
	if err != nil {
		return nil, err
	}

	batch := make(Batch, 0, len(feed.Items))
	for _, item := range feed.Items {
		batch = append(batch, feedRecord(src, item))
	}
	return batch, nil
}

func feedRecord(src Source, item *gofeed.Item) CrawledRecord {
	body := item.Content
	if strings.TrimSpace(body) == "" {
		body = item.Description
	}
	source := src.URL
	if source == "" {
		source = src.Name
	}
	record := CrawledRecord{
		URL:     item.Link,
		Title:   item.Title,
		Source:  source,
		Content: htmlText(body),
		Time:    item.Published,
	}
	if item.PublishedParsed != nil {
		record.Time = item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	if item.Image != nil {
		record.ImageURL = item.Image.URL
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			record.Authors = append(record.Authors, author.Name)
		}
	}
	return record
}

// htmlText returns the visible text of an HTML fragment.
func htmlText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
