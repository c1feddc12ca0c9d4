package bitewise

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultNewsAPIBaseURL is the public NewsAPI endpoint.
const DefaultNewsAPIBaseURL = "https://newsapi.org"

// DailyCategories are the top-headline categories fetched for the daily topics.
var DailyCategories = []string{"general", "business", "entertainment", "health", "science", "sports", "technology"}

// NewsAPIClient talks to the NewsAPI v2 endpoints.
type NewsAPIClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retry   RetryPolicy
	log     *zap.SugaredLogger
}

// NewNewsAPIClient returns a client for baseURL (DefaultNewsAPIBaseURL when empty).
func NewNewsAPIClient(baseURL, apiKey string, log *zap.SugaredLogger) *NewsAPIClient {
	if baseURL == "" {
		baseURL = DefaultNewsAPIBaseURL
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &NewsAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   DefaultRetryPolicy,
		log:     log,
	}
}

// EverythingQuery are the /v2/everything parameters.
type EverythingQuery struct {
	Query          string
	From           time.Time
	Language       string
	SortBy         string
	Domains        []string
	ExcludeDomains []string
	PageSize       int
	Page           int
}

// HeadlinesQuery are the /v2/top-headlines parameters. The API does not
// accept Sources together with Country or Category.
type HeadlinesQuery struct {
	Query    string
	Country  string
	Category string
	Sources  []string
	PageSize int
	Page     int
}

type newsAPIResponse struct {
	Status       string            `json:"status"`
	TotalResults int               `json:"totalResults"`
	Articles     []SearchAPIRecord `json:"articles"`
	Code         string            `json:"code"`
	Message      string            `json:"message"`
}

// Everything searches all indexed articles.
func (c *NewsAPIClient) Everything(ctx context.Context, q EverythingQuery) (Batch, error) {
	params := url.Values{}
	setParam(params, "q", q.Query)
	if !q.From.IsZero() {
		params.Set("from", q.From.Format("2006-01-02"))
	}
	setParam(params, "language", q.Language)
	setParam(params, "sortBy", q.SortBy)
	setParam(params, "domains", strings.Join(q.Domains, ","))
	setParam(params, "excludeDomains", strings.Join(q.ExcludeDomains, ","))
	setPaging(params, q.PageSize, q.Page)
	return c.get(ctx, "/v2/everything", params)
}

// TopHeadlines returns breaking headlines.
func (c *NewsAPIClient) TopHeadlines(ctx context.Context, q HeadlinesQuery) (Batch, error) {
	params := url.Values{}
	setParam(params, "q", q.Query)
	setParam(params, "country", q.Country)
	setParam(params, "category", q.Category)
	setParam(params, "sources", strings.Join(q.Sources, ","))
	setPaging(params, q.PageSize, q.Page)
	return c.get(ctx, "/v2/top-headlines", params)
}

func (c *NewsAPIClient) get(ctx context.Context, path string, params url.Values) (Batch, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()
	body, err := doWithRetry(ctx, c.client, c.retry, c.log, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}

	var result newsAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("news API error %s: %s", result.Code, result.Message)
	}

	batch := make(Batch, len(result.Articles))
	for i, a := range result.Articles {
		batch[i] = a
	}
	return batch, nil
}

func setParam(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

func setPaging(params url.Values, pageSize, page int) {
	if pageSize <= 0 {
		pageSize = 100
	}
	if page <= 0 {
		page = 1
	}
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("page", strconv.Itoa(page))
}
