package news

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/marketscribe/sentisheet/internal/infra"
	"github.com/marketscribe/sentisheet/pkg/models"
)

const (
	polygonBaseURL = "https://api.polygon.io"

	// Wait applied to a 429 that carries no Retry-After header.
	defaultRetryFallback = 10 * time.Second
)

// Polygon fetches ticker news from the Polygon (now Massive) news v2
// API. Every outbound call, including the single bounded retry after a
// 429, first waits for a slot on the shared pace limiter.
type Polygon struct {
	apiKey   string
	baseURL  string
	limiter  *infra.PaceLimiter
	cache    *infra.Cache
	fallback time.Duration
	sleep    func(context.Context, time.Duration) error

	warnedNoKey bool
}

// PolygonOption configures the Polygon backend.
type PolygonOption func(*Polygon)

// WithBaseURL points the backend at a different API host.
func WithBaseURL(u string) PolygonOption {
	return func(p *Polygon) { p.baseURL = u }
}

// WithRetryFallback sets the wait used when a 429 carries no
// Retry-After header.
func WithRetryFallback(d time.Duration) PolygonOption {
	return func(p *Polygon) {
		if d > 0 {
			p.fallback = d
		}
	}
}

// NewPolygon creates the Polygon news backend. An empty apiKey is
// allowed: fetches are then skipped, not failed.
func NewPolygon(apiKey string, limiter *infra.PaceLimiter, opts ...PolygonOption) *Polygon {
	p := &Polygon{
		apiKey:   apiKey,
		baseURL:  polygonBaseURL,
		limiter:  limiter,
		cache:    infra.NewCache(10 * time.Minute),
		fallback: defaultRetryFallback,
		sleep:    infra.SleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the backend name.
func (p *Polygon) Name() string { return "polygon" }

// FetchNews returns up to limit recent articles for ticker, ordered as
// the API serves them. On a 429 it waits the server-advised delay (or
// the configured fallback) and retries exactly once; a second failure is
// returned to the caller as a ticker-local error.
func (p *Polygon) FetchNews(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error) {
	if p.apiKey == "" {
		if !p.warnedNoKey {
			log.Printf("news: no Polygon/Massive API key configured; skipping news fetches")
			p.warnedNoKey = true
		}
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultArticleLimit
	}

	cacheKey := fmt.Sprintf("polygon:%s:%d", ticker, limit)
	if cached, ok := p.cache.Get(cacheKey); ok {
		return cached.([]models.NewsItem), nil
	}

	items, err := p.fetchOnce(ctx, ticker, limit)

	var httpErr *infra.ErrHTTP
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		wait := httpErr.RetryAfter
		if wait <= 0 {
			wait = p.fallback
		}
		log.Printf("news: %s: throttled by API, retrying once in %s", ticker, wait)
		if serr := p.sleep(ctx, wait); serr != nil {
			return nil, serr
		}
		items, err = p.fetchOnce(ctx, ticker, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("fetch news for %s: %w", ticker, err)
	}

	p.cache.Set(cacheKey, items)
	return items, nil
}

// fetchOnce performs a single paced request against the news endpoint.
func (p *Polygon) fetchOnce(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/v2/reference/news?ticker=%s&limit=%d&apiKey=%s",
		p.baseURL, url.QueryEscape(ticker), limit, url.QueryEscape(p.apiKey))

	var resp polygonNewsResponse
	if err := fetchJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	items := make([]models.NewsItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(items) == limit {
			break
		}
		item := models.NewsItem{
			Headline: r.Title,
			Summary:  r.Description,
			URL:      r.ArticleURL,
			Source:   r.Publisher.Name,
		}
		if t, err := time.Parse(time.RFC3339, r.PublishedUTC); err == nil {
			item.PublishedAt = t
		}
		items = append(items, item)
	}
	return items, nil
}

// polygonNewsResponse mirrors the /v2/reference/news payload.
type polygonNewsResponse struct {
	Status  string `json:"status"`
	Count   int    `json:"count"`
	Results []struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		ArticleURL   string `json:"article_url"`
		PublishedUTC string `json:"published_utc"`
		Publisher    struct {
			Name string `json:"name"`
		} `json:"publisher"`
	} `json:"results"`
}
