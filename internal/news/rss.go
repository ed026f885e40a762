package news

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/marketscribe/sentisheet/internal/infra"
	"github.com/marketscribe/sentisheet/pkg/models"
)

// Feed is a public market-news RSS feed.
type Feed struct {
	Name string
	URL  string
}

// DefaultFeeds lists the market feeds scanned by the keyless backend.
var DefaultFeeds = []Feed{
	{Name: "Yahoo Finance", URL: "https://finance.yahoo.com/news/rssindex"},
	{Name: "CNBC Markets", URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
	{Name: "MarketWatch", URL: "https://feeds.content.dowjones.io/public/rss/mw_topstories"},
}

// RSS is the keyless fallback backend: it scans public market feeds once
// per run (cached) and filters items that mention the ticker.
type RSS struct {
	feeds   []Feed
	parser  *gofeed.Parser
	cache   *infra.Cache
	limiter *infra.PaceLimiter
}

// NewRSS creates the RSS backend with the default market feeds.
func NewRSS(limiter *infra.PaceLimiter) *RSS {
	return NewRSSWithFeeds(limiter, DefaultFeeds)
}

// NewRSSWithFeeds creates the RSS backend with custom feeds.
func NewRSSWithFeeds(limiter *infra.PaceLimiter, feeds []Feed) *RSS {
	return &RSS{
		feeds:   feeds,
		parser:  gofeed.NewParser(),
		cache:   infra.NewCache(10 * time.Minute),
		limiter: limiter,
	}
}

// Name returns the backend name.
func (n *RSS) Name() string { return "rss" }

// FetchNews filters the aggregated market feed for items mentioning the
// ticker, newest first, truncated to limit.
func (n *RSS) FetchNews(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error) {
	if limit <= 0 {
		limit = DefaultArticleLimit
	}

	all, err := n.marketNews(ctx)
	if err != nil {
		return nil, err
	}

	keywords := tickerKeywords(ticker)
	var filtered []models.NewsItem
	for _, item := range all {
		if matchesAny(item.Headline+" "+item.Summary, keywords) {
			filtered = append(filtered, item)
		}
	}

	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// marketNews fetches all configured feeds concurrently and caches the
// merged result for the rest of the run.
func (n *RSS) marketNews(ctx context.Context) ([]models.NewsItem, error) {
	const cacheKey = "rss:market"
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached.([]models.NewsItem), nil
	}

	var (
		mu  sync.Mutex
		all []models.NewsItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, feed := range n.feeds {
		feed := feed
		g.Go(func() error {
			items, err := n.fetchFeed(gctx, feed)
			if err != nil {
				// Non-critical: a dead feed must not sink the scan.
				log.Printf("news: %v", err)
				return nil
			}
			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortByDate(all)
	n.cache.Set(cacheKey, all)
	return all, nil
}

// fetchFeed parses a single RSS feed into news items.
func (n *RSS) fetchFeed(ctx context.Context, feed Feed) ([]models.NewsItem, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	parsed, err := n.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", feed.Name, err)
	}

	items := make([]models.NewsItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		item := models.NewsItem{
			Headline: it.Title,
			Summary:  cleanHTML(it.Description),
			URL:      it.Link,
			Source:   feed.Name,
		}
		if it.PublishedParsed != nil {
			item.PublishedAt = *it.PublishedParsed
		}
		items = append(items, item)
	}
	return items, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// companyNames maps tickers to the names they usually appear under in
// headlines.
var companyNames = map[string][]string{
	"AAPL":  {"apple"},
	"MSFT":  {"microsoft"},
	"GOOGL": {"google", "alphabet"},
	"GOOG":  {"google", "alphabet"},
	"AMZN":  {"amazon"},
	"META":  {"meta platforms", "facebook"},
	"NVDA":  {"nvidia"},
	"TSLA":  {"tesla"},
	"NFLX":  {"netflix"},
	"AMD":   {"advanced micro devices"},
	"INTC":  {"intel"},
	"JPM":   {"jpmorgan", "jp morgan"},
	"BAC":   {"bank of america"},
	"WMT":   {"walmart"},
	"DIS":   {"disney"},
	"BA":    {"boeing"},
	"XOM":   {"exxon"},
	"CVX":   {"chevron"},
}

// tickerKeywords returns the search keywords for a ticker: the raw
// symbol, its cashtag, and any known company names.
func tickerKeywords(ticker string) []string {
	t := strings.ToLower(strings.TrimSpace(ticker))
	keywords := []string{t, "$" + t}
	for _, name := range companyNames[strings.ToUpper(t)] {
		keywords = append(keywords, name)
	}
	return keywords
}

// matchesAny checks if text contains any of the keywords as a whole
// word (case-insensitive). Substring matches alone would make short
// tickers like "A" or "BA" match everything.
func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	words := tokenize(lower)
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}

	for _, kw := range keywords {
		if strings.ContainsAny(kw, " $") {
			if strings.Contains(lower, kw) {
				return true
			}
			continue
		}
		if wordSet[kw] {
			return true
		}
	}
	return false
}

// tokenize splits lowercase text into alphanumeric words.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// sortByDate sorts items newest first. Insertion sort is fine for the
// few hundred items a feed scan yields.
func sortByDate(items []models.NewsItem) {
	for i := 1; i < len(items); i++ {
		key := items[i]
		j := i - 1
		for j >= 0 && items[j].PublishedAt.Before(key.PublishedAt) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
}
