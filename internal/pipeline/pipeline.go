// Package pipeline orchestrates the per-ticker fetch → snippet → score
// flow and the single batched write-back at the end of the run.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/marketscribe/sentisheet/internal/news"
	"github.com/marketscribe/sentisheet/internal/sentiment"
	"github.com/marketscribe/sentisheet/pkg/models"
)

// RowStore abstracts the spreadsheet used as the job's input and output.
type RowStore interface {
	// ListTickers returns the ticker rows below the header, in sheet
	// order, truncated to max when max > 0.
	ListTickers(ctx context.Context, max int) ([]models.TickerRow, error)

	// WriteResults performs one batched write covering every listed
	// row; empty results leave their cells blank.
	WriteResults(ctx context.Context, rows []models.TickerRow, results map[int]models.SentimentResult) error
}

// Processor runs the batch job over a row store and a news backend.
// Tickers are processed strictly sequentially: the news backends share
// one pace limiter, and interleaved fetches would break its budget.
type Processor struct {
	store  RowStore
	source news.Source
	limit  int // articles requested per ticker
	max    int // ticker cap, 0 = unlimited
	now    func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithArticleLimit caps the number of articles requested per ticker.
func WithArticleLimit(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.limit = n
		}
	}
}

// WithMaxTickers caps the number of ticker rows processed per run.
func WithMaxTickers(n int) Option {
	return func(p *Processor) { p.max = n }
}

// WithClock overrides the clock used for computed-at timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// New creates a Processor.
func New(store RowStore, source news.Source, opts ...Option) *Processor {
	p := &Processor{
		store:  store,
		source: source,
		limit:  news.DefaultArticleLimit,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process computes the sentiment result for a single ticker. Fetch
// failures are ticker-local: they are logged and yield an empty result,
// never an error.
func (p *Processor) Process(ctx context.Context, ticker string) models.SentimentResult {
	items, err := p.source.FetchNews(ctx, ticker, p.limit)
	if err != nil {
		log.Printf("pipeline: %s: %v", ticker, err)
		return models.SentimentResult{}
	}

	snippets := sentiment.Snippets(items)
	if len(snippets) == 0 {
		return models.SentimentResult{}
	}

	scores := make([]float64, len(snippets))
	for i, s := range snippets {
		scores[i] = sentiment.Score(s)
	}

	return models.SentimentResult{
		AvgScore:     sentiment.Aggregate(scores),
		ArticleCount: len(scores),
		ComputedAt:   p.now().UTC(),
	}
}

// Run processes every ticker row in sheet order and writes all results
// back in one batched update. Ticker-local failures leave blank rows;
// only listing or writing the sheet itself can fail the run.
func (p *Processor) Run(ctx context.Context) error {
	rows, err := p.store.ListTickers(ctx, p.max)
	if err != nil {
		return fmt.Errorf("list tickers: %w", err)
	}
	if len(rows) == 0 {
		log.Printf("pipeline: no tickers below the header row; nothing to do")
		return nil
	}

	log.Printf("pipeline: processing %d tickers (rows %d-%d) via %s",
		len(rows), rows[0].Row, rows[len(rows)-1].Row, p.source.Name())

	results := make(map[int]models.SentimentResult, len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if row.Ticker == "" {
			log.Printf("pipeline: row %d: empty ticker, skipping", row.Row)
			continue
		}

		res := p.Process(ctx, row.Ticker)
		if res.Empty() {
			log.Printf("pipeline: row %d: %s: no usable news", row.Row, row.Ticker)
		} else {
			log.Printf("pipeline: row %d: %s: avg sentiment %.4f across %d articles",
				row.Row, row.Ticker, res.AvgScore, res.ArticleCount)
		}
		results[row.Row] = res
	}

	if err := p.store.WriteResults(ctx, rows, results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
