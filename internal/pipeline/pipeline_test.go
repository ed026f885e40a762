package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/marketscribe/sentisheet/pkg/models"
)

// fakeSource serves canned items (or errors) per ticker.
type fakeSource struct {
	items   map[string][]models.NewsItem
	errs    map[string]error
	fetches []string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchNews(_ context.Context, ticker string, limit int) ([]models.NewsItem, error) {
	f.fetches = append(f.fetches, ticker)
	if err := f.errs[ticker]; err != nil {
		return nil, err
	}
	items := f.items[ticker]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// fakeStore records writes.
type fakeStore struct {
	rows       []models.TickerRow
	listErr    error
	writes     int
	lastRows   []models.TickerRow
	lastResult map[int]models.SentimentResult
}

func (f *fakeStore) ListTickers(_ context.Context, max int) ([]models.TickerRow, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	rows := f.rows
	if max > 0 && len(rows) > max {
		rows = rows[:max]
	}
	return rows, nil
}

func (f *fakeStore) WriteResults(_ context.Context, rows []models.TickerRow, results map[int]models.SentimentResult) error {
	f.writes++
	f.lastRows = rows
	f.lastResult = results
	return nil
}

func items(headlines ...string) []models.NewsItem {
	out := make([]models.NewsItem, 0, len(headlines))
	for _, h := range headlines {
		out = append(out, models.NewsItem{Headline: h})
	}
	return out
}

func TestProcessScoresNews(t *testing.T) {
	src := &fakeSource{items: map[string][]models.NewsItem{
		"AAPL": items("Shares rally on strong growth", "Profit beats estimates"),
	}}
	fixed := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)
	p := New(&fakeStore{}, src, WithClock(func() time.Time { return fixed }))

	res := p.Process(context.Background(), "AAPL")
	if res.Empty() {
		t.Fatal("expected a scored result")
	}
	if res.ArticleCount != 2 {
		t.Errorf("ArticleCount = %d, want 2", res.ArticleCount)
	}
	if res.AvgScore <= 0 {
		t.Errorf("expected positive average for bullish headlines, got %.4f", res.AvgScore)
	}
	if !res.ComputedAt.Equal(fixed) {
		t.Errorf("ComputedAt = %v, want %v", res.ComputedAt, fixed)
	}
}

func TestProcessNoNewsYieldsEmptyResult(t *testing.T) {
	src := &fakeSource{}
	p := New(&fakeStore{}, src)

	res := p.Process(context.Background(), "ZZZQ")
	if !res.Empty() {
		t.Errorf("expected empty result, got %+v", res)
	}
	if res.AvgScore != 0 || res.ArticleCount != 0 {
		t.Errorf("empty result must carry no score: %+v", res)
	}
	if !res.ComputedAt.IsZero() {
		t.Errorf("empty result must carry no timestamp: %v", res.ComputedAt)
	}
}

func TestProcessFetchErrorIsTickerLocal(t *testing.T) {
	src := &fakeSource{errs: map[string]error{
		"BAD": errors.New("connection reset"),
	}}
	p := New(&fakeStore{}, src)

	res := p.Process(context.Background(), "BAD")
	if !res.Empty() {
		t.Errorf("fetch failure must yield an empty result, got %+v", res)
	}
}

func TestProcessDropsItemsWithoutHeadlines(t *testing.T) {
	src := &fakeSource{items: map[string][]models.NewsItem{
		"MIX": {
			{Headline: "Stock surges on upgrade"},
			{Headline: "", Summary: "headline-less item"},
		},
	}}
	p := New(&fakeStore{}, src)

	res := p.Process(context.Background(), "MIX")
	if res.ArticleCount != 1 {
		t.Errorf("ArticleCount = %d, want 1 (empty headline dropped)", res.ArticleCount)
	}
}

func TestRunEndToEnd(t *testing.T) {
	store := &fakeStore{rows: []models.TickerRow{
		{Row: 2, Ticker: "AAPL"},
		{Row: 3, Ticker: "FAIL"},
		{Row: 4, Ticker: "MSFT"},
	}}
	src := &fakeSource{
		items: map[string][]models.NewsItem{
			"AAPL": items("Shares rally on record profit"),
			"MSFT": items("Stock plunges after weak outlook"),
		},
		errs: map[string]error{
			"FAIL": errors.New("network error"),
		},
	}
	p := New(store, src)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Exactly one batched write covering all three rows.
	if store.writes != 1 {
		t.Errorf("writes = %d, want 1", store.writes)
	}
	if len(store.lastRows) != 3 {
		t.Errorf("write covered %d rows, want 3", len(store.lastRows))
	}

	if store.lastResult[2].Empty() {
		t.Error("row 2 should carry a result")
	}
	if !store.lastResult[3].Empty() {
		t.Error("row 3 (failed fetch) should be empty")
	}
	if store.lastResult[4].Empty() {
		t.Error("row 4 should carry a result")
	}
	if store.lastResult[4].AvgScore >= 0 {
		t.Errorf("row 4 should be bearish, got %.4f", store.lastResult[4].AvgScore)
	}
}

func TestRunProcessesSequentiallyInSheetOrder(t *testing.T) {
	store := &fakeStore{rows: []models.TickerRow{
		{Row: 2, Ticker: "T1"},
		{Row: 3, Ticker: "T2"},
		{Row: 4, Ticker: "T3"},
	}}
	src := &fakeSource{}
	p := New(store, src)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"T1", "T2", "T3"}
	if len(src.fetches) != len(want) {
		t.Fatalf("fetches = %v", src.fetches)
	}
	for i, w := range want {
		if src.fetches[i] != w {
			t.Errorf("fetch %d = %q, want %q", i, src.fetches[i], w)
		}
	}
}

func TestRunSkipsBlankTickerRows(t *testing.T) {
	store := &fakeStore{rows: []models.TickerRow{
		{Row: 2, Ticker: "AAPL"},
		{Row: 3, Ticker: ""},
	}}
	src := &fakeSource{items: map[string][]models.NewsItem{
		"AAPL": items("Shares gain on momentum"),
	}}
	p := New(store, src)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(src.fetches) != 1 {
		t.Errorf("blank row should not be fetched: %v", src.fetches)
	}
	// The blank row still occupies its slot in the batched write.
	if len(store.lastRows) != 2 {
		t.Errorf("write covered %d rows, want 2", len(store.lastRows))
	}
}

func TestRunNothingToDo(t *testing.T) {
	store := &fakeStore{}
	p := New(store, &fakeSource{})

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.writes != 0 {
		t.Errorf("no write expected for an empty sheet, got %d", store.writes)
	}
}

func TestRunListFailureAborts(t *testing.T) {
	store := &fakeStore{listErr: fmt.Errorf("permission denied")}
	src := &fakeSource{}
	p := New(store, src)

	if err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(src.fetches) != 0 {
		t.Errorf("no fetches expected when listing fails: %v", src.fetches)
	}
}

func TestRunHonorsTickerCap(t *testing.T) {
	store := &fakeStore{rows: []models.TickerRow{
		{Row: 2, Ticker: "T1"},
		{Row: 3, Ticker: "T2"},
		{Row: 4, Ticker: "T3"},
	}}
	src := &fakeSource{}
	p := New(store, src, WithMaxTickers(2))

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(src.fetches) != 2 {
		t.Errorf("expected 2 fetches with cap 2, got %v", src.fetches)
	}
}
