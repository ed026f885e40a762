// Package models defines the core data structures used throughout sentisheet.
package models

import "time"

// NewsItem is a single news article returned by a news backend.
type NewsItem struct {
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary,omitempty"`
	URL         string    `json:"url,omitempty"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// TickerRow ties a ticker symbol to its spreadsheet row.
type TickerRow struct {
	Row    int    `json:"row"`    // 1-based sheet row number
	Ticker string `json:"ticker"` // normalized symbol, e.g. "AAPL"
}

// SentimentResult is the per-ticker outcome written back to the sheet.
// A result with ArticleCount == 0 carries no score: its cells stay blank
// rather than recording a fake neutral 0.0.
type SentimentResult struct {
	AvgScore     float64   `json:"avg_score"`
	ArticleCount int       `json:"article_count"`
	ComputedAt   time.Time `json:"computed_at"`
}

// Empty reports whether the result carries no usable score.
func (r SentimentResult) Empty() bool { return r.ArticleCount == 0 }
