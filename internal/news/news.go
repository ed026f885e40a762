// Package news fetches recent per-ticker news from an external
// market-news backend. Two backends are provided: the Polygon/Massive
// news API (keyed) and a keyless RSS fallback that scans public market
// feeds.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/marketscribe/sentisheet/internal/config"
	"github.com/marketscribe/sentisheet/internal/infra"
	"github.com/marketscribe/sentisheet/pkg/models"
)

// DefaultArticleLimit caps the number of articles requested per ticker.
// A fixed upper bound keeps per-ticker cost and latency predictable.
const DefaultArticleLimit = 20

// Source is a per-ticker news backend.
type Source interface {
	// Name returns the human-readable backend name.
	Name() string

	// FetchNews returns up to limit recent articles for ticker, in the
	// order the backend serves them. Errors are ticker-local: the
	// caller logs them and moves on, they never abort the run.
	FetchNews(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error)
}

// Pick selects the backend for the configured source. With "auto", the
// Polygon backend is used when an API key is configured, otherwise the
// keyless RSS backend. The limiter is shared across every outbound call
// the chosen backend makes during the run.
func Pick(cfg config.NewsConfig, limiter *infra.PaceLimiter) (Source, error) {
	switch cfg.Source {
	case "polygon":
		return NewPolygon(cfg.PolygonAPIKey, limiter, WithRetryFallback(cfg.RetryFallback())), nil
	case "rss":
		return NewRSS(limiter), nil
	case "auto", "":
		if cfg.PolygonAPIKey != "" {
			return NewPolygon(cfg.PolygonAPIKey, limiter, WithRetryFallback(cfg.RetryFallback())), nil
		}
		return NewRSS(limiter), nil
	default:
		return nil, fmt.Errorf("unknown news source %q (want polygon, rss or auto)", cfg.Source)
	}
}

// fetchJSON performs a GET request and decodes the response into dest.
func fetchJSON(ctx context.Context, url string, dest any) error {
	body, _, err := infra.DoGet(ctx, url, nil)
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}
