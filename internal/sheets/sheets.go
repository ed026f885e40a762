// Package sheets reads ticker rows from and writes sentiment results
// back to a Google Sheets worksheet. It is the job's only persistence:
// one read of the ticker column at the start, one batched write of the
// result columns at the end.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/marketscribe/sentisheet/internal/config"
	"github.com/marketscribe/sentisheet/pkg/models"
	"github.com/marketscribe/sentisheet/pkg/utils"
)

const (
	headerRows   = 1
	tickerColumn = "A"

	// Results land in three adjacent columns:
	// Q = average sentiment, R = article count, S = computed-at (UTC).
	firstResultColumn = "Q"
	lastResultColumn  = "S"
)

// Store is the spreadsheet-backed row store for a single worksheet.
type Store struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

// New authenticates with the configured service account and resolves
// the target spreadsheet. Missing or unparseable credentials are a
// fatal configuration error: the run aborts before any ticker is
// processed.
func New(ctx context.Context, cfg config.SheetsConfig) (*Store, error) {
	creds, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}

	jwt, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	client := jwt.Client(ctx)

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	id := cfg.SpreadsheetID
	if id == "" {
		id, err = lookupByTitle(ctx, cfg.SheetName, option.WithHTTPClient(client))
		if err != nil {
			return nil, err
		}
	}

	return &Store{
		svc:           svc,
		spreadsheetID: id,
		worksheet:     cfg.WorksheetName,
	}, nil
}

// lookupByTitle resolves a spreadsheet ID from its document title via
// the Drive files API, the same open-by-name flow spreadsheets are
// usually shared under.
func lookupByTitle(ctx context.Context, title string, opts ...option.ClientOption) (string, error) {
	dsvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create drive service: %w", err)
	}

	q := fmt.Sprintf(
		"name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		escapeQuery(title),
	)
	list, err := dsvc.Files.List().Q(q).PageSize(2).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("look up spreadsheet %q: %w", title, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("spreadsheet %q not found (is it shared with the service account?)", title)
	}
	return list.Files[0].Id, nil
}

// ListTickers reads the ticker column below the header row, normalizing
// each symbol. Blank cells keep their row so the batched write stays
// aligned. When max > 0 the list is truncated to at most max rows.
func (s *Store) ListTickers(ctx context.Context, max int) ([]models.TickerRow, error) {
	rng := fmt.Sprintf("%s!%s%d:%s",
		quoteWorksheet(s.worksheet), tickerColumn, headerRows+1, tickerColumn)

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read ticker column: %w", err)
	}

	rows := make([]models.TickerRow, 0, len(resp.Values))
	for i, row := range resp.Values {
		ticker := ""
		if len(row) > 0 {
			if cell, ok := row[0].(string); ok {
				ticker = utils.NormalizeTicker(cell)
			}
		}
		rows = append(rows, models.TickerRow{Row: headerRows + 1 + i, Ticker: ticker})
	}

	if max > 0 && len(rows) > max {
		rows = rows[:max]
	}
	return rows, nil
}

// WriteResults performs the single batched range update covering the
// three result columns for every listed row. Rows with an empty result
// get blank cells, never zeros.
func (s *Store) WriteResults(ctx context.Context, rows []models.TickerRow, results map[int]models.SentimentResult) error {
	if len(rows) == 0 {
		return nil
	}

	rng := resultRange(s.worksheet, rows[0].Row, rows[len(rows)-1].Row)
	vr := &sheets.ValueRange{Values: buildValues(rows, results)}

	_, err := s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// buildValues renders one result row per ticker row, preserving order.
func buildValues(rows []models.TickerRow, results map[int]models.SentimentResult) [][]any {
	values := make([][]any, 0, len(rows))
	for _, r := range rows {
		res, ok := results[r.Row]
		if !ok || res.Empty() {
			values = append(values, []any{"", "", ""})
			continue
		}
		values = append(values, []any{
			res.AvgScore,
			res.ArticleCount,
			utils.UTCTimestamp(res.ComputedAt),
		})
	}
	return values
}

// resultRange builds the A1-notation range for the result columns of
// rows first..last.
func resultRange(worksheet string, first, last int) string {
	return fmt.Sprintf("%s!%s%d:%s%d",
		quoteWorksheet(worksheet), firstResultColumn, first, lastResultColumn, last)
}

// quoteWorksheet wraps a worksheet name in single quotes for A1
// notation, which tolerates names containing spaces or dashes.
func quoteWorksheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// escapeQuery escapes single quotes for a Drive query literal.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
