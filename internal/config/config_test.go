package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, e := range []string{
		"SENTISHEET_NEWS_POLYGON_API_KEY", "POLYGON_API_KEY", "MASSIVE_API_KEY",
		"GOOGLE_CREDS_JSON", "GOOGLE_SHEET_NAME", "GOOGLE_WORKSHEET_NAME",
	} {
		os.Unsetenv(e)
	}
}

func TestLoadReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Sheets.SheetName != "Active-Investing" {
		t.Errorf("Sheets.SheetName: got %q, want %q", cfg.Sheets.SheetName, "Active-Investing")
	}
	if cfg.Sheets.WorksheetName != "Alpaca-Screener" {
		t.Errorf("Sheets.WorksheetName: got %q, want %q", cfg.Sheets.WorksheetName, "Alpaca-Screener")
	}
	if cfg.News.Source != "auto" {
		t.Errorf("News.Source: got %q, want %q", cfg.News.Source, "auto")
	}
	if cfg.News.ArticleLimit != 20 {
		t.Errorf("News.ArticleLimit: got %d, want 20", cfg.News.ArticleLimit)
	}
	if cfg.News.RequestsPerMinute != 120 {
		t.Errorf("News.RequestsPerMinute: got %d, want 120", cfg.News.RequestsPerMinute)
	}
	if cfg.News.RetryFallbackSeconds != 10 {
		t.Errorf("News.RetryFallbackSeconds: got %d, want 10", cfg.News.RetryFallbackSeconds)
	}
	if cfg.Run.MaxTickers != 0 {
		t.Errorf("Run.MaxTickers: got %d, want 0", cfg.Run.MaxTickers)
	}
}

func TestLegacyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MASSIVE_API_KEY", "massive-key")
	t.Setenv("GOOGLE_CREDS_JSON", `{"type":"service_account"}`)
	t.Setenv("GOOGLE_SHEET_NAME", "My-Sheet")
	t.Setenv("GOOGLE_WORKSHEET_NAME", "My-Tab")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.News.PolygonAPIKey != "massive-key" {
		t.Errorf("PolygonAPIKey: got %q, want %q", cfg.News.PolygonAPIKey, "massive-key")
	}
	if cfg.Sheets.CredentialsJSON == "" {
		t.Error("CredentialsJSON should be set from GOOGLE_CREDS_JSON")
	}
	if cfg.Sheets.SheetName != "My-Sheet" {
		t.Errorf("SheetName: got %q", cfg.Sheets.SheetName)
	}
	if cfg.Sheets.WorksheetName != "My-Tab" {
		t.Errorf("WorksheetName: got %q", cfg.Sheets.WorksheetName)
	}
}

func TestPolygonKeyPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLYGON_API_KEY", "polygon-key")
	t.Setenv("MASSIVE_API_KEY", "massive-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.News.PolygonAPIKey != "polygon-key" {
		t.Errorf("PolygonAPIKey: got %q, want POLYGON_API_KEY to win", cfg.News.PolygonAPIKey)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
sheets:
  spreadsheet_id: "abc123"
  worksheet_name: "Screener"
news:
  source: "polygon"
  requests_per_minute: 30
run:
  max_tickers: 5
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Sheets.SpreadsheetID != "abc123" {
		t.Errorf("SpreadsheetID: got %q", cfg.Sheets.SpreadsheetID)
	}
	if cfg.Sheets.WorksheetName != "Screener" {
		t.Errorf("WorksheetName: got %q", cfg.Sheets.WorksheetName)
	}
	if cfg.News.RequestsPerMinute != 30 {
		t.Errorf("RequestsPerMinute: got %d", cfg.News.RequestsPerMinute)
	}
	// Unset keys keep their defaults.
	if cfg.News.ArticleLimit != 20 {
		t.Errorf("ArticleLimit: got %d, want default 20", cfg.News.ArticleLimit)
	}
	if cfg.Run.MaxTickers != 5 {
		t.Errorf("MaxTickers: got %d", cfg.Run.MaxTickers)
	}
}

func TestCredentials(t *testing.T) {
	s := SheetsConfig{}
	if _, err := s.Credentials(); err == nil {
		t.Error("expected error when no credentials are configured")
	}

	s = SheetsConfig{CredentialsJSON: `{"type":"service_account"}`}
	data, err := s.Credentials()
	if err != nil {
		t.Fatalf("Credentials: %v", err)
	}
	if string(data) != `{"type":"service_account"}` {
		t.Errorf("got %q", data)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "sa.json")
	if err := os.WriteFile(path, []byte(`{"ok":1}`), 0o600); err != nil {
		t.Fatal(err)
	}
	s = SheetsConfig{CredentialsFile: path}
	data, err = s.Credentials()
	if err != nil {
		t.Fatalf("Credentials: %v", err)
	}
	if string(data) != `{"ok":1}` {
		t.Errorf("got %q", data)
	}
}

func TestRetryFallback(t *testing.T) {
	n := NewsConfig{RetryFallbackSeconds: 10}
	if n.RetryFallback() != 10*time.Second {
		t.Errorf("RetryFallback = %v", n.RetryFallback())
	}
}
