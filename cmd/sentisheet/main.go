// sentisheet — one-shot news-sentiment enrichment for a ticker sheet.
//
// Reads stock tickers from a Google Sheets worksheet, fetches recent
// news per ticker, scores it, and writes the results back in a single
// batched update.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/marketscribe/sentisheet/internal/config"
	"github.com/marketscribe/sentisheet/internal/infra"
	"github.com/marketscribe/sentisheet/internal/news"
	"github.com/marketscribe/sentisheet/internal/pipeline"
	"github.com/marketscribe/sentisheet/internal/sheets"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sentisheet",
	Short: "sentisheet — news-sentiment scores for a spreadsheet of tickers",
	Long: `sentisheet enriches a Google Sheets list of stock tickers with a
news-sentiment score: for each ticker it fetches recent headlines from a
market-news API (rate-limited, with bounded retry on throttling), scores
them with a deterministic lexicon, and writes average score, article
count and a UTC timestamp back to the sheet in one batched update.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment variables win either way.
		_ = godotenv.Load()

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sentisheet %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the ticker sheet once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		// Google auth is the one fatal prerequisite: fail here, before
		// any ticker is touched.
		store, err := sheets.New(ctx, cfg.Sheets)
		if err != nil {
			return fmt.Errorf("google sheets: %w", err)
		}

		limiter := infra.NewPaceLimiter(cfg.News.RequestsPerMinute)
		source, err := news.Pick(cfg.News, limiter)
		if err != nil {
			return err
		}

		proc := pipeline.New(store, source,
			pipeline.WithArticleLimit(cfg.News.ArticleLimit),
			pipeline.WithMaxTickers(cfg.Run.MaxTickers),
		)
		return proc.Run(ctx)
	},
}

// --- Check Command ---

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and credentials without processing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cfg.Sheets.Credentials(); err != nil {
			return fmt.Errorf("google credentials: %w", err)
		}
		fmt.Println("✓ Google credentials configured")

		limiter := infra.NewPaceLimiter(cfg.News.RequestsPerMinute)
		source, err := news.Pick(cfg.News, limiter)
		if err != nil {
			return err
		}
		fmt.Printf("✓ news backend: %s\n", source.Name())
		fmt.Printf("✓ rate budget: %d req/min (spacing %s)\n",
			cfg.News.RequestsPerMinute, limiter.Interval())
		fmt.Printf("✓ sheet: %s / %s\n", cfg.Sheets.SheetName, cfg.Sheets.WorksheetName)
		if cfg.Run.MaxTickers > 0 {
			fmt.Printf("✓ ticker cap: %d\n", cfg.Run.MaxTickers)
		}
		return nil
	},
}
