package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reviewscope/crawler/internal/api"
	"github.com/reviewscope/crawler/internal/config"
	"github.com/reviewscope/crawler/internal/engine"
	"github.com/reviewscope/crawler/internal/fetcher"
	"github.com/reviewscope/crawler/internal/observability"
	"github.com/reviewscope/crawler/internal/platform"
	"github.com/reviewscope/crawler/internal/session"
	"github.com/reviewscope/crawler/internal/storage"
)

var (
	cfgFile    string
	verbose    bool
	outputPath string
	maxPages   int
	platformID string
	itemID     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reviewscope",
		Short: "E-commerce review crawl engine",
		Long: `reviewscope crawls customer reviews from dynamic, JS-rendered storefronts.

It drives a headless browser through the storefront's review pagination,
extracts product metadata and review records, and serves both over a
small HTTP API for the monitoring dashboard.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// serveCmd runs the HTTP API.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the crawl API server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := setupLogger(&cfg.Logging)

	metrics := observability.NewMetrics()
	eng, err := buildEngine(cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	var store storage.ReviewStore
	if cfg.Storage.Type == "mongodb" {
		mongoStore, err := storage.NewMongoStore(cfg.Storage.URI, cfg.Storage.Database, cfg.Storage.Collection, logger)
		if err != nil {
			return fmt.Errorf("create store: %w", err)
		}
		store = mongoStore
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoStore.Close(ctx)
		}()
	}

	srv := api.NewServer(&cfg.Server, eng, store, metrics, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	if err := srv.Start(); err != nil {
		return err
	}
	logger.Info("server stopped", "counters", metrics.Snapshot())
	return nil
}

// extractCmd runs a one-shot metadata extraction and prints JSON.
func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [url]",
		Short: "Extract product metadata from a product URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.ValidateURL(args[0]); err != nil {
				return err
			}
			logger := setupLogger(&cfg.Logging)

			eng, err := buildEngine(cfg, observability.NewMetrics(), logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Crawl.NavigationTimeout+10*time.Second)
			defer cancel()

			md, err := eng.ExtractMetadata(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(md)
		},
	}
}

// crawlCmd runs a one-shot review crawl and prints or writes JSON.
func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url]",
		Short: "Crawl reviews from a product URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.ValidateURL(args[0]); err != nil {
				return err
			}
			logger := setupLogger(&cfg.Logging)

			eng, err := buildEngine(cfg, observability.NewMetrics(), logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				logger.Info("interrupted, returning partial results")
				cancel()
			}()

			start := time.Now()
			records, err := eng.CrawlReviews(ctx, args[0], platformID, itemID, maxPages)
			if err != nil {
				return err
			}

			logger.Info("crawl complete", "reviews", len(records), "elapsed", time.Since(start).Round(time.Millisecond))

			if outputPath != "" {
				if err := storage.WriteReviewsJSON(outputPath, records); err != nil {
					return err
				}
				fmt.Printf("wrote %d reviews to %s\n", len(records), outputPath)
				return nil
			}
			return printJSON(records)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write results to a JSON file instead of stdout")
	cmd.Flags().IntVarP(&maxPages, "max-pages", "m", 0, "page budget (0 = config default)")
	cmd.Flags().StringVar(&platformID, "platform", "", "platform id hint (normally derived from the URL)")
	cmd.Flags().StringVar(&itemID, "item-id", "", "item id, used only for log correlation")
	return cmd
}

// versionCmd prints version information.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("reviewscope %s\n", config.Version)
		},
	}
}

// configCmd shows the effective configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Server:\n")
			fmt.Printf("  Port:               %d\n", cfg.Server.Port)
			fmt.Printf("  Write Timeout:      %s\n", cfg.Server.WriteTimeout)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Headless:           %v\n", cfg.Browser.Headless)
			fmt.Printf("  Stealth:            %v\n", cfg.Browser.Stealth)
			fmt.Printf("  User Agents:        %d configured\n", len(cfg.Browser.UserAgents))
			fmt.Printf("\nCrawl:\n")
			fmt.Printf("  Navigation Timeout: %s\n", cfg.Crawl.NavigationTimeout)
			fmt.Printf("  Settle Delay:       %s\n", cfg.Crawl.SettleDelay)
			fmt.Printf("  Click Delay:        %s (jittered)\n", cfg.Crawl.ClickDelay)
			fmt.Printf("  Block Delay:        %s\n", cfg.Crawl.BlockDelay)
			fmt.Printf("  Max Pages:          %d\n", cfg.Crawl.MaxPages)
			fmt.Printf("\nFetcher (fast path):\n")
			fmt.Printf("  Enabled:            %v\n", cfg.Fetcher.Enabled)
			fmt.Printf("  Timeout:            %s\n", cfg.Fetcher.Timeout)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:               %s\n", cfg.Storage.Type)
			fmt.Printf("\nPlatforms:\n")
			for _, p := range platform.All() {
				fmt.Printf("  %-8s metadata=%v reviews=%v\n", p.ID, p.Metadata, p.Reviews)
			}
			return nil
		},
	}
}

// buildEngine wires the session, fast-path fetcher and engine.
func buildEngine(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*engine.Engine, error) {
	sess := session.New(&cfg.Browser, logger)

	var static *fetcher.StaticFetcher
	if cfg.Fetcher.Enabled {
		f, err := fetcher.NewStaticFetcher(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create static fetcher: %w", err)
		}
		static = f
	}

	return engine.New(cfg, sess, static, metrics, logger), nil
}

// setupLogger creates a structured logger from the logging config,
// with the -v flag forcing debug.
func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	out := os.Stderr
	if cfg.Output == "stdout" {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
