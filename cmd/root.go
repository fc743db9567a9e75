package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/csvsentry/internal/config"
	"github.com/KaramelBytes/csvsentry/internal/logging"
	"github.com/KaramelBytes/csvsentry/internal/metrics"
	"github.com/KaramelBytes/csvsentry/internal/parser"
	"github.com/KaramelBytes/csvsentry/internal/queue"
	"github.com/KaramelBytes/csvsentry/internal/service"
	"github.com/KaramelBytes/csvsentry/internal/storage"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "csvsentry",
	Short: "csvsentry: statistics and anomaly checks for product CSV exports",
	Long: `csvsentry analyzes product/order tables (ID, Nom, Prix, Quantité, Note_Client),
computes price, quantity and rating statistics, flags out-of-range values and
publishes a summary notification. Run it locally or as an HTTP service.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.csvsentry/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP request timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max attempts for storage and queue calls (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	// A local .env is optional
	_ = godotenv.Load()

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if debug {
		cfg.LogLevel = "debug"
	}
}

func requireConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		return nil, fmt.Errorf("no configuration loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(c *cfgpkg.Global) (*zap.Logger, error) {
	return logging.New(c.LogLevel, c.LogFormat)
}

// Collaborator constructors, replaced in tests.
var (
	newStore  = storage.New
	newSender = queue.New
)

// app bundles the collaborators built from configuration.
type app struct {
	cfg     *cfgpkg.Global
	logger  *zap.Logger
	metrics *metrics.Recorder
	svc     *service.Service
	closers []any
}

func (a *app) close() {
	closeAll(a.closers...)
	_ = a.logger.Sync()
}

func closeAll(cs ...any) {
	for _, c := range cs {
		if cl, ok := c.(io.Closer); ok {
			_ = cl.Close()
		}
	}
}

// newApp validates the configuration and builds the store, sender and service.
func newApp() (*app, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	store, err := newStore(c)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	sender, err := newSender(c, logger)
	if err != nil {
		closeAll(store)
		return nil, fmt.Errorf("queue: %w", err)
	}
	rec := metrics.New()
	svc := service.New(store, sender, logger,
		service.WithMetrics(rec),
		service.WithAnalysisOptions(c.AnalysisOptions()),
		service.WithParserOptions(parser.Options{Sheet: c.XLSXSheet}),
		service.WithRetry(service.RetryPolicy{
			MaxAttempts: c.RetryMaxAttempts,
			BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
			MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		}),
	)
	return &app{cfg: c, logger: logger, metrics: rec, svc: svc, closers: []any{store, sender}}, nil
}
