package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/campuswell/nutriscan/internal/auth"
	"github.com/campuswell/nutriscan/internal/cache"
	"github.com/campuswell/nutriscan/internal/config"
	"github.com/campuswell/nutriscan/internal/history"
	"github.com/campuswell/nutriscan/internal/ingredients"
	"github.com/campuswell/nutriscan/internal/lookup"
	"github.com/campuswell/nutriscan/internal/mcpgo"
	"github.com/campuswell/nutriscan/internal/off"
	"github.com/campuswell/nutriscan/internal/ratelimit"
	"github.com/campuswell/nutriscan/internal/server"
	"github.com/campuswell/nutriscan/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nutriscan",
	Short: "NutriScan barcode lookup and health scoring server",
	Long: `NutriScan looks up food products on Open Food Facts by barcode and
turns the raw nutrition data into a normalized panel, flagged ingredients,
a 0-100 health score and a traffic-light tier.

The server operates in three modes:

1. HTTP Mode (default): REST API for app backends
   - GET /v1/product/{barcode} runs the full lookup pipeline
   - POST /v1/reset clears the active scan, GET /v1/history lists recent scans
   - Requires Bearer token authentication (except /health)

2. STDIO Mode (--stdio): MCP server for local Claude Desktop integration
   - Uses stdio pipes for communication
   - No authentication required

3. MCP HTTP Mode (--mcp): MCP server over streamable HTTP
   - Exposes /mcp with JSON-RPC 2.0 and Bearer token authentication

Available MCP Tools:
- lookup_barcode: Look up and score a product by barcode (UPC/EAN)
- recent_scans: List the most recently scanned products

Authentication (HTTP modes only):
Bearer token authentication is required for all endpoints except /health.
Use the AUTH_TOKEN environment variable to set the token.`,
	Version: version.String(),
	RunE: func(cmd *cobra.Command, args []string) error {
		// One-shot lookup prints a result and exits without a server.
		if barcode, _ := cmd.Flags().GetString("lookup"); barcode != "" {
			return runLookupMode(cmd, barcode)
		}

		stdio, _ := cmd.Flags().GetBool("stdio")
		if stdio {
			return runStdioMode(cmd)
		}

		mcpHTTP, _ := cmd.Flags().GetBool("mcp")
		if mcpHTTP {
			return runMCPHTTPMode(cmd)
		}

		return runHTTPMode(cmd)
	},
}

func init() {
	rootCmd.Flags().Bool("stdio", false, "Run the MCP server in stdio mode for local Claude Desktop integration")
	rootCmd.Flags().Bool("mcp", false, "Run the MCP server over streamable HTTP instead of the REST API")
	rootCmd.Flags().String("lookup", "", "Look up a single barcode, print the scored result as JSON, and exit")
}

// pipeline bundles everything the serving modes share.
type pipeline struct {
	svc     *lookup.Service
	history *history.Store
	store   cache.Store
}

func (p *pipeline) close() {
	if p.history != nil {
		p.history.Close()
	}
	p.store.Close()
}

// buildPipeline wires the lookup pipeline from configuration: rate
// limiter, API client, classifier, result store and scan history.
func buildPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline, error) {
	limiter := ratelimit.New(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	fetcher := off.NewClient(cfg.OFF.BaseURL, cfg.OFF.UserAgent, cfg.OFF.Timeout, limiter, logger)
	classifier := ingredients.NewKeywordClassifier()

	var store cache.Store
	switch cfg.Cache.Type {
	case "redis":
		redisStore, err := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store = redisStore
	case "memory", "":
		store = cache.NewMemory()
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Cache.Type)
	}

	var hist *history.Store
	var recorder lookup.Recorder
	if cfg.History.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		var err error
		hist, err = history.NewStore(cfg.History.Path, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		recorder = hist
	}

	svc := lookup.NewService(fetcher, classifier, store, recorder, lookup.Options{
		Freshness: cfg.Cache.Freshness,
		Retention: cfg.Cache.Retention,
	}, logger)

	return &pipeline{svc: svc, history: hist, store: store}, nil
}

// runHTTPMode runs the REST API server.
func runHTTPMode(cmd *cobra.Command) error {
	logger := config.NewLogger(false)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Info("Starting NutriScan in HTTP mode",
		"mode", "http",
		"auth", "Bearer token required (except /health endpoint)",
		"addr", cfg.Server.Address())

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		logger.Error("Failed to build pipeline", "error", err)
		return err
	}
	defer p.close()

	srv := server.New(cfg, p.svc, p.history, logger)
	return srv.Start(cmd.Context())
}

// runStdioMode runs the MCP server in stdio mode for Claude Desktop
func runStdioMode(cmd *cobra.Command) error {
	// Use a logger that writes to stderr to avoid interfering with stdio MCP communication
	logger := config.NewLogger(true)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Info("Starting NutriScan MCP server in STDIO mode",
		"mode", "stdio",
		"auth", "not required for stdio mode",
		"transport", "stdio pipes")

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		logger.Error("Failed to build pipeline", "error", err)
		return err
	}
	defer p.close()

	authenticator := auth.New(cfg.App.AuthToken)
	mcpSrv := mcpgo.NewServer(p.svc, p.history, p.store, authenticator, logger)

	return mcpSrv.ServeStdio()
}

// runMCPHTTPMode runs the MCP server over streamable HTTP.
func runMCPHTTPMode(cmd *cobra.Command) error {
	logger := config.NewLogger(false)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Info("Starting NutriScan MCP server in HTTP mode",
		"mode", "mcp-http",
		"auth", "Bearer token required (except /health endpoint)",
		"transport", "HTTP/JSON-RPC 2.0",
		"addr", cfg.Server.Address())

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		logger.Error("Failed to build pipeline", "error", err)
		return err
	}
	defer p.close()

	authenticator := auth.New(cfg.App.AuthToken)
	mcpSrv := mcpgo.NewServer(p.svc, p.history, p.store, authenticator, logger)

	return mcpSrv.ServeHTTP(cfg.Server.Address())
}

// runLookupMode looks up one barcode and prints the result to stdout.
func runLookupMode(cmd *cobra.Command, barcode string) error {
	logger := config.NewTextLogger(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer p.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	state := p.svc.LookupBarcode(ctx, barcode)
	switch {
	case state.IsNotFound:
		return fmt.Errorf("no product found for barcode %s", barcode)
	case state.IsError:
		return fmt.Errorf("lookup failed for barcode %s", barcode)
	}

	out, err := json.MarshalIndent(state.ScannedFood, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	cmd.Println(string(out))
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// Run is the main entry point for the CLI application
func Run() error {
	return Execute()
}
