package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bobmcallan/mcpbridge/internal/app"
	"github.com/bobmcallan/mcpbridge/internal/bridge"
	"github.com/bobmcallan/mcpbridge/internal/common"
	"github.com/bobmcallan/mcpbridge/internal/config"
	"github.com/bobmcallan/mcpbridge/internal/server"
)

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	serverPort  = flag.Int("port", 0, "Server port (overrides config)")
	serverPortP = flag.Int("p", 0, "Server port (shorthand)")
	serverHost  = flag.String("host", "", "Server host (overrides config)")
	showVersion = flag.Bool("version", false, "Print version information")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("mcpbridge version %s\n", config.GetVersion())
		os.Exit(0)
	}

	// Merge port flags (shorthand takes precedence)
	finalPort := *serverPort
	if *serverPortP != 0 {
		finalPort = *serverPortP
	}

	// Auto-discover config file if not specified.
	// Binary-relative paths are tried first so the config is found even when
	// the working directory differs from the binary location.
	if len(configFiles) == 0 {
		for _, path := range configSearchPaths() {
			if _, err := os.Stat(path); err == nil {
				configFiles = append(configFiles, path)
				break
			}
		}
	}

	cfg, err := config.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Apply CLI flag overrides (highest priority)
	config.ApplyFlagOverrides(cfg, finalPort, *serverHost)

	logger := setupLogger(cfg)

	logger.Info().
		Int("port", cfg.Server.Port).
		Str("host", cfg.Server.Host).
		Str("config_files", fmt.Sprintf("%v", configFiles)).
		Msg("configuration loaded")

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to initialize application")
		os.Exit(1)
	}

	srv := server.New(application)

	if err := buildBridge(application, srv); err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to build bridge")
		os.Exit(1)
	}

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Str("error", err.Error()).Msg("server failed to start")
			os.Exit(1)
		}
	}()

	// Give goroutine a moment to start
	time.Sleep(100 * time.Millisecond)

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Str("mcp_endpoint", fmt.Sprintf("http://%s:%d%s", cfg.Server.Host, cfg.Server.Port, cfg.Bridge.MountPath)).
		Msg("server ready")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("shutdown signal received")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Str("error", err.Error()).Msg("server shutdown failed")
	}

	if err := application.Close(); err != nil {
		logger.Error().Str("error", err.Error()).Msg("application shutdown failed")
	}

	logger.Info().Msg("server stopped")
}

// buildBridge registers every enumerable host route, config-declared proxy
// tool, and OpenAPI bind, then builds and mounts the MCP surface.
func buildBridge(application *app.App, srv *server.Server) error {
	cfg := application.Config
	logger := application.Logger
	builder := application.NewBridgeBuilder()

	for _, route := range srv.Routes() {
		if err := builder.Tool(route); err != nil {
			return fmt.Errorf("failed to register route %s: %w", route.Path, err)
		}
	}

	for _, p := range cfg.Bridge.Proxy {
		err := builder.Proxy(bridge.ProxyTool{
			Name:        p.Name,
			Description: p.Description,
			URL:         p.URL,
			Method:      p.Method,
			Structure:   paramStructure(p.Structure),
		})
		if err != nil {
			return fmt.Errorf("failed to register proxy tool %q: %w", p.Name, err)
		}
	}

	// A failed descriptor bind aborts that bind only; capabilities from
	// other sources are unaffected.
	for _, o := range cfg.Bridge.OpenAPI {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := builder.BindOpenAPI(ctx, o.URL, bridge.BindOptions{
			BaseURL:         o.BaseURL,
			IncludePaths:    o.IncludePaths,
			ExcludePaths:    o.ExcludePaths,
			NameFromSummary: o.NameFromSummary,
		})
		cancel()
		if err != nil {
			logger.Warn().
				Str("descriptor", o.URL).
				Str("error", err.Error()).
				Msg("OpenAPI bind failed, skipping descriptor")
		}
	}

	return builder.Build(srv, cfg.Bridge.MountPath)
}

// paramStructure converts a config structure table into a parameter map.
func paramStructure(m map[string]string) bridge.ParameterMap {
	if len(m) == 0 {
		return nil
	}
	pm := make(bridge.ParameterMap, len(m))
	for name, loc := range m {
		pm[name] = bridge.ParameterLocation(loc)
	}
	return pm
}

// configSearchPaths returns TOML files to auto-discover (first match wins).
// Binary-relative paths are tried first, with CWD fallbacks after.
// Paths are deduplicated via filepath.Abs.
func configSearchPaths() []string {
	candidates := []string{
		"mcpbridge.toml",
		"config/mcpbridge.toml",
	}

	exe, err := os.Executable()
	if err != nil {
		return candidates
	}
	binDir := filepath.Dir(exe)

	paths := []string{
		filepath.Join(binDir, "mcpbridge.toml"),
		filepath.Join(binDir, "config", "mcpbridge.toml"),
	}
	paths = append(paths, candidates...)

	// Deduplicate via absolute path.
	seen := make(map[string]bool, len(paths))
	deduped := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		deduped = append(deduped, p)
	}
	return deduped
}

// setupLogger creates an arbor logger based on config.
func setupLogger(cfg *config.Config) *common.Logger {
	return common.NewLoggerFromConfig(common.LoggingConfig{
		Level:      cfg.Logging.Level,
		Outputs:    cfg.Logging.Outputs,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}
