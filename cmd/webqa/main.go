// webqa is an autonomous web quality assurance scanner.
//
// Usage:
//
//	webqa scan --url https://example.com        # run a scan and write a report
//	webqa scan --url ... --scope "checkout"     # constrain the scan focus
//	webqa serve                                 # start the HTTP host
//	webqa serve --config config.yaml            # specify a config file
//	webqa version                               # show version information
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/webqa/api/handlers"
	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/internal/metrics"
	"github.com/BaSui01/webqa/internal/server"
	"github.com/BaSui01/webqa/internal/store"
	"github.com/BaSui01/webqa/runner"
)

// Version is injected at build time.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scan":
		runScan(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "version":
		fmt.Printf("webqa %s\n", Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runScan(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	url := fs.String("url", "", "Target page URL (required)")
	scope := fs.String("scope", "", "Optional scan focus, e.g. \"signup flow\"")
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	if *url == "" {
		fmt.Fprintln(os.Stderr, "scan requires --url")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	logger := initLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := runner.New(*cfg, logger)
	result, err := r.Run(ctx, *url, *scope)
	if err != nil {
		logger.Error("Scan failed", zap.String("url", *url), zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("Scan %s complete: %d bug(s), %d workflow(s), report at %s\n",
		result.RunID, len(result.Bugs), len(result.Workflows), result.ReportPath)
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting webqa server",
		zap.String("version", Version),
		zap.String("addr", cfg.Server.Addr),
	)

	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.Fatal("Failed to open run store", zap.Error(err))
	}
	defer st.Close()

	hub := handlers.NewHub()
	collector := metrics.NewCollector("webqa", logger)
	router := server.NewRouter(cfg.Server, st, hub, collector, Version, logger)

	mgr := server.NewManager(router, cfg.Server, logger)
	if err := mgr.Start(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	mgr.WaitForShutdown()
	logger.Info("webqa stopped")
}

func loadConfig(path string) *config.Config {
	loader := config.NewLoader().WithEnvPrefix("WEBQA")
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger() *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.InfoLevel),
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func printUsage() {
	fmt.Println(`webqa - autonomous web quality assurance scanner

Usage:
  webqa <command> [options]

Commands:
  scan      Scan a page and write a QA report
  serve     Start the HTTP host for scheduled scans
  version   Show version information
  help      Show this help message

Options for 'scan':
  --url <url>       Target page URL (required)
  --scope <text>    Optional scan focus, e.g. "checkout flow"
  --config <path>   Path to configuration file (YAML)

Options for 'serve':
  --config <path>   Path to configuration file (YAML)

Examples:
  webqa scan --url https://example.com
  webqa scan --url https://example.com --scope "signup form"
  webqa serve --config /etc/webqa/config.yaml
  webqa version`)
}
