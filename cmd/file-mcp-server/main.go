package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/payram/file-manager-mcp-server/internal/app"
	"github.com/payram/file-manager-mcp-server/internal/config"
	"github.com/payram/file-manager-mcp-server/internal/logging"
	"github.com/payram/file-manager-mcp-server/internal/version"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", config.EnvOr(config.EnvConfigPath, ""), "path to YAML config")
	httpAddr := flag.String("http", "", "serve MCP over HTTP on this address instead of stdio (e.g., :3333)")
	baseDir := flag.String("base-dir", "", "directory relative paths resolve against (default: working directory)")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *httpAddr != "" {
		cfg.Server.HTTPAddr = *httpAddr
	}
	if *baseDir != "" {
		cfg.Server.BaseDir = *baseDir
	}
	if *logLevel != "" {
		cfg.Server.LogLevel = *logLevel
	}

	// stdout carries the protocol, so nothing else may be written there.
	logger, cleanup, err := logging.New("file-mcp-server", logging.Options{Dir: cfg.Server.LogDir, Level: cfg.Server.LogLevel})
	if err != nil {
		logger = logging.Fallback("file-mcp-server", cfg.Server.LogLevel)
		logger.Warnf("file logging unavailable: %v", err)
	} else {
		defer cleanup()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg.Server, logger); err != nil {
		logger.Errorf("server error: %v", err)
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, logger *logrus.Entry) error {
	if cfg.HTTPAddr != "" {
		fmt.Fprintf(os.Stderr, "File Manager MCP Server listening on %s\n", cfg.HTTPAddr)
		logger.Infof("serving HTTP on %s", cfg.HTTPAddr)
		return app.RunMCPHTTP(ctx, cfg, logger)
	}

	fmt.Fprintln(os.Stderr, "File Manager MCP Server starting...")
	fmt.Fprintln(os.Stderr, "Ready to receive JSON-RPC requests on stdin")
	logger.Infof("serving stdio, version %s", version.Get().Version)

	errCh := make(chan error, 1)
	go func() { errCh <- app.RunMCPStdio(ctx, cfg, logger) }()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "Server stopped")
		logger.Info("interrupted")
		return nil
	case err := <-errCh:
		return err
	}
}
