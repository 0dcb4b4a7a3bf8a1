package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/payram/file-manager-mcp-server/internal/client"
	"github.com/payram/file-manager-mcp-server/internal/config"
	"github.com/payram/file-manager-mcp-server/internal/logging"
	"github.com/payram/file-manager-mcp-server/internal/protocol"
	"github.com/payram/file-manager-mcp-server/internal/repl"
	"github.com/payram/file-manager-mcp-server/internal/version"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", config.EnvOr(config.EnvConfigPath, ""), "path to YAML config")
	serverCmd := flag.String("server", "", "server command line (default: file-mcp-server)")
	callTimeout := flag.Duration("timeout", 0, "per-request timeout, 0 waits forever")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *serverCmd != "" {
		cfg.Client.ServerCommand = strings.Fields(*serverCmd)
	}
	if *callTimeout > 0 {
		cfg.Client.CallTimeout = *callTimeout
	}
	if *logLevel != "" {
		cfg.Client.LogLevel = *logLevel
	}

	logger, cleanup, err := logging.New("file-mcp-client", logging.Options{Dir: cfg.Client.LogDir, Level: cfg.Client.LogLevel})
	if err != nil {
		logger = logging.Fallback("file-mcp-client", cfg.Client.LogLevel)
		logger.Warnf("file logging unavailable: %v", err)
	} else {
		defer cleanup()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := client.NewSession(client.Config{
		Command:          cfg.Client.ServerCommand,
		CallTimeout:      cfg.Client.CallTimeout,
		TerminateTimeout: cfg.Client.TerminateTimeout,
		StderrLines:      cfg.Client.StderrLines,
		Logger:           logger,
		Diagnostics:      os.Stdout,
	})

	fmt.Println("🚀 Starting MCP Client...")
	if err := session.Start(); err != nil {
		fmt.Printf("❌ Failed to start server: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if !session.Running() {
			return
		}
		if err := session.Stop(); err != nil {
			logger.Errorf("stop server: %v", err)
		}
		fmt.Println("🛑 MCP Server stopped")
	}()

	info := protocol.ClientInfo{Name: version.ClientName, Version: version.Get().Version}
	if !session.Initialize(ctx, info) {
		fmt.Println("❌ Failed to initialize MCP connection")
		for _, line := range session.Logs(10) {
			fmt.Println("   " + line)
		}
		return
	}
	fmt.Println("✅ MCP connection initialized")

	tools := session.ListTools(ctx)
	fmt.Printf("\n🔧 Available tools (%d):\n", len(tools))
	for _, t := range tools {
		fmt.Printf("  • %s: %s\n", t.Name, t.Description)
	}

	fmt.Println("\n📁 Current directory:")
	fmt.Println(session.CallTool(ctx, "list_files", map[string]any{"path": "."}))

	if err := repl.Run(ctx, os.Stdin, os.Stdout, session); err != nil {
		logger.Errorf("interactive session: %v", err)
	}
}
