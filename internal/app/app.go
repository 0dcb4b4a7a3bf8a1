package app

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/payram/file-manager-mcp-server/internal/config"
	"github.com/payram/file-manager-mcp-server/internal/fsops"
	"github.com/payram/file-manager-mcp-server/internal/mcp"
	"github.com/payram/file-manager-mcp-server/internal/tools"
)

// NewToolbox builds the file toolbox. Order here is the tools/list order.
func NewToolbox(cfg config.Server) *mcp.Toolbox {
	fsys := fsops.OS(cfg.BaseDir)
	return mcp.NewToolbox(
		tools.ListFiles(fsys),
		tools.ReadFile(fsys, cfg.MaxReadBytes),
	)
}

// NewMCPServer constructs an MCP server with the file toolbox.
func NewMCPServer(cfg config.Server, logger *logrus.Entry) *mcp.Server {
	return mcp.NewServer(NewToolbox(cfg), logger)
}

// RunMCPStdio serves line-delimited JSON-RPC on stdin/stdout until stdin closes.
func RunMCPStdio(ctx context.Context, cfg config.Server, logger *logrus.Entry) error {
	return NewMCPServer(cfg, logger).Serve(ctx, os.Stdin, os.Stdout)
}

// RunMCPHTTP starts the MCP HTTP server on the provided address.
func RunMCPHTTP(ctx context.Context, cfg config.Server, logger *logrus.Entry) error {
	guard := mcp.NewHTTPGuard(cfg.HTTPToken, cfg.HTTPAllowlist)
	return mcp.RunHTTP(ctx, NewMCPServer(cfg, logger), cfg.HTTPAddr, guard)
}
