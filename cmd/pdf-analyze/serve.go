package main

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/KRSaiVarun/pdf-analysis-tool/internal/config"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/llm"
	mcptools "github.com/KRSaiVarun/pdf-analysis-tool/internal/mcp"
)

// runMCP serves the PDF toolset over MCP on stdin/stdout. The server comes
// up even without a usable model provider; analysis tools then return a
// configuration hint instead of results.
func runMCP(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("usage: pdf-analyze mcp")
	}

	logger := newLogger()

	resolved, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: globalConfigPath,
		CLIModel:   globalModel,
	})
	if err != nil {
		return err
	}

	var provider llm.Provider
	if p, perr := buildProvider(resolved, logger); perr != nil {
		logger.Warn("mcp.provider.unavailable", slog.String("cause", perr.Error()))
	} else {
		provider = p
	}

	srv := mcptools.NewServer(mcptools.ServerConfig{
		Version:  version,
		Provider: provider,
		Logger:   logger,
	})
	return server.ServeStdio(srv)
}
