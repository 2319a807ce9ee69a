package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/okriek/inkwell/config"
	"github.com/okriek/inkwell/server"
)

func main() {
	transportFlag := flag.String("transport", "sse", "Transport: 'stdio' or 'sse'")
	addrFlag := flag.String("addr", "", "Listen address for SSE transport (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %+v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := server.OpenStore(cfg.Server.BoltPath)
	if err != nil {
		logger.Fatal("failed to open document store", zap.Error(err))
	}
	defer store.Close()

	ws := server.NewWorkspace(store, cfg.Cache.Dir, logger)
	mcpServer := server.NewMCPServer(ws)

	ctx := context.Background()
	switch *transportFlag {
	case "stdio":
		// Logs must stay off stdout in stdio mode; zap.NewProduction
		// writes to stderr, which is safe.
		if err := mcpServer.Run(ctx, mcp.NewStdioTransport()); err != nil {
			logger.Fatal("stdio server failed", zap.Error(err))
		}
	case "sse":
		httpServer := server.NewHTTPServer(cfg.Server.Addr, mcpServer, ws, logger)
		if err := httpServer.Start(); err != nil {
			logger.Fatal("SSE server failed", zap.Error(err))
		}
	default:
		fmt.Fprintf(os.Stderr, "Invalid transport '%s'. Must be 'stdio' or 'sse'.\n", *transportFlag)
		os.Exit(1)
	}
}
