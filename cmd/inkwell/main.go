package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/okriek/inkwell/agent"
	"github.com/okriek/inkwell/agent/shell"
	"github.com/okriek/inkwell/config"
	"github.com/okriek/inkwell/llm"
	"github.com/okriek/inkwell/toolbridge"
)

func main() {
	providerFlag := flag.String("provider", "", "Model provider: 'anthropic', 'bedrock', 'openai', 'gemini' or 'mock' (overrides config)")
	modelFlag := flag.String("model", "", "Model name (overrides config)")
	flag.Parse()

	serverURL := flag.Arg(0)
	if serverURL == "" {
		fmt.Fprintln(os.Stderr, "Usage: inkwell [flags] <url of the document MCP server>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}
	if *providerFlag != "" {
		cfg.Provider = *providerFlag
	}
	if *modelFlag != "" {
		cfg.Model = *modelFlag
	}

	ctx := context.Background()

	client, err := newModelClient(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing %s client: %+v\n", cfg.Provider, err)
		os.Exit(1)
	}

	fmt.Printf("Connecting to SSE server at: %s\n", serverURL)
	mcpClient := mcp.NewClient(&mcp.Implementation{Name: "inkwell", Version: "v0.1.0"}, nil)
	session, err := mcpClient.Connect(ctx, mcp.NewSSEClientTransport(serverURL, nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to MCP server: %+v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	tools, err := toolbridge.ListTools(ctx, session)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing tools: %+v\n", err)
		os.Exit(1)
	}
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	fmt.Printf("Connected to server with tools: %v\n", names)

	sh := shell.New(agent.New(cfg, client, session), os.Stdin, os.Stdout)
	if err := sh.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Shell stopped with an error: %+v\n", err)
		os.Exit(1)
	}
}

// newModelClient builds the configured model provider client.
func newModelClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return llm.NewAnthropicClient(ctx, cfg.Model)
	case "bedrock":
		return llm.NewBedrockClient(ctx, cfg.Model)
	case "openai":
		return llm.NewOpenAIClient(ctx, cfg.Model)
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.Model)
	default:
		return &llm.MockClient{}, nil
	}
}
