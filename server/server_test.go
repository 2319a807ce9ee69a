package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/okriek/inkwell/agent"
	"github.com/okriek/inkwell/config"
	"github.com/okriek/inkwell/document"
	"github.com/okriek/inkwell/llm"
	"github.com/okriek/inkwell/transcript"
)

// connect builds a workspace-backed MCP server and returns a client
// session talking to it over in-memory transports.
func connect(t *testing.T) (*mcp.ClientSession, *Workspace) {
	t.Helper()

	ws := NewWorkspace(nil, t.TempDir(), zap.NewNop())
	srv := NewMCPServer(ws)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ctx := context.Background()

	serverSession, err := srv.Connect(ctx, serverTransport)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "inkwell-test", Version: "v0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	t.Cleanup(func() { clientSession.Close() })

	return clientSession, ws
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s) failed: %v", name, err)
	}
	return result
}

func resultText(result *mcp.CallToolResult) string {
	out := ""
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			out += tc.Text
		}
	}
	return out
}

func TestToolCatalog(t *testing.T) {
	cs, _ := connect(t)

	tools, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}

	want := map[string]bool{
		"create_document": false, "add_title": false, "add_section_heading": false,
		"add_paragraph": false, "open_list": false, "add_list_item": false,
		"close_list": false, "add_table_from_html": false, "export_to_markdown": false,
		"save_to_cache": false,
	}
	for _, tool := range tools.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %s missing from catalog", name)
		}
	}
}

func TestBuildDocumentThroughTools(t *testing.T) {
	cs, _ := connect(t)

	result := callTool(t, cs, "create_document", map[string]any{"prompt": "widget report"})
	var dict map[string]any
	if err := json.Unmarshal([]byte(resultText(result)), &dict); err != nil {
		t.Fatalf("create_document did not return a document dict: %v", err)
	}
	key, _ := dict["key"].(string)
	if key == "" {
		t.Fatal("expected a document key in the result")
	}

	callTool(t, cs, "add_title", map[string]any{"title": "Widget Report"})
	callTool(t, cs, "add_section_heading", map[string]any{"section_heading": "Overview", "section_level": 1})
	callTool(t, cs, "add_paragraph", map[string]any{"paragraph": "All widgets accounted for."})
	callTool(t, cs, "open_list", map[string]any{"ordered": false})
	callTool(t, cs, "add_list_item", map[string]any{"text": "sprockets"})
	callTool(t, cs, "close_list", map[string]any{})

	markdown := resultText(callTool(t, cs, "export_to_markdown", map[string]any{}))
	for _, want := range []string{"# Widget Report", "## Overview", "- sprockets"} {
		if !strings.Contains(markdown, want) {
			t.Errorf("expected %q in exported markdown:\n%s", want, markdown)
		}
	}
}

func TestToolErrorsAreReportedAsToolResults(t *testing.T) {
	cs, _ := connect(t)

	// No document exists yet, so editing must fail as a tool-level error
	// the model can react to, not as a transport failure.
	result, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "add_title",
		Arguments: map[string]any{"title": "too early"},
	})
	if err == nil && !result.IsError {
		t.Fatal("expected an error result for editing without a document")
	}
}

func TestSaveToCacheWritesMarkdownFile(t *testing.T) {
	cacheDir := t.TempDir()
	ws := NewWorkspace(nil, cacheDir, zap.NewNop())

	doc, err := ws.Create("cache me")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := ws.Update(func(d *document.Document) error {
		return d.AddParagraph("cached body")
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	key, err := ws.SaveToCache()
	if err != nil {
		t.Fatalf("SaveToCache failed: %v", err)
	}
	if key != doc.Key {
		t.Errorf("expected key %s, got %s", doc.Key, key)
	}

	raw, err := os.ReadFile(filepath.Join(cacheDir, key+".md"))
	if err != nil {
		t.Fatalf("expected a cache file for the document: %v", err)
	}
	if !strings.Contains(string(raw), "cached body") {
		t.Errorf("unexpected cache file contents: %q", raw)
	}
}

func TestStorePersistsDocuments(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "documents.db"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	ws := NewWorkspace(store, t.TempDir(), zap.NewNop())
	doc, err := ws.Create("persist me")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(doc.Key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Key != doc.Key {
		t.Errorf("expected key %s, got %s", doc.Key, got.Key)
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != doc.Key {
		t.Errorf("unexpected key listing: %v", keys)
	}

	if _, err := store.Get("missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for a missing key, got %v", err)
	}
}

// scriptedModel drives the agent loop from a fixed script: one tool call,
// then a closing text round. Compression requests (no tools) return a
// fixed summary.
type scriptedModel struct {
	rounds int
}

func (m *scriptedModel) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req.Tools == nil {
		return &llm.Response{Blocks: []transcript.Block{
			transcript.TextBlock{Text: "created a report document"},
		}}, nil
	}
	m.rounds++
	switch m.rounds {
	case 1:
		return &llm.Response{Blocks: []transcript.Block{
			transcript.ToolUseBlock{ID: "t1", Name: "create_document", Input: map[string]any{"prompt": "report"}},
			transcript.ToolUseBlock{ID: "t2", Name: "add_title", Input: map[string]any{"title": "Report"}},
		}}, nil
	default:
		return &llm.Response{Blocks: []transcript.Block{
			transcript.TextBlock{Text: "the report is ready"},
		}}, nil
	}
}

func TestAgentDrivesDocumentServerEndToEnd(t *testing.T) {
	cs, ws := connect(t)

	cfg := &config.Config{MaxRounds: 20, MaxTokens: 1000, SummaryMaxTokens: 200}
	a := agent.New(cfg, &scriptedModel{}, cs)

	result, err := a.RunTask(context.Background(), "build a report titled Report", "")
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if result.Summary != "created a report document" {
		t.Errorf("unexpected summary: %q", result.Summary)
	}

	markdown, err := ws.ExportMarkdown()
	if err != nil {
		t.Fatalf("the workspace should hold the built document: %v", err)
	}
	if !strings.Contains(markdown, "# Report") {
		t.Errorf("expected the title in the built document:\n%s", markdown)
	}
}
