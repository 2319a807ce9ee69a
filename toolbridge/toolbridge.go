// Package toolbridge adapts an MCP tool session for the agent loop: it
// discovers the tool catalog in the shape model APIs expect and executes
// single tool calls, normalizing success and failure into result envelopes.
package toolbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/okriek/inkwell/errors"
	"github.com/okriek/inkwell/transcript"
)

// Session is the slice of an MCP client session the bridge consumes. It is
// injected explicitly so the bridge can be exercised against fakes.
// *mcp.ClientSession satisfies it.
type Session interface {
	ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
}

// Descriptor describes one callable tool: its unique name, description and
// JSON input schema, in the neutral form the model clients translate from.
type Descriptor struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ListTools queries the session for the current tool catalog, following
// cursor pagination until exhausted. The toolset is treated as dynamic:
// callers must re-list at the start of every task rather than cache the
// result. A listing failure is fatal to the task and propagates.
func ListTools(ctx context.Context, session Session) ([]Descriptor, error) {
	var descriptors []Descriptor
	params := &mcp.ListToolsParams{}
	for {
		page, err := session.ListTools(ctx, params)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list tools from session")
		}
		for _, t := range page.Tools {
			schema, err := schemaToMap(t.InputSchema)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid input schema for tool '%s'", t.Name)
			}
			descriptors = append(descriptors, Descriptor{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: schema,
			})
		}
		if page.NextCursor == "" {
			break
		}
		params.Cursor = page.NextCursor
	}
	return descriptors, nil
}

func schemaToMap(schema any) (map[string]any, error) {
	if schema == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}, nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		// A typed nil schema marshals to "null".
		return map[string]any{"type": "object", "properties": map[string]any{}}, nil
	}
	return m, nil
}

// Invoker executes single tool calls against the session and records each
// attempt and outcome in the execution log.
type Invoker struct {
	session Session
	log     *transcript.ExecutionLog
}

func NewInvoker(session Session, log *transcript.ExecutionLog) *Invoker {
	return &Invoker{session: session, log: log}
}

// Invoke runs one named tool call and returns its result envelope. A tool
// failure never propagates: the error is stringified and returned under
// IsError so the model can react to it (for example by retrying with
// corrected arguments).
func (inv *Invoker) Invoke(ctx context.Context, id, name string, args map[string]any) transcript.ToolResultBlock {
	inv.log.Appendf("🔧 Calling tool '%s' with args: %v", name, args)

	result, err := inv.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		inv.log.Appendf("❌ Tool error: %v", err)
		return transcript.ToolResultBlock{
			ToolUseID: id,
			Content:   fmt.Sprintf("Error: %v", err),
			IsError:   true,
		}
	}

	content := flattenContent(result.Content)
	if result.IsError {
		// The server reported a tool-level failure inside a normal
		// response; surface it the same way as a raised error.
		inv.log.Appendf("❌ Tool error: %s", content)
		return transcript.ToolResultBlock{
			ToolUseID: id,
			Content:   content,
			IsError:   true,
		}
	}

	inv.log.Appendf("✅ Tool result: %s", content)
	return transcript.ToolResultBlock{
		ToolUseID: id,
		Content:   content,
		IsError:   false,
	}
}

// flattenContent concatenates the text parts of a tool result.
func flattenContent(content []mcp.Content) string {
	out := ""
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok {
			out += tc.Text
		}
	}
	return out
}
