package llm

import (
	"context"
	"encoding/json"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/okriek/inkwell/errors"
	"github.com/okriek/inkwell/toolbridge"
	"github.com/okriek/inkwell/transcript"
)

// AnthropicClient is a client for the Anthropic Messages API. This is the
// primary provider: its wire format is the content-block model the agent
// loop is written against, so the conversion here is one-to-one.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a new AnthropicClient.
// It requires the ANTHROPIC_API_KEY environment variable to be set.
func NewAnthropicClient(ctx context.Context, modelName string) (*AnthropicClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &AnthropicClient{
		client: &client,
		model:  modelName,
	}, nil
}

// Complete sends the transcript and tool catalog to the Anthropic API and
// returns the response content blocks in their emitted order.
func (a *AnthropicClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	messages, err := convertTurnsToAnthropicMessages(req.Turns)
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  messages,
	}
	params.Tools = convertDescriptorsToAnthropicTools(req.Tools)

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message to Anthropic")
	}

	return processAnthropicResponse(resp)
}

// convertTurnsToAnthropicMessages converts our internal turn format to
// Anthropic's message format.
func convertTurnsToAnthropicMessages(turns []transcript.Turn) ([]anthropic.MessageParam, error) {
	var messages []anthropic.MessageParam
	for _, turn := range turns {
		var content []anthropic.ContentBlockParamUnion
		for _, block := range turn.Blocks {
			switch b := block.(type) {
			case transcript.TextBlock:
				content = append(content, anthropic.NewTextBlock(b.Text))
			case transcript.ToolUseBlock:
				input, err := json.Marshal(b.Input)
				if err != nil {
					return nil, errors.Wrapf(err, "could not marshal tool call arguments for %s", b.Name)
				}
				content = append(content, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						Type:  "tool_use",
						ID:    b.ID,
						Name:  b.Name,
						Input: json.RawMessage(input),
					},
				})
			case transcript.ToolResultBlock:
				content = append(content, anthropic.ContentBlockParamUnion{
					OfToolResult: &anthropic.ToolResultBlockParam{
						ToolUseID: b.ToolUseID,
						IsError:   anthropic.Bool(b.IsError),
						Content: []anthropic.ToolResultBlockParamContentUnion{{
							OfText: &anthropic.TextBlockParam{
								Text: b.Content,
							},
						}},
					},
				})
			}
		}

		role := anthropic.MessageParamRoleUser
		if turn.Role == transcript.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		messages = append(messages, anthropic.MessageParam{
			Role:    role,
			Content: content,
		})
	}
	return messages, nil
}

// convertDescriptorsToAnthropicTools converts tool descriptors to
// Anthropic's tool format, passing the real input schema through.
func convertDescriptorsToAnthropicTools(descriptors []toolbridge.Descriptor) []anthropic.ToolUnionParam {
	if len(descriptors) == 0 {
		return nil
	}

	tools := make([]anthropic.ToolUnionParam, 0, len(descriptors))
	for _, d := range descriptors {
		properties := d.InputSchema["properties"]
		if properties == nil {
			properties = map[string]any{}
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties,
				Required:   schemaRequired(d.InputSchema),
			},
		}})
	}
	return tools
}

// schemaRequired extracts the "required" property list from a JSON schema.
func schemaRequired(schema map[string]any) []string {
	raw, ok := schema["required"].([]any)
	if !ok {
		return nil
	}
	var required []string
	for _, entry := range raw {
		if name, ok := entry.(string); ok {
			required = append(required, name)
		}
	}
	return required
}

// processAnthropicResponse converts an Anthropic API response into our
// internal block format.
func processAnthropicResponse(resp *anthropic.Message) (*Response, error) {
	var blocks []transcript.Block
	for _, content := range resp.Content {
		switch c := content.AsAny().(type) {
		case anthropic.TextBlock:
			blocks = append(blocks, transcript.TextBlock{Text: c.Text})
		case anthropic.ToolUseBlock:
			var args map[string]any
			if err := json.Unmarshal(c.Input, &args); err != nil {
				return nil, errors.Wrapf(err, "failed to unmarshal tool call input")
			}
			blocks = append(blocks, transcript.ToolUseBlock{
				ID:    c.ID,
				Name:  c.Name,
				Input: args,
			})
		}
	}
	return &Response{Blocks: blocks}, nil
}
