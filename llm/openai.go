package llm

import (
	"context"
	"encoding/json"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/okriek/inkwell/errors"
	"github.com/okriek/inkwell/toolbridge"
	"github.com/okriek/inkwell/transcript"
)

// OpenAIClient is a client for the OpenAI Chat Completion API. The chat
// API has no grouped tool-result message, so a user turn holding several
// result envelopes is unrolled into one "tool" role message per envelope.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAIClient. It requires the
// OPENAI_API_KEY environment variable to be set and honors OPENAI_BASE_URL
// for custom API endpoints.
func NewOpenAIClient(ctx context.Context, modelName string) (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	c := openai.NewClient(options...)
	// The &c is required, do not replace and just use c.
	return &OpenAIClient{client: &c, model: modelName}, nil
}

// Complete sends the transcript and tool catalog to OpenAI and converts
// the response into our internal block format.
func (o *OpenAIClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	chatMessages, err := convertTurnsToOpenAIMessages(req.Turns)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(o.model),
		Messages:            chatMessages,
		Tools:               convertDescriptorsToOpenAITools(req.Tools),
		MaxCompletionTokens: openai.Int(int64(req.MaxTokens)),
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message to OpenAI")
	}

	return processOpenAIResponse(resp)
}

// convertTurnsToOpenAIMessages converts our internal turn format to
// OpenAI's chat message format.
func convertTurnsToOpenAIMessages(turns []transcript.Turn) ([]openai.ChatCompletionMessageParamUnion, error) {
	var chatMessages []openai.ChatCompletionMessageParamUnion
	for _, turn := range turns {
		text := ""
		var toolCalls []openai.ChatCompletionMessageToolCallUnion
		var results []transcript.ToolResultBlock

		for _, block := range turn.Blocks {
			switch b := block.(type) {
			case transcript.TextBlock:
				text += b.Text
			case transcript.ToolUseBlock:
				args, err := json.Marshal(b.Input)
				if err != nil {
					return nil, errors.Wrapf(err, "could not marshal tool call arguments for %s", b.Name)
				}
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallUnion{
					ID:   b.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageFunctionToolCallFunction{
						Name:      b.Name,
						Arguments: string(args),
					},
				})
			case transcript.ToolResultBlock:
				results = append(results, b)
			}
		}

		switch {
		case len(results) > 0:
			// Tool results become individual "tool" role messages keyed by
			// the call id.
			for _, r := range results {
				chatMessages = append(chatMessages, openai.ToolMessage(r.Content, r.ToolUseID))
			}
		case turn.Role == transcript.RoleAssistant:
			assistantMessage := openai.ChatCompletionMessage{
				Role:      "assistant",
				Content:   text,
				ToolCalls: toolCalls,
			}
			chatMessages = append(chatMessages, assistantMessage.ToParam())
		default:
			chatMessages = append(chatMessages, openai.UserMessage(text))
		}
	}
	return chatMessages, nil
}

// convertDescriptorsToOpenAITools converts tool descriptors to the OpenAI
// function tool format, passing the real JSON schema through.
func convertDescriptorsToOpenAITools(descriptors []toolbridge.Descriptor) []openai.ChatCompletionToolUnionParam {
	if len(descriptors) == 0 {
		return nil
	}
	var tools []openai.ChatCompletionToolUnionParam
	for _, d := range descriptors {
		tools = append(tools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        d.Name,
			Description: openai.String(d.Description),
			Parameters:  openai.FunctionParameters(d.InputSchema),
		}))
	}
	return tools
}

// processOpenAIResponse converts an OpenAI API response into our internal
// block format.
func processOpenAIResponse(resp *openai.ChatCompletion) (*Response, error) {
	if len(resp.Choices) == 0 {
		return &Response{}, nil
	}

	choice := resp.Choices[0].Message

	var blocks []transcript.Block
	if choice.Content != "" {
		blocks = append(blocks, transcript.TextBlock{Text: choice.Content})
	}
	for _, tc := range choice.ToolCalls {
		var args map[string]any
		// Arguments arrive as a JSON string holding a flat argument map.
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal function call arguments from OpenAI")
		}
		blocks = append(blocks, transcript.ToolUseBlock{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: args,
		})
	}

	return &Response{Blocks: blocks}, nil
}
