package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/okriek/inkwell/errors"
	"github.com/okriek/inkwell/toolbridge"
	"github.com/okriek/inkwell/transcript"
)

// BedrockClient is a client for the Anthropic models on AWS Bedrock. The
// request and response bodies use the raw Anthropic messages JSON shape.
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrockClient creates a new BedrockClient.
// It requires AWS credentials to be configured in the environment.
func NewBedrockClient(ctx context.Context, modelID string) (*BedrockClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load AWS config")
	}

	return &BedrockClient{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
	}, nil
}

// Complete sends the transcript and tool catalog to the model via AWS
// Bedrock.
func (b *BedrockClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	body, err := createBedrockRequest(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create Bedrock request body")
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to invoke Bedrock model")
	}

	return processBedrockResponse(resp.Body)
}

// createBedrockRequest builds the Anthropic-on-Bedrock request body.
func createBedrockRequest(req *Request) ([]byte, error) {
	request := map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        req.MaxTokens,
		"messages":          convertTurnsToBedrockMessages(req.Turns),
	}

	if len(req.Tools) > 0 {
		request["tools"] = convertDescriptorsToBedrockTools(req.Tools)
	}

	return json.Marshal(request)
}

func convertTurnsToBedrockMessages(turns []transcript.Turn) []map[string]any {
	var messages []map[string]any
	for _, turn := range turns {
		var content []map[string]any
		for _, block := range turn.Blocks {
			switch b := block.(type) {
			case transcript.TextBlock:
				content = append(content, map[string]any{
					"type": "text",
					"text": b.Text,
				})
			case transcript.ToolUseBlock:
				content = append(content, map[string]any{
					"type":  "tool_use",
					"id":    b.ID,
					"name":  b.Name,
					"input": b.Input,
				})
			case transcript.ToolResultBlock:
				content = append(content, map[string]any{
					"type":        "tool_result",
					"tool_use_id": b.ToolUseID,
					"content":     b.Content,
					"is_error":    b.IsError,
				})
			}
		}
		messages = append(messages, map[string]any{
			"role":    string(turn.Role),
			"content": content,
		})
	}
	return messages
}

func convertDescriptorsToBedrockTools(descriptors []toolbridge.Descriptor) []map[string]any {
	var tools []map[string]any
	for _, d := range descriptors {
		tools = append(tools, map[string]any{
			"name":         d.Name,
			"description":  d.Description,
			"input_schema": d.InputSchema,
		})
	}
	return tools
}

// processBedrockResponse converts a Bedrock response body into our internal
// block format.
func processBedrockResponse(body []byte) (*Response, error) {
	var response map[string]any
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal Bedrock response")
	}

	if errMsg, ok := response["error"]; ok {
		return nil, errors.New("Bedrock API error: %v", errMsg)
	}

	content, ok := response["content"]
	if !ok {
		return &Response{}, nil
	}
	contentArray, ok := content.([]any)
	if !ok {
		return nil, errors.New("unexpected content format in Bedrock response")
	}

	var blocks []transcript.Block
	toolCallIDCounter := 0

	for _, item := range contentArray {
		itemMap, ok := item.(map[string]any)
		if !ok {
			continue
		}
		itemType, ok := itemMap["type"].(string)
		if !ok {
			continue
		}

		switch itemType {
		case "text":
			if text, ok := itemMap["text"].(string); ok {
				blocks = append(blocks, transcript.TextBlock{Text: text})
			}
		case "tool_use":
			name, ok := itemMap["name"].(string)
			if !ok {
				continue
			}
			input, ok := itemMap["input"].(map[string]any)
			if !ok {
				continue
			}
			// Bedrock is expected to echo Anthropic ids; synthesize one
			// only when the field is missing.
			id := fmt.Sprintf("call_%d_%s", toolCallIDCounter, name)
			if toolID, ok := itemMap["id"].(string); ok {
				id = toolID
			}
			blocks = append(blocks, transcript.ToolUseBlock{
				ID:    id,
				Name:  name,
				Input: input,
			})
			toolCallIDCounter++
		}
	}

	return &Response{Blocks: blocks}, nil
}
