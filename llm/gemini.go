package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/okriek/inkwell/errors"
	"github.com/okriek/inkwell/toolbridge"
	"github.com/okriek/inkwell/transcript"
)

// GeminiClient is a client for the Google Gemini API. Gemini has no tool
// call correlation ids, so ids are synthesized for requests and resolved
// back to function names when replaying result envelopes.
type GeminiClient struct {
	model *genai.GenerativeModel
}

// NewGeminiClient creates a new GeminiClient.
// It requires the GEMINI_API_KEY environment variable to be set.
func NewGeminiClient(ctx context.Context, modelName string) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create genai client")
	}

	return &GeminiClient{
		model: client.GenerativeModel(modelName),
	}, nil
}

// Complete sends the transcript and tool catalog to the Gemini API.
func (g *GeminiClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	history := convertTurnsToGeminiContent(req.Turns)
	if len(history) == 0 {
		return nil, errors.New("cannot send an empty transcript to Gemini")
	}

	g.model.Tools = convertDescriptorsToGeminiTools(req.Tools)
	g.model.SetMaxOutputTokens(int32(req.MaxTokens))

	// The last entry is the new prompt; everything before it is history.
	last := history[len(history)-1]
	chat := g.model.StartChat()
	chat.History = history[:len(history)-1]

	resp, err := chat.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message to Gemini")
	}

	return processGeminiResponse(resp)
}

// convertTurnsToGeminiContent converts our internal turn format to
// Gemini's content format.
func convertTurnsToGeminiContent(turns []transcript.Turn) []*genai.Content {
	var contents []*genai.Content

	// Result envelopes reference tool calls by correlation id only; Gemini
	// wants the function name back, so track the mapping while converting.
	nameByID := make(map[string]string)

	for _, turn := range turns {
		role := "user"
		if turn.Role == transcript.RoleAssistant {
			role = "model"
		}

		var parts []genai.Part
		for _, block := range turn.Blocks {
			switch b := block.(type) {
			case transcript.TextBlock:
				parts = append(parts, genai.Text(b.Text))
			case transcript.ToolUseBlock:
				nameByID[b.ID] = b.Name
				parts = append(parts, genai.FunctionCall{
					Name: b.Name,
					Args: b.Input,
				})
			case transcript.ToolResultBlock:
				parts = append(parts, genai.FunctionResponse{
					Name: nameByID[b.ToolUseID],
					Response: map[string]any{
						"content":  b.Content,
						"is_error": b.IsError,
					},
				})
			}
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: parts,
		})
	}
	return contents
}

// convertDescriptorsToGeminiTools converts tool descriptors to Gemini's
// FunctionDeclaration format, translating the JSON input schema.
func convertDescriptorsToGeminiTools(descriptors []toolbridge.Descriptor) []*genai.Tool {
	if len(descriptors) == 0 {
		return nil
	}
	var funcDecls []*genai.FunctionDeclaration
	for _, d := range descriptors {
		funcDecls = append(funcDecls, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  geminiSchemaFromMap(d.InputSchema),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: funcDecls}}
}

// geminiSchemaFromMap translates a JSON schema map into genai's schema
// type. Unknown or missing types fall back to string.
func geminiSchemaFromMap(schema map[string]any) *genai.Schema {
	if schema == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}

	out := &genai.Schema{Type: geminiType(schema["type"])}
	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}

	if props, ok := schema["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				out.Properties[name] = geminiSchemaFromMap(sub)
			} else {
				out.Properties[name] = &genai.Schema{Type: genai.TypeString}
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		out.Items = geminiSchemaFromMap(items)
	}
	if raw, ok := schema["required"].([]any); ok {
		for _, entry := range raw {
			if name, ok := entry.(string); ok {
				out.Required = append(out.Required, name)
			}
		}
	}
	return out
}

func geminiType(t any) genai.Type {
	name, _ := t.(string)
	switch name {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "string":
		return genai.TypeString
	default:
		return genai.TypeString
	}
}

// processGeminiResponse converts a Gemini API response into our internal
// block format.
func processGeminiResponse(resp *genai.GenerateContentResponse) (*Response, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("received an empty response from Gemini")
	}

	var blocks []transcript.Block
	callCounter := 0

	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			blocks = append(blocks, transcript.TextBlock{Text: string(v)})
		case genai.FunctionCall:
			blocks = append(blocks, transcript.ToolUseBlock{
				// Gemini does not assign call ids; synthesize one that is
				// unique within the round.
				ID:    fmt.Sprintf("call_%d_%s", callCounter, v.Name),
				Name:  v.Name,
				Input: v.Args,
			})
			callCounter++
		default:
			return nil, errors.New("unsupported part type in Gemini response: %T", v)
		}
	}

	return &Response{Blocks: blocks}, nil
}
