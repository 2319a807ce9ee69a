package llm

import (
	"context"
	"fmt"

	"github.com/okriek/inkwell/toolbridge"
	"github.com/okriek/inkwell/transcript"
)

// Request is one model call: the full transcript so far, the tool catalog
// for this task, and the output token ceiling.
type Request struct {
	Turns     []transcript.Turn
	Tools     []toolbridge.Descriptor
	MaxTokens int
}

// Response is the model's answer as an ordered list of content blocks,
// preserving the relative order of text segments and tool invocations.
type Response struct {
	Blocks []transcript.Block
}

// Text concatenates the text blocks of the response.
func (r *Response) Text() string {
	out := ""
	for _, b := range r.Blocks {
		if tb, ok := b.(transcript.TextBlock); ok {
			out += tb.Text
		}
	}
	return out
}

// Client is the interface for interacting with a Large Language Model.
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// MockClient is a placeholder for testing and for running without any API
// credentials. It parrots back the last turn and never requests tools.
type MockClient struct{}

func (m *MockClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	last := "nothing"
	if len(req.Turns) > 0 {
		turn := req.Turns[len(req.Turns)-1]
		for _, b := range turn.Blocks {
			if tb, ok := b.(transcript.TextBlock); ok {
				last = tb.Text
			}
		}
	}
	return &Response{Blocks: []transcript.Block{
		transcript.TextBlock{Text: fmt.Sprintf("I am a mock model. You said: '%s'. I cannot use tools.", last)},
	}}, nil
}
