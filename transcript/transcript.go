// Package transcript holds the conversation data model shared by the agent
// loop and the model clients: turns, their content blocks, and the
// human-readable execution log accumulated over one task.
package transcript

import (
	"fmt"
	"strings"
)

// Role tags a turn with its author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Block is one content block inside a turn. The concrete types are
// TextBlock, ToolUseBlock and ToolResultBlock; the sealed interface forces
// every consumer into an exhaustive type switch.
type Block interface {
	isBlock()
}

// TextBlock is a plain text segment authored by the user or the model.
type TextBlock struct {
	Text string `json:"text"`
}

// ToolUseBlock is a tool invocation requested by the model. ID is the
// correlation token echoed back in the matching ToolResultBlock.
type ToolUseBlock struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ToolResultBlock is the result envelope for a single tool invocation.
// IsError means the invocation raised instead of returning; the error text
// is carried in Content so the model can react to it.
type ToolResultBlock struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

func (TextBlock) isBlock()       {}
func (ToolUseBlock) isBlock()    {}
func (ToolResultBlock) isBlock() {}

// Turn is one entry of the conversation.
type Turn struct {
	Role   Role    `json:"role"`
	Blocks []Block `json:"blocks"`
}

// UserText builds a user turn holding a single text block.
func UserText(text string) Turn {
	return Turn{Role: RoleUser, Blocks: []Block{TextBlock{Text: text}}}
}

// AssistantText builds an assistant turn holding a single text block.
func AssistantText(text string) Turn {
	return Turn{Role: RoleAssistant, Blocks: []Block{TextBlock{Text: text}}}
}

// Transcript is the append-only turn history of one task. Turns are
// replayed to the model verbatim, in causal order; nothing is ever
// rewritten or removed within a task.
type Transcript struct {
	turns []Turn
}

func New() *Transcript {
	return &Transcript{}
}

// Append adds a turn at the end of the history.
func (t *Transcript) Append(turn Turn) {
	t.turns = append(t.turns, turn)
}

// Turns returns the history in causal order. Callers must not mutate the
// returned slice.
func (t *Transcript) Turns() []Turn {
	return t.turns
}

func (t *Transcript) Len() int {
	return len(t.turns)
}

// ExecutionLog collects human-readable lines describing model text, tool
// call attempts and tool outcomes over the life of one task. It is display
// only and is never fed back to the model.
type ExecutionLog struct {
	lines []string
}

func NewExecutionLog() *ExecutionLog {
	return &ExecutionLog{}
}

// Appendf records one formatted line.
func (l *ExecutionLog) Appendf(format string, a ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, a...))
}

// Lines returns the recorded lines in order.
func (l *ExecutionLog) Lines() []string {
	return l.lines
}

// String joins the recorded lines with newlines for display.
func (l *ExecutionLog) String() string {
	return strings.Join(l.lines, "\n")
}
