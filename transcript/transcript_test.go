package transcript

import "testing"

func TestTranscriptAppendPreservesOrder(t *testing.T) {
	tr := New()
	tr.Append(UserText("first"))
	tr.Append(AssistantText("second"))
	tr.Append(Turn{Role: RoleUser, Blocks: []Block{
		ToolResultBlock{ToolUseID: "t1", Content: "ok"},
	}})

	if tr.Len() != 3 {
		t.Fatalf("expected 3 turns, got %d", tr.Len())
	}

	turns := tr.Turns()
	if turns[0].Role != RoleUser || turns[1].Role != RoleAssistant || turns[2].Role != RoleUser {
		t.Errorf("unexpected role order: %v %v %v", turns[0].Role, turns[1].Role, turns[2].Role)
	}

	first, ok := turns[0].Blocks[0].(TextBlock)
	if !ok || first.Text != "first" {
		t.Errorf("expected first turn to hold text 'first', got %#v", turns[0].Blocks[0])
	}
	result, ok := turns[2].Blocks[0].(ToolResultBlock)
	if !ok || result.ToolUseID != "t1" {
		t.Errorf("expected third turn to hold result for t1, got %#v", turns[2].Blocks[0])
	}
}

func TestBlockKinds(t *testing.T) {
	blocks := []Block{
		TextBlock{Text: "hello"},
		ToolUseBlock{ID: "t1", Name: "add_title", Input: map[string]any{"title": "Report"}},
		ToolResultBlock{ToolUseID: "t1", Content: "done", IsError: false},
	}

	var texts, uses, results int
	for _, b := range blocks {
		switch b.(type) {
		case TextBlock:
			texts++
		case ToolUseBlock:
			uses++
		case ToolResultBlock:
			results++
		}
	}
	if texts != 1 || uses != 1 || results != 1 {
		t.Errorf("expected one block of each kind, got %d/%d/%d", texts, uses, results)
	}
}

func TestExecutionLog(t *testing.T) {
	log := NewExecutionLog()
	log.Appendf("Assistant: %s", "hello")
	log.Appendf("🔧 Calling tool '%s'", "add_title")

	if len(log.Lines()) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(log.Lines()))
	}
	want := "Assistant: hello\n🔧 Calling tool 'add_title'"
	if log.String() != want {
		t.Errorf("unexpected log output: %q", log.String())
	}
}
