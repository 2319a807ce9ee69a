// Package agent implements the agentic control loop: it alternates model
// rounds and tool execution until the model stops requesting tools or the
// round ceiling is reached, then compresses the conversation into a short
// carryover summary for the next task.
package agent

import (
	"context"
	"fmt"
	"io"

	"github.com/okriek/inkwell/config"
	"github.com/okriek/inkwell/errors"
	"github.com/okriek/inkwell/llm"
	"github.com/okriek/inkwell/toolbridge"
	"github.com/okriek/inkwell/transcript"
)

// NoPriorContext is the carryover sentinel used before any task has run
// and after a context reset.
const NoPriorContext = "None. Start of a new conversation."

// contextPrefix introduces the carryover summary when it is replayed as
// assistant-authored context at the start of the next task.
const contextPrefix = "Previous conversation context: "

const summaryPrompt = "Please provide a brief summary of the conversation so far. " +
	"Make sure to prioritize the user's goals, actions taken, and any important " +
	"data like document keys that will be important for the continuation of work. " +
	"List the most recent actions first."

// Agent runs tasks against a model client and an MCP tool session.
type Agent struct {
	client           llm.Client
	session          toolbridge.Session
	maxRounds        int
	maxTokens        int
	summaryMaxTokens int
}

func New(cfg *config.Config, client llm.Client, session toolbridge.Session) *Agent {
	return &Agent{
		client:           client,
		session:          session,
		maxRounds:        cfg.MaxRounds,
		maxTokens:        cfg.MaxTokens,
		summaryMaxTokens: cfg.SummaryMaxTokens,
	}
}

// TaskResult is the outcome of one completed (or ceiling-terminated) task.
type TaskResult struct {
	// Log holds the display-only execution log lines for the task.
	Log []string
	// Summary is the carryover summary produced by the compression step.
	Summary string
}

// RunTask processes one user query through the turn loop and then
// compresses the transcript into a new carryover summary.
//
// A model or tool-listing failure aborts the task and propagates. A
// failure of the compression step returns the accumulated execution log
// alongside the error with an empty summary, so callers can keep their
// previous summary and still display the tool work that happened.
func (a *Agent) RunTask(ctx context.Context, query, priorContext string) (*TaskResult, error) {
	// The toolset is treated as dynamic: re-query it for every task.
	tools, err := toolbridge.ListTools(ctx, a.session)
	if err != nil {
		return nil, err
	}

	log := transcript.NewExecutionLog()
	tr := seedTranscript(query, priorContext)
	invoker := toolbridge.NewInvoker(a.session, log)

	finished := false
	for round := 0; round < a.maxRounds; round++ {
		resp, err := a.client.Complete(ctx, &llm.Request{
			Turns:     tr.Turns(),
			Tools:     tools,
			MaxTokens: a.maxTokens,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "model call failed")
		}

		var results []transcript.Block
		for _, block := range resp.Blocks {
			switch b := block.(type) {
			case transcript.TextBlock:
				log.Appendf("Assistant: %s", b.Text)
				tr.Append(transcript.AssistantText(b.Text))
			case transcript.ToolUseBlock:
				// Tool calls run sequentially, in the model's emission
				// order; each envelope echoes the request's correlation id.
				results = append(results, invoker.Invoke(ctx, b.ID, b.Name, b.Input))
			case transcript.ToolResultBlock:
				// The model never emits result blocks; ignore if it does.
			}
		}

		if len(results) == 0 {
			finished = true
			break
		}

		// The model protocol pairs the tool-call turn with a single
		// following turn holding all of that round's results.
		tr.Append(transcript.Turn{Role: transcript.RoleAssistant, Blocks: resp.Blocks})
		tr.Append(transcript.Turn{Role: transcript.RoleUser, Blocks: results})
	}

	if !finished {
		log.Appendf("⚠️ Reached maximum iterations (%d)", a.maxRounds)
	}

	// Compression runs even after ceiling termination: an unfinished task
	// is a bounded-effort result, and the next task still needs carryover.
	summary, err := a.summarize(ctx, tr)
	if err != nil {
		return &TaskResult{Log: log.Lines()}, errors.Wrapf(err, "context compression failed")
	}

	return &TaskResult{Log: log.Lines(), Summary: summary}, nil
}

// RunTaskStreaming processes one user query while printing progress to out
// as it happens. It never produces a carryover summary.
func (a *Agent) RunTaskStreaming(ctx context.Context, query string, out io.Writer) error {
	tools, err := toolbridge.ListTools(ctx, a.session)
	if err != nil {
		return err
	}

	log := transcript.NewExecutionLog()
	tr := seedTranscript(query, "")
	invoker := toolbridge.NewInvoker(a.session, log)

	fmt.Fprintf(out, "🤖 Processing: %s\n", query)

	finished := false
	for round := 0; round < a.maxRounds; round++ {
		fmt.Fprintf(out, "--- Iteration %d ---\n", round+1)

		resp, err := a.client.Complete(ctx, &llm.Request{
			Turns:     tr.Turns(),
			Tools:     tools,
			MaxTokens: a.maxTokens,
		})
		if err != nil {
			return errors.Wrapf(err, "model call failed")
		}

		var results []transcript.Block
		for _, block := range resp.Blocks {
			switch b := block.(type) {
			case transcript.TextBlock:
				fmt.Fprintf(out, "Assistant: %s\n", b.Text)
				tr.Append(transcript.AssistantText(b.Text))
			case transcript.ToolUseBlock:
				fmt.Fprintf(out, "🔧 Calling '%s'...\n", b.Name)
				result := invoker.Invoke(ctx, b.ID, b.Name, b.Input)
				if result.IsError {
					fmt.Fprintf(out, "❌ %s\n", result.Content)
				} else {
					fmt.Fprintln(out, "✅ Success")
				}
				results = append(results, result)
			case transcript.ToolResultBlock:
			}
		}

		if len(results) == 0 {
			finished = true
			break
		}

		tr.Append(transcript.Turn{Role: transcript.RoleAssistant, Blocks: resp.Blocks})
		tr.Append(transcript.Turn{Role: transcript.RoleUser, Blocks: results})
	}

	if finished {
		fmt.Fprintln(out, "🏁 Task complete!")
	} else {
		fmt.Fprintf(out, "⚠️ Reached maximum iterations (%d)\n", a.maxRounds)
	}

	return nil
}

// seedTranscript builds the initial transcript for a task: the carryover
// summary (when present) replayed as assistant-authored context, followed
// by the user query.
func seedTranscript(query, priorContext string) *transcript.Transcript {
	tr := transcript.New()
	if priorContext != "" {
		tr.Append(transcript.AssistantText(contextPrefix + priorContext))
	}
	tr.Append(transcript.UserText(query))
	return tr
}

// summarize issues one additional model request asking for a compressed
// summary of the task's transcript. Only this string, never the full
// transcript, survives into the next task.
func (a *Agent) summarize(ctx context.Context, tr *transcript.Transcript) (string, error) {
	turns := append(append([]transcript.Turn{}, tr.Turns()...), transcript.UserText(summaryPrompt))

	resp, err := a.client.Complete(ctx, &llm.Request{
		Turns:     turns,
		MaxTokens: a.summaryMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
