// Package shell implements the interactive operator console for the agent.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/okriek/inkwell/agent"
)

var (
	promptColor = color.New(color.FgCyan, color.Bold)
	errorColor  = color.New(color.FgRed)
	noticeColor = color.New(color.FgYellow)
)

// Shell reads user input, toggles modes and runs tasks. It owns the two
// pieces of process-wide state: the current carryover summary and the
// streaming-mode toggle.
type Shell struct {
	agent     *agent.Agent
	in        *bufio.Scanner
	out       io.Writer
	context   string
	streaming bool
}

// New creates a shell reading commands from in and writing to out.
func New(a *agent.Agent, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		agent:   a,
		in:      bufio.NewScanner(in),
		out:     out,
		context: agent.NoPriorContext,
	}
}

// Context returns the current carryover summary.
func (s *Shell) Context() string {
	return s.context
}

// Run starts the interactive command loop. It returns when the user quits
// or input is exhausted; task-level errors are reported and the loop keeps
// accepting commands.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Agentic document client ready")
	fmt.Fprintln(s.out, "Type queries, 'stream' for streaming mode, 'context' to show context, 'reset' to clear it, or 'quit' to exit")

	for {
		if s.streaming {
			promptColor.Fprint(s.out, "\nQuery(streaming): ")
		} else {
			promptColor.Fprint(s.out, "\nQuery: ")
		}
		if !s.in.Scan() {
			break
		}

		query := strings.TrimSpace(s.in.Text())
		if query == "" {
			continue
		}

		switch strings.ToLower(query) {
		case "quit":
			return s.in.Err()
		case "stream":
			s.streaming = !s.streaming
			if s.streaming {
				noticeColor.Fprintln(s.out, "Streaming mode: ON")
			} else {
				noticeColor.Fprintln(s.out, "Streaming mode: OFF")
			}
		case "context":
			fmt.Fprintf(s.out, "Current context: %s\n", s.context)
		case "reset":
			s.context = agent.NoPriorContext
			fmt.Fprintln(s.out, "Context reset.")
		default:
			s.runTask(ctx, query)
		}
	}

	return s.in.Err()
}

// runTask executes one task query in the current mode. Streaming tasks
// never touch the stored carryover summary.
func (s *Shell) runTask(ctx context.Context, query string) {
	if s.streaming {
		if err := s.agent.RunTaskStreaming(ctx, query, s.out); err != nil {
			errorColor.Fprintf(s.out, "Error: %+v\n", err)
		}
		return
	}

	result, err := s.agent.RunTask(ctx, query, s.context)
	if result != nil && len(result.Log) > 0 {
		fmt.Fprintln(s.out, strings.Join(result.Log, "\n"))
	}
	if err != nil {
		// A failed task leaves the previous summary in place.
		errorColor.Fprintf(s.out, "Error: %+v\n", err)
		return
	}
	s.context = result.Summary
}
