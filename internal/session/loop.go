package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"basegraph.app/recommender/internal/brain"
	"basegraph.app/recommender/internal/chat"
)

const (
	Banner       = "Welcome to the Product Recommendation Chatbot! Type 'exit' or 'quit' to end the session."
	Prompt       = "You: "
	Goodbye      = "Goodbye!"
	EmptyMessage = "Please enter your preferences."
)

// Runner takes one utterance through the recommendation pipeline.
type Runner interface {
	Run(ctx context.Context, input string) brain.RunResult
}

// LineSource yields the user's lines.
type LineSource interface {
	ReadLine(prompt string) (string, error)
}

// Loop is the interactive session: one pipeline run per non-empty line.
type Loop struct {
	in     LineSource
	out    io.Writer
	runner Runner
}

func NewLoop(in LineSource, out io.Writer, runner Runner) *Loop {
	return &Loop{in: in, out: out, runner: runner}
}

// Run prints the banner and serves lines until exit, quit, end of input or
// context cancellation. Pipeline failures never end the session.
func (l *Loop) Run(ctx context.Context) error {
	fmt.Fprintln(l.out, Banner)

	for {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(l.out, Goodbye)
			return err
		}

		line, err := l.in.ReadLine(Prompt)
		if errors.Is(err, chat.ErrInputClosed) {
			fmt.Fprintln(l.out, Goodbye)
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		input := strings.TrimSpace(line)
		if isExit(input) {
			fmt.Fprintln(l.out, Goodbye)
			return nil
		}
		if input == "" {
			fmt.Fprintln(l.out, EmptyMessage)
			continue
		}

		result := l.runner.Run(ctx, input)
		slog.DebugContext(ctx, "session turn completed",
			"run_id", result.RunID,
			"state", result.State,
			"failed", result.Err != nil)
	}
}

func isExit(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit":
		return true
	}
	return false
}
