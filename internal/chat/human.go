package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrInputClosed is returned once the human's input stream has ended.
var ErrInputClosed = errors.New("input closed")

// HumanInput asks the person at the keyboard for a reply.
type HumanInput interface {
	Ask(ctx context.Context, from, question string) (string, error)
}

// LineReader reads the user's lines from one shared stream, so the session
// loop and participants asking follow-up questions never race for input.
type LineReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func NewLineReader(in io.Reader, out io.Writer) *LineReader {
	return &LineReader{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// ReadLine prints prompt and returns the next line without its newline.
func (r *LineReader) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(r.out, prompt)
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", ErrInputClosed
	}
	return r.scanner.Text(), nil
}

// Ask shows the participant's question and reads the user's answer.
func (r *LineReader) Ask(ctx context.Context, from, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(r.out, "%s: %s\n", from, question)
	return r.ReadLine("You: ")
}
