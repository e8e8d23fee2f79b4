package session_test

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"basegraph.app/recommender/internal/brain"
	"basegraph.app/recommender/internal/chat"
	"basegraph.app/recommender/internal/session"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockRunner struct {
	runFn     func(ctx context.Context, input string) brain.RunResult
	callCount int
	inputs    []string
}

func (m *mockRunner) Run(ctx context.Context, input string) brain.RunResult {
	m.callCount++
	m.inputs = append(m.inputs, input)
	if m.runFn != nil {
		return m.runFn(ctx, input)
	}
	return brain.RunResult{State: brain.StateDone}
}

type failingSource struct{}

func (failingSource) ReadLine(string) (string, error) {
	return "", errors.New("tty detached")
}

var _ = Describe("Loop", func() {
	var (
		out    *bytes.Buffer
		runner *mockRunner
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		runner = &mockRunner{}
	})

	run := func(input string) error {
		lines := chat.NewLineReader(strings.NewReader(input), out)
		return session.NewLoop(lines, out, runner).Run(context.Background())
	}

	It("says goodbye on quit without running the pipeline", func() {
		Expect(run("quit\n")).To(Succeed())

		Expect(runner.callCount).To(Equal(0))
		Expect(out.String()).To(Equal(session.Banner + "\n" + session.Prompt + session.Goodbye + "\n"))
	})

	DescribeTable("exit keywords",
		func(line string) {
			Expect(run(line + "\nI want a hat\n")).To(Succeed())
			Expect(runner.callCount).To(Equal(0))
			Expect(out.String()).To(HaveSuffix(session.Goodbye + "\n"))
		},
		Entry("exit", "exit"),
		Entry("upper case", "QUIT"),
		Entry("padded", "  Exit  "),
	)

	It("re-prompts on empty input", func() {
		Expect(run("\n   \nquit\n")).To(Succeed())

		Expect(runner.callCount).To(Equal(0))
		Expect(strings.Count(out.String(), session.EmptyMessage)).To(Equal(2))
		Expect(strings.Count(out.String(), session.Prompt)).To(Equal(3))
	})

	It("runs the pipeline once per line with trimmed input", func() {
		Expect(run("  I want a casual shirt for summer \na hat\nexit\n")).To(Succeed())

		Expect(runner.inputs).To(Equal([]string{"I want a casual shirt for summer", "a hat"}))
	})

	It("keeps going after a failed run", func() {
		runner.runFn = func(ctx context.Context, input string) brain.RunResult {
			return brain.RunResult{State: brain.StateDone, Err: errors.New("boom")}
		}

		Expect(run("a shirt\na hat\nquit\n")).To(Succeed())
		Expect(runner.callCount).To(Equal(2))
	})

	It("says goodbye at end of input", func() {
		Expect(run("a shirt\n")).To(Succeed())

		Expect(runner.callCount).To(Equal(1))
		Expect(out.String()).To(HaveSuffix(session.Goodbye + "\n"))
	})

	It("returns read errors", func() {
		err := session.NewLoop(failingSource{}, out, runner).Run(context.Background())
		Expect(err).To(MatchError(ContainSubstring("tty detached")))
	})

	It("stops when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		lines := chat.NewLineReader(strings.NewReader("a shirt\n"), out)
		err := session.NewLoop(lines, out, runner).Run(ctx)

		Expect(err).To(MatchError(context.Canceled))
		Expect(runner.callCount).To(Equal(0))
	})
})
