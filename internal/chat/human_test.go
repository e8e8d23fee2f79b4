package chat_test

import (
	"bytes"
	"context"
	"strings"

	"basegraph.app/recommender/internal/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LineReader", func() {
	var out *bytes.Buffer

	BeforeEach(func() {
		out = &bytes.Buffer{}
	})

	It("reads successive lines after printing the prompt", func() {
		r := chat.NewLineReader(strings.NewReader("first\nsecond\n"), out)

		line, err := r.ReadLine("You: ")
		Expect(err).NotTo(HaveOccurred())
		Expect(line).To(Equal("first"))

		line, err = r.ReadLine("You: ")
		Expect(err).NotTo(HaveOccurred())
		Expect(line).To(Equal("second"))
		Expect(out.String()).To(Equal("You: You: "))
	})

	It("returns ErrInputClosed at end of input", func() {
		r := chat.NewLineReader(strings.NewReader(""), out)
		_, err := r.ReadLine("You: ")
		Expect(err).To(MatchError(chat.ErrInputClosed))
	})

	It("shows the question before asking", func() {
		r := chat.NewLineReader(strings.NewReader("blue\n"), out)

		reply, err := r.Ask(context.Background(), "initial_assistant", "Which colour?")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(Equal("blue"))
		Expect(out.String()).To(Equal("initial_assistant: Which colour?\nYou: "))
	})

	It("refuses to ask once the context is done", func() {
		r := chat.NewLineReader(strings.NewReader("blue\n"), out)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := r.Ask(ctx, "a", "q")
		Expect(err).To(MatchError(context.Canceled))
		Expect(out.String()).To(BeEmpty())
	})
})
