package chat_test

import (
	"basegraph.app/recommender/internal/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Transcript", func() {
	var t *chat.Transcript

	BeforeEach(func() {
		t = chat.NewTranscript()
	})

	It("starts empty", func() {
		Expect(t.Len()).To(Equal(0))
		Expect(t.LastContent()).To(BeEmpty())
		_, ok := t.Last()
		Expect(ok).To(BeFalse())
	})

	It("keeps messages in append order", func() {
		t.Append(chat.Message{Sender: "a", Role: chat.RoleUser, Content: "one"})
		t.Append(chat.Message{Sender: "b", Role: chat.RoleAssistant, Content: "two"})

		msgs := t.Messages()
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0].Content).To(Equal("one"))
		Expect(msgs[1].Content).To(Equal("two"))
		Expect(t.LastContent()).To(Equal("two"))
	})

	It("hands out copies that later appends and edits don't touch", func() {
		t.Append(chat.Message{Content: "one"})
		snapshot := t.Messages()
		snapshot[0].Content = "changed"
		t.Append(chat.Message{Content: "two"})

		Expect(snapshot).To(HaveLen(1))
		Expect(t.Messages()[0].Content).To(Equal("one"))
	})

	It("keeps seeded messages in order", func() {
		seeded := chat.NewTranscript(chat.Message{Content: "one"}, chat.Message{Content: "two"})

		Expect(seeded.Len()).To(Equal(2))
		Expect(seeded.Messages()[0].Content).To(Equal("one"))
		Expect(seeded.LastContent()).To(Equal("two"))
	})
})
