package brain

import (
	"basegraph.app/recommender/internal/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("stage classifiers", func() {
	It("finds preferences in a collector transcript", func() {
		t := chat.NewTranscript(
			chat.Message{Sender: chat.HumanSender, Content: "I want a casual shirt for summer"},
			chat.Message{Sender: CollectorName, Content: "CHECKING PRODUCTS BASED ON: ['shirt']"},
		)
		event, prefs := classifyCollection(t)
		Expect(event).To(Equal(EventPreferencesFound))
		Expect(prefs).To(Equal("['shirt']"))
	})

	It("reports missing preferences", func() {
		t := chat.NewTranscript(chat.Message{Content: "What colour?"})
		event, _ := classifyCollection(t)
		Expect(event).To(Equal(EventNoPreferences))
		Expect(abortReason(event)).To(Equal(AbortNoPreferences))
	})

	It("treats a blank retriever reply as no products", func() {
		t := chat.NewTranscript(chat.Message{Content: "problem"}, chat.Message{Content: "  \n"})
		event, _ := classifyRetrieval(t)
		Expect(event).To(Equal(EventNoProducts))
		Expect(abortReason(event)).To(Equal(AbortNoProducts))

		event, _ = classifyRetrieval(chat.NewTranscript())
		Expect(event).To(Equal(EventNoProducts))
	})

	It("passes retrieved text through", func() {
		t := chat.NewTranscript(chat.Message{Content: "1. Shirt (1-shirt)"})
		event, products := classifyRetrieval(t)
		Expect(event).To(Equal(EventProductsFound))
		Expect(products).To(Equal("1. Shirt (1-shirt)"))
		Expect(abortReason(event)).To(Equal(AbortNone))
	})
})
