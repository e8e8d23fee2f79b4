package brain_test

import (
	"context"
	"errors"

	"basegraph.app/recommender/common/llm"
	"basegraph.app/recommender/internal/brain"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Collector", func() {
	var (
		ctx       context.Context
		agent     *mockAgentClient
		human     *mockHuman
		collector *brain.Collector
	)

	BeforeEach(func() {
		ctx = context.Background()
		agent = &mockAgentClient{}
		human = &mockHuman{}
		collector = brain.NewCollector(agent, human, 12, 0)
	})

	It("records the canonical marker when the model submits preferences", func() {
		agent.chatFn = scriptAgent(submit("shirt", "casual", "summer"))

		t, err := collector.Collect(ctx, "I want a casual shirt for summer")

		Expect(err).NotTo(HaveOccurred())
		Expect(t.Len()).To(Equal(2))
		Expect(t.LastContent()).To(Equal("CHECKING PRODUCTS BASED ON: ['shirt', 'casual', 'summer']"))
		Expect(human.questions).To(BeEmpty())

		req := agent.requests[0]
		Expect(req.Tools).To(HaveLen(1))
		Expect(req.Tools[0].Name).To(Equal("submit_preferences"))
		Expect(req.Tools[0].Strict).To(BeTrue())
		Expect(req.Messages[0].Role).To(Equal("system"))
		Expect(req.Messages[1].Content).To(Equal("I want a casual shirt for summer"))
	})

	It("keeps the model's own marker line verbatim", func() {
		agent.chatFn = scriptAgent(text("Got it! CHECKING PRODUCTS BASED ON: ['hat', 'wool']"))

		t, err := collector.Collect(ctx, "a warm hat")

		Expect(err).NotTo(HaveOccurred())
		prefs, ok := brain.ExtractPreferences(t.Messages())
		Expect(ok).To(BeTrue())
		Expect(prefs).To(Equal("['hat', 'wool']"))
	})

	It("asks the user between turns until preferences are ready", func() {
		agent.chatFn = scriptAgent(
			text("What colour do you like?"),
			text("Short or long sleeves?"),
			submit("shirt", "blue", "short sleeves"),
		)
		human.replies = []string{"blue", "short"}

		t, err := collector.Collect(ctx, "a shirt")

		Expect(err).NotTo(HaveOccurred())
		Expect(human.questions).To(Equal([]string{"What colour do you like?", "Short or long sleeves?"}))
		Expect(t.Len()).To(Equal(6))
		Expect(agent.callCount).To(Equal(3))

		last := agent.requests[2].Messages
		Expect(last[len(last)-1].Content).To(Equal("short"))
		Expect(last[len(last)-2].Role).To(Equal("assistant"))
	})

	It("nudges the model when the user sends an empty reply", func() {
		agent.chatFn = scriptAgent(text("Any colour preference?"), submit("shirt"))
		human.replies = []string{"   "}

		_, err := collector.Collect(ctx, "a shirt")

		Expect(err).NotTo(HaveOccurred())
		msgs := agent.requests[1].Messages
		Expect(msgs[len(msgs)-1].Content).To(ContainSubstring("go ahead with what you have"))
	})

	It("stops when the user types exit", func() {
		agent.chatFn = scriptAgent(text("Which size?"))
		human.replies = []string{"EXIT"}

		t, err := collector.Collect(ctx, "a shirt")

		Expect(err).NotTo(HaveOccurred())
		Expect(t.Len()).To(Equal(2))
		_, ok := brain.ExtractPreferences(t.Messages())
		Expect(ok).To(BeFalse())
	})

	It("stops when input is closed", func() {
		agent.chatFn = scriptAgent(text("Which size?"))

		t, err := collector.Collect(ctx, "a shirt")

		Expect(err).NotTo(HaveOccurred())
		Expect(t.Len()).To(Equal(2))
		Expect(agent.callCount).To(Equal(1))
	})

	It("ends on a lowercase marker without extracting anything", func() {
		agent.chatFn = scriptAgent(text("checking products based on what you said"))

		t, err := collector.Collect(ctx, "a shirt")

		Expect(err).NotTo(HaveOccurred())
		Expect(human.questions).To(BeEmpty())
		_, ok := brain.ExtractPreferences(t.Messages())
		Expect(ok).To(BeFalse())
	})

	It("never exceeds the round limit", func() {
		collector = brain.NewCollector(agent, human, 4, 0)
		agent.chatFn = func(ctx context.Context, req llm.AgentRequest) (*llm.AgentResponse, error) {
			return text("Tell me more?"), nil
		}
		human.replies = []string{"more", "more", "more", "more"}

		t, err := collector.Collect(ctx, "a shirt")

		Expect(err).NotTo(HaveOccurred())
		Expect(t.Len()).To(Equal(4))
		Expect(agent.callCount).To(Equal(2))
	})

	It("fails on an inference error", func() {
		agent.chatFn = func(ctx context.Context, req llm.AgentRequest) (*llm.AgentResponse, error) {
			return nil, errors.New("rate limited")
		}

		_, err := collector.Collect(ctx, "a shirt")
		Expect(err).To(MatchError(ContainSubstring("rate limited")))
	})

	It("fails on a malformed preferences call", func() {
		agent.chatFn = scriptAgent(&llm.AgentResponse{
			ToolCalls: []llm.ToolCall{{ID: "c", Name: "submit_preferences", Arguments: "{not json"}},
		})

		_, err := collector.Collect(ctx, "a shirt")
		Expect(err).To(MatchError(ContainSubstring("submit_preferences")))
	})

	It("fails on an empty preferences call", func() {
		agent.chatFn = scriptAgent(submit(" "))

		_, err := collector.Collect(ctx, "a shirt")
		Expect(err).To(MatchError(ContainSubstring("no preferences")))
	})

	It("reports human input failures", func() {
		agent.chatFn = scriptAgent(text("Which size?"))
		human.err = errors.New("terminal gone")

		_, err := collector.Collect(ctx, "a shirt")
		Expect(err).To(MatchError(ContainSubstring("terminal gone")))
	})
})
