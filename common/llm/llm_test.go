package llm_test

import (
	"encoding/json"
	"strings"

	"basegraph.app/recommender/common/llm"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SanitizeName", func() {
	DescribeTable("sanitizes participant names for the OpenAI name parameter",
		func(input, expected string) {
			Expect(llm.SanitizeName(input)).To(Equal(expected))
		},
		Entry("valid name unchanged", "initial_assistant", "initial_assistant"),
		Entry("dots replaced with underscore", "rag.proxy", "rag_proxy"),
		Entry("@ replaced with underscore", "shopper@store", "shopper_store"),
		Entry("hyphens preserved", "final-assistant", "final-assistant"),
		Entry("numbers preserved", "agent007", "agent007"),
		Entry("spaces replaced", "final assistant", "final_assistant"),
		Entry("long name truncated to 64 chars", strings.Repeat("a", 100), strings.Repeat("a", 64)),
		Entry("exactly 64 chars unchanged", strings.Repeat("b", 64), strings.Repeat("b", 64)),
		Entry("empty string unchanged", "", ""),
	)
})

var _ = Describe("NewAgentClient", func() {
	It("requires an API key", func() {
		client, err := llm.NewAgentClient(llm.Config{Provider: llm.ProviderOpenAI})
		Expect(err).To(MatchError(ContainSubstring("API key is required")))
		Expect(client).To(BeNil())
	})

	It("rejects unknown providers", func() {
		_, err := llm.NewAgentClient(llm.Config{Provider: "mystery", APIKey: "k"})
		Expect(err).To(MatchError(ContainSubstring("unsupported LLM provider")))
	})

	It("defaults to OpenAI with the gpt-4 model", func() {
		client, err := llm.NewAgentClient(llm.Config{APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("gpt-4"))
	})

	It("builds an Anthropic client when asked", func() {
		client, err := llm.NewAgentClient(llm.Config{Provider: llm.ProviderAnthropic, APIKey: "k", Model: "claude-test"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("claude-test"))
	})
})

var _ = Describe("New", func() {
	It("requires an API key", func() {
		client, err := llm.New(llm.Config{})
		Expect(err).To(HaveOccurred())
		Expect(client).To(BeNil())
	})

	It("falls back to a small default model", func() {
		client, err := llm.New(llm.Config{APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("gpt-4o-mini"))
	})
})

type submitParams struct {
	Preferences []string `json:"preferences" jsonschema:"required,description=Preferences"`
}

var _ = Describe("ParseToolArguments", func() {
	It("decodes JSON arguments into the target type", func() {
		params, err := llm.ParseToolArguments[submitParams](`{"preferences":["shirt","summer"]}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(params.Preferences).To(Equal([]string{"shirt", "summer"}))
	})

	It("reports malformed arguments", func() {
		_, err := llm.ParseToolArguments[submitParams](`{"preferences":`)
		Expect(err).To(MatchError(ContainSubstring("parse tool arguments")))
	})
})

var _ = Describe("GenerateSchemaFrom", func() {
	It("produces a closed object schema with the declared properties", func() {
		data, err := json.Marshal(llm.GenerateSchemaFrom(submitParams{}))
		Expect(err).NotTo(HaveOccurred())

		var doc map[string]any
		Expect(json.Unmarshal(data, &doc)).To(Succeed())
		Expect(doc["type"]).To(Equal("object"))
		Expect(doc["additionalProperties"]).To(Equal(false))
		Expect(doc["properties"]).To(HaveKey("preferences"))
	})
})
