package config_test

import (
	"os"
	"time"

	"basegraph.app/recommender/core/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// setEnv sets an environment variable for the current test and restores it afterwards.
func setEnv(key, value string) {
	previous, had := os.LookupEnv(key)
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(key, previous)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(key string) {
	previous, had := os.LookupEnv(key)
	Expect(os.Unsetenv(key)).To(Succeed())
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(key, previous)
		}
	})
}

var _ = Describe("Load", func() {
	BeforeEach(func() {
		// production skips .env loading so a stray file cannot leak in
		setEnv("RECOMMENDER_ENV", "production")
		for _, key := range []string{
			"LLM_PROVIDER", "LLM_API_KEY", "LLM_MODEL", "TYPESENSE_COLLECTION",
			"CATALOG_PATH", "CATALOG_OVERWRITE", "CATALOG_SEARCH_LIMIT",
			"REDIS_URL", "RETRIEVAL_CACHE_TTL", "COLLECTOR_MAX_ROUNDS",
		} {
			unsetEnv(key)
		}
	})

	Context("without an OpenAI key", func() {
		It("fails fast", func() {
			unsetEnv("OPENAI_API_KEY")

			_, err := config.Load()

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("OPENAI_API_KEY"))
		})
	})

	Context("with only the OpenAI key", func() {
		BeforeEach(func() {
			setEnv("OPENAI_API_KEY", "sk-test")
		})

		It("applies defaults", func() {
			cfg, err := config.Load()

			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.IsProduction()).To(BeTrue())
			Expect(cfg.AgentLLM.Provider).To(Equal("openai"))
			Expect(cfg.AgentLLM.APIKey).To(Equal("sk-test"))
			Expect(cfg.AgentLLM.Model).To(Equal("gpt-4"))
			Expect(cfg.Typesense.Collection).To(Equal("product-catalog"))
			Expect(cfg.Catalog.Path).To(Equal("products.csv"))
			Expect(cfg.Catalog.Overwrite).To(BeFalse())
			Expect(cfg.Catalog.SearchLimit).To(Equal(5))
			Expect(cfg.Pipeline.MaxRounds).To(Equal(12))
			Expect(cfg.Cache.Enabled()).To(BeFalse())
			Expect(cfg.OTel.Enabled()).To(BeFalse())
		})

		It("reads overrides", func() {
			setEnv("LLM_PROVIDER", "anthropic")
			setEnv("LLM_API_KEY", "sk-ant")
			setEnv("CATALOG_OVERWRITE", "true")
			setEnv("REDIS_URL", "redis://localhost:6379/1")
			setEnv("RETRIEVAL_CACHE_TTL", "90s")
			setEnv("COLLECTOR_MAX_ROUNDS", "6")

			cfg, err := config.Load()

			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.AgentLLM.Provider).To(Equal("anthropic"))
			Expect(cfg.AgentLLM.APIKey).To(Equal("sk-ant"))
			Expect(cfg.AgentLLM.Enabled()).To(BeTrue())
			Expect(cfg.Catalog.Overwrite).To(BeTrue())
			Expect(cfg.Cache.Enabled()).To(BeTrue())
			Expect(cfg.Cache.TTL).To(Equal(90 * time.Second))
			Expect(cfg.Pipeline.MaxRounds).To(Equal(6))
		})

		It("ignores malformed numbers", func() {
			setEnv("CATALOG_SEARCH_LIMIT", "many")

			cfg, err := config.Load()

			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Catalog.SearchLimit).To(Equal(5))
		})

		It("rejects an unknown conversational provider", func() {
			setEnv("LLM_PROVIDER", "mystery")

			_, err := config.Load()

			Expect(err).To(MatchError(ContainSubstring("LLM_PROVIDER")))
			Expect(err.Error()).To(ContainSubstring(`"mystery"`))
		})

		It("rejects a blanked conversational key", func() {
			setEnv("LLM_API_KEY", "")

			_, err := config.Load()

			Expect(err).To(MatchError(ContainSubstring("LLM_API_KEY")))
		})

		It("rejects a round limit that leaves no room for a reply", func() {
			setEnv("COLLECTOR_MAX_ROUNDS", "1")

			_, err := config.Load()

			Expect(err).To(MatchError(ContainSubstring("COLLECTOR_MAX_ROUNDS")))
		})
	})
})
