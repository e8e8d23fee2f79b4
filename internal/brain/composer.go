package brain

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/recommender/common/llm"
	"basegraph.app/recommender/common/logger"
	"basegraph.app/recommender/internal/chat"
)

// Composer writes the final recommendation from preferences and products.
type Composer struct {
	participant *chat.Participant
	llm         llm.AgentClient
	maxTokens   int
}

func NewComposer(client llm.AgentClient, maxTokens int) *Composer {
	return &Composer{
		participant: chat.NewParticipant(chat.ParticipantConfig{
			Name:         ComposerName,
			SystemPrompt: composerPrompt,
			InputMode:    chat.InputModeNever,
		}),
		llm:       client,
		maxTokens: maxTokens,
	}
}

func (c *Composer) Participant() *chat.Participant {
	return c.participant
}

// Compose takes a single model turn over message.
func (c *Composer) Compose(ctx context.Context, message string) (*chat.Transcript, error) {
	p := c.participant
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Participant: logger.Ptr(p.Name()),
		Component:   "recommender.brain.composer",
	})

	p.Hear(coordinatorName, message)

	resp, err := c.llm.ChatWithTools(ctx, llm.AgentRequest{
		Messages:  p.LLMMessages(),
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("composer turn: %w", err)
	}

	p.Say(resp.Content)
	slog.DebugContext(ctx, "recommendation composed",
		"finish_reason", resp.FinishReason,
		"length", len(resp.Content))
	return p.Transcript(), nil
}
