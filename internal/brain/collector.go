package brain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"basegraph.app/recommender/common/llm"
	"basegraph.app/recommender/common/logger"
	"basegraph.app/recommender/internal/chat"
)

const exitReply = "exit"

// Collector interviews the user until their preferences are known.
type Collector struct {
	participant *chat.Participant
	llm         llm.AgentClient
	human       chat.HumanInput
	maxRounds   int
	maxTokens   int
}

func NewCollector(client llm.AgentClient, human chat.HumanInput, maxRounds, maxTokens int) *Collector {
	return &Collector{
		participant: chat.NewParticipant(chat.ParticipantConfig{
			Name:          CollectorName,
			SystemPrompt:  collectorPrompt,
			InputMode:     chat.InputModeAlways,
			IsTermination: IsTerminationMessage,
		}),
		llm:       client,
		human:     human,
		maxRounds: maxRounds,
		maxTokens: maxTokens,
	}
}

func (c *Collector) Participant() *chat.Participant {
	return c.participant
}

// Collect runs the interview starting from the user's utterance. It stops at
// the termination marker, when the user leaves, or after maxRounds messages;
// in every case the transcript so far is returned.
func (c *Collector) Collect(ctx context.Context, utterance string) (*chat.Transcript, error) {
	p := c.participant
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Participant: logger.Ptr(p.Name()),
		Component:   "recommender.brain.collector",
	})

	p.Hear(chat.HumanSender, utterance)

	for p.Transcript().Len() < c.maxRounds {
		resp, err := c.llm.ChatWithTools(ctx, llm.AgentRequest{
			Messages:  p.LLMMessages(),
			Tools:     []llm.Tool{submitPreferencesToolDef()},
			MaxTokens: c.maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("collector turn: %w", err)
		}

		outcome, err := classifyTurn(resp)
		if err != nil {
			return nil, fmt.Errorf("collector turn: %w", err)
		}

		var question string
		switch o := outcome.(type) {
		case PreferencesReady:
			text := o.Text
			if text == "" {
				text = MarkerMessage(o.Preferences)
			}
			p.Say(text)
			slog.InfoContext(ctx, "preferences collected",
				"preferences", o.Preferences,
				"messages", p.Transcript().Len())
			return p.Transcript(), nil
		case Continue:
			msg := p.Say(o.Text)
			if p.IsTermination(msg) {
				slog.InfoContext(ctx, "collector ended with a malformed marker",
					"content", logger.Truncate(o.Text, 200))
				return p.Transcript(), nil
			}
			question = o.Text
		}

		if p.Transcript().Len() >= c.maxRounds {
			break
		}
		if p.InputMode() != chat.InputModeAlways {
			continue
		}

		reply, err := c.human.Ask(ctx, p.Name(), question)
		if errors.Is(err, chat.ErrInputClosed) {
			slog.DebugContext(ctx, "input closed during interview")
			return p.Transcript(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("asking user: %w", err)
		}

		reply = strings.TrimSpace(reply)
		if strings.EqualFold(reply, exitReply) {
			slog.DebugContext(ctx, "user left the interview")
			return p.Transcript(), nil
		}
		if reply == "" {
			reply = proceedNudge
		}
		p.Hear(chat.HumanSender, reply)
	}

	slog.InfoContext(ctx, "collector hit round limit",
		"max_rounds", c.maxRounds)
	return p.Transcript(), nil
}
