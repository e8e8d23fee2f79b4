package chat

import (
	"basegraph.app/recommender/common/llm"
)

// InputMode says whether a participant pauses for the human between turns.
type InputMode string

const (
	InputModeAlways InputMode = "always"
	InputModeNever  InputMode = "never"
)

// TerminationFunc reports whether msg ends the participant's exchange.
type TerminationFunc func(msg Message) bool

type ParticipantConfig struct {
	Name          string
	SystemPrompt  string
	InputMode     InputMode
	IsTermination TerminationFunc // Optional
}

// Participant is a named conversational entity with fixed instructions.
// It owns the transcript of its current exchange; Reset clears it between runs.
type Participant struct {
	name          string
	systemPrompt  string
	inputMode     InputMode
	isTermination TerminationFunc
	transcript    *Transcript
}

func NewParticipant(cfg ParticipantConfig) *Participant {
	mode := cfg.InputMode
	if mode == "" {
		mode = InputModeNever
	}
	return &Participant{
		name:          cfg.Name,
		systemPrompt:  cfg.SystemPrompt,
		inputMode:     mode,
		isTermination: cfg.IsTermination,
		transcript:    NewTranscript(),
	}
}

func (p *Participant) Name() string {
	return p.name
}

func (p *Participant) SystemPrompt() string {
	return p.systemPrompt
}

func (p *Participant) InputMode() InputMode {
	return p.inputMode
}

// IsTermination applies the termination predicate; false when none is set.
func (p *Participant) IsTermination(msg Message) bool {
	if p.isTermination == nil {
		return false
	}
	return p.isTermination(msg)
}

// Transcript returns the participant's current exchange.
func (p *Participant) Transcript() *Transcript {
	return p.transcript
}

// Say records a message authored by this participant.
func (p *Participant) Say(content string) Message {
	msg := Message{Sender: p.name, Role: RoleAssistant, Content: content}
	p.transcript.Append(msg)
	return msg
}

// Hear records a message addressed to this participant.
func (p *Participant) Hear(sender, content string) Message {
	msg := Message{Sender: sender, Role: RoleUser, Content: content}
	p.transcript.Append(msg)
	return msg
}

// Reset clears all per-exchange state. Calling it repeatedly is harmless.
func (p *Participant) Reset() {
	p.transcript = NewTranscript()
}

// LLMMessages renders the system prompt and transcript as model input.
// The participant's own messages become assistant turns; everyone else's
// become named user turns.
func (p *Participant) LLMMessages() []llm.Message {
	msgs := make([]llm.Message, 0, p.transcript.Len()+1)
	if p.systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: string(RoleSystem), Content: p.systemPrompt})
	}
	for _, m := range p.transcript.Messages() {
		if m.Sender == p.name {
			msgs = append(msgs, llm.Message{Role: string(RoleAssistant), Content: m.Content})
			continue
		}
		msgs = append(msgs, llm.Message{
			Role:    string(RoleUser),
			Name:    llm.SanitizeName(m.Sender),
			Content: m.Content,
		})
	}
	return msgs
}
