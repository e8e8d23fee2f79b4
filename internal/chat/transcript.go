package chat

// Transcript is the ordered message history of one exchange.
// Messages can only be appended; readers get copies.
type Transcript struct {
	messages []Message
}

// NewTranscript returns a transcript seeded with msgs.
func NewTranscript(msgs ...Message) *Transcript {
	t := &Transcript{}
	for _, m := range msgs {
		t.Append(m)
	}
	return t
}

func (t *Transcript) Append(msg Message) {
	t.messages = append(t.messages, msg)
}

// Messages returns a copy of the history.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	return len(t.messages)
}

// Last returns the most recent message.
func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// LastContent returns the content of the most recent message, or "" when empty.
func (t *Transcript) LastContent() string {
	msg, ok := t.Last()
	if !ok {
		return ""
	}
	return msg.Content
}
