package chat

// Role is who a message is attributed to from the model's point of view.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation transcript.
type Message struct {
	Sender  string // Participant name, or HumanSender for the person at the keyboard
	Role    Role
	Content string
}

// HumanSender names messages typed by the user.
const HumanSender = "user"
