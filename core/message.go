package core

import "github.com/google/uuid"

// Well-known message roles. Any other role is the display name of the agent
// that authored the message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversational record delivered into agent mailboxes.
// It is a plain value: copies are independent and equality is structural.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a message with an arbitrary role (usually an agent display name).
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}

// SystemMessage creates a system-role message.
func SystemMessage(content string) Message { return NewMessage(RoleSystem, content) }

// UserMessage creates a user-authored message.
func UserMessage(content string) Message { return NewMessage(RoleUser, content) }

// AssistantMessage creates a message authored by the receiving agent itself.
func AssistantMessage(content string) Message { return NewMessage(RoleAssistant, content) }

// IsWellKnownRole reports whether role is one of system, user or assistant.
func (m Message) IsWellKnownRole() bool {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// NewID generates a new unique identifier for runs and turns.
func NewID() string { return uuid.NewString() }
