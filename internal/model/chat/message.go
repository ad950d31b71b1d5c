package chat

import "time"

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one turn of conversation history as exchanged with the chat API.
type Entry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Turn is a transcript line shown to the visitor. Greeting and error turns
// exist only in the transcript and are never part of the history.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Error     bool      `json:"error,omitempty"`
	Greeting  bool      `json:"greeting,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
