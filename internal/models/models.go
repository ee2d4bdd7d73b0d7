package models

import "time"

type User struct {
	ID         int       `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Password   string    `json:"-"` // empty for accounts created through SSO
	ExternalID string    `json:"-"`
	Name       string    `json:"name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Conversation struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	OwnerID   int       `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Turn is one prompt/completion pair. Prompt and completion are always
// written together; a turn with an empty completion is never persisted.
type Turn struct {
	ID             int       `json:"id"`
	ConversationID int       `json:"conversation_id"`
	Prompt         string    `json:"prompt"`
	Completion     string    `json:"completion"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"-"`
}

// ChatMessage is the provider-agnostic role-tagged message shape sent to the
// completion gateway.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
