// Package proto shared protocol.
package proto

import (
	"strings"
)

// Roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chunk is one decoded streaming chunk.
type Chunk struct {
	ID      string   `json:"id"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Choice is a single choice of a [Chunk].
type Choice struct {
	Index        int     `json:"index"`
	FinishReason *string `json:"finish_reason"`
	Delta        Delta   `json:"delta"`
}

// Delta is the incremental part of a [Choice].
type Delta struct {
	Role    *string `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Message is a message in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat request.
type Request struct {
	Messages   []Message
	Model      string
	MaxRetries int
}

// Conversation is a conversation.
type Conversation []Message

func (cc Conversation) String() string {
	var sb strings.Builder
	for _, msg := range cc {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case RoleSystem:
			sb.WriteString("**System**: ")
		case RoleUser:
			sb.WriteString("**User**: ")
		case RoleAssistant:
			sb.WriteString("**Assistant**: ")
		}
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// LastPrompt returns the content of the last user message.
func (cc Conversation) LastPrompt() string {
	var result string
	for _, msg := range cc {
		if msg.Role != RoleUser {
			continue
		}
		result = msg.Content
	}
	return result
}

// Model is an entry of the model catalog.
type Model struct {
	ID           string       `json:"id"`
	Description  string       `json:"description"`
	Capabilities Capabilities `json:"capabilities"`
}

// Capabilities lists what a [Model] can do.
type Capabilities struct {
	CompletionChat bool `json:"completion_chat"`
}
