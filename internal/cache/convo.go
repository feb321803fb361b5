package cache

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/jwekke/ai-cli/internal/proto"
)

// Conversations stores the messages of saved conversations, one gob file
// per conversation ID.
type Conversations struct {
	cache *Cache[[]proto.Message]
}

// NewConversations opens the conversation store under dir.
func NewConversations(dir string) (*Conversations, error) {
	cache, err := New[[]proto.Message](dir, ConversationCache)
	if err != nil {
		return nil, err
	}
	return &Conversations{cache: cache}, nil
}

// Read loads the messages of conversation id.
func (c *Conversations) Read(id string, messages *[]proto.Message) error {
	return c.cache.Read(id, func(r io.Reader) error {
		return decodeMessages(r, messages)
	})
}

// Write replaces the messages of conversation id.
func (c *Conversations) Write(id string, messages *[]proto.Message) error {
	return c.cache.Write(id, func(w io.Writer) error {
		return encodeMessages(w, messages)
	})
}

// Delete removes conversation id.
func (c *Conversations) Delete(id string) error {
	return c.cache.Delete(id)
}

func encodeMessages(w io.Writer, messages *[]proto.Message) error {
	if err := gob.NewEncoder(w).Encode(messages); err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	return nil
}

func decodeMessages(r io.Reader, messages *[]proto.Message) error {
	if err := gob.NewDecoder(r).Decode(messages); err != nil {
		return fmt.Errorf("decode messages: %w", err)
	}
	return nil
}
