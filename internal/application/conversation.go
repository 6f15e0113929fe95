package application

import "voice-tutor/internal/domain"

// Conversation is the append-only transcript of one run. It is owned by the
// controller loop and is not safe for concurrent use.
type Conversation struct {
	messages []domain.Message
}

func NewConversation() *Conversation {
	return &Conversation{}
}

func (c *Conversation) Append(msg domain.Message) {
	c.messages = append(c.messages, msg)
}

func (c *Conversation) Messages() []domain.Message {
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	return len(c.messages)
}
