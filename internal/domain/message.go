package domain

import (
	"time"

	"github.com/google/uuid"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderSystem    Sender = "system"
)

// NetworkErrorText is the transcript entry appended when the tutor cannot be reached.
const NetworkErrorText = "Error connecting to server."

// Message is one transcript entry. IDs are UUIDv7 so they sort in creation order.
type Message struct {
	ID        string
	Text      string
	Sender    Sender
	CreatedAt time.Time
}

func NewMessage(sender Sender, text string) Message {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Message{
		ID:        id.String(),
		Text:      text,
		Sender:    sender,
		CreatedAt: time.Now(),
	}
}
