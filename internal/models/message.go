package models

import (
	"github.com/google/uuid"
)

// Sender identifies who authored a message. The values match the roles the
// completion service uses on the wire.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "model"
)

// String returns the display label for the sender
func (s Sender) String() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAssistant:
		return "Clean Fire"
	default:
		return string(s)
	}
}

// Message is a single entry of the conversation log.
type Message struct {
	ID     string
	Sender Sender
	Text   string
}

// GreetingID is the fixed ID of the seeded assistant greeting
const GreetingID = "init"

// NewMessage creates a message with a fresh time-ordered ID.
func NewMessage(sender Sender, text string) Message {
	return Message{
		ID:     NewMessageID(),
		Sender: sender,
		Text:   text,
	}
}

// NewMessageID returns a UUIDv7 string. Later IDs sort after earlier ones.
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// GreetingMessage returns the assistant greeting every session starts with
func GreetingMessage() Message {
	return Message{
		ID:     GreetingID,
		Sender: SenderAssistant,
		Text:   Greeting,
	}
}

// IsUser reports whether the message was written by the user
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// IsAssistant reports whether the message was written by the model
func (m Message) IsAssistant() bool {
	return m.Sender == SenderAssistant
}
