package entity

import (
	"time"

	"github.com/google/uuid"
)

// Message is a chat line inside a conversation. Only the read flag ever changes,
// and only from false to true.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	SenderID       uuid.UUID `json:"senderId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	IsRead         bool      `json:"isRead"`
}

// CanBeMarkedReadBy reports whether viewerID may flip the read flag.
func (m *Message) CanBeMarkedReadBy(viewerID uuid.UUID) bool {
	return viewerID != uuid.Nil && m.SenderID != viewerID
}

// Clone returns a copy of the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cloned := *m

	return &cloned
}
