// Package domain contains core concepts of the chat system.
// This file defines Message records and the sender identity embedded in them.
// Messages are immutable once persisted; CreatedAt is assigned exactly once
// at persistence time and is the only ordering key across pages.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sender is the identity snapshot embedded in a message at send time.
// Display name and avatar are resolved when the message is created,
// never looked up again afterwards.
type Sender struct {
	ID     string
	Name   string
	Avatar string
}

// Message represents one persisted chat message, with or without attachments.
type Message struct {
	ID            uuid.UUID
	ChatID        ChatID
	Sender        Sender
	Content       string
	Attachments   []string // public URLs, empty for text-only messages
	CorrelationID string   // client-generated, echoed back so pending entries can be matched
	CreatedAt     time.Time
}

// HasAttachments reports whether the message carries at least one attachment URL.
func (m Message) HasAttachments() bool {
	return len(m.Attachments) > 0
}
