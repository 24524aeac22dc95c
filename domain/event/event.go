// Package event defines the realtime events exchanged on the socket channel.
// Each event name is a tagged variant with a fixed payload shape, checked at
// the serialization boundary. Events are ephemeral and never persisted.
package event

import (
	"chat-relay/domain"
)

// Event names as they travel on the wire.
const (
	NameNewMessage      = "NEW_MESSAGE"
	NameNewAttachment   = "NEW_ATTACHMENT"
	NameNewMessageAlert = "NEW_MESSAGE_ALERT"
)

type Event interface {
	Name() string
}

// NewMessage carries a freshly persisted text message to chat members.
type NewMessage struct {
	ChatID  domain.ChatID
	Message domain.Message
}

func (NewMessage) Name() string { return NameNewMessage }

// NewAttachment carries a freshly persisted attachment-bearing message.
type NewAttachment struct {
	ChatID  domain.ChatID
	Message domain.Message
}

func (NewAttachment) Name() string { return NameNewAttachment }

// NewMessageAlert notifies members that a chat has activity,
// without shipping the message body.
type NewMessageAlert struct {
	ChatID domain.ChatID
}

func (NewMessageAlert) Name() string { return NameNewMessageAlert }

// Envelope is one dispatch request handed to the router: an event and the
// user IDs it should reach. Offline members of the audience are skipped
// silently at dispatch time.
type Envelope struct {
	Event    Event
	Audience []string
}
