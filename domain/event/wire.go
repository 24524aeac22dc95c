package event

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-relay/domain"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Frame is the JSON envelope used on the websocket in both directions:
// {"event": "<NAME>", "data": {...}}.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WireSender mirrors domain.Sender on the wire.
type WireSender struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// WireMessage mirrors domain.Message on the wire.
type WireMessage struct {
	ID            string     `json:"id"`
	ChatID        string     `json:"chatId"`
	Sender        WireSender `json:"sender"`
	Content       string     `json:"content,omitempty"`
	Attachments   []string   `json:"attachments,omitempty"`
	CorrelationID string     `json:"correlationId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type newMessageData struct {
	ChatID  string      `json:"chatId"`
	Message WireMessage `json:"message"`
}

type alertData struct {
	ChatID string `json:"chatId"`
}

// sendMessageData is the inbound client frame for NEW_MESSAGE.
type sendMessageData struct {
	ChatID        string `json:"chatId"`
	Content       string `json:"content"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Encode serializes an outbound event into its wire frame. Unknown event
// types are a programming error and are reported instead of being sent as
// untyped blobs.
func Encode(e Event) ([]byte, error) {
	var data any
	switch evt := e.(type) {
	case NewMessage:
		data = newMessageData{ChatID: string(evt.ChatID), Message: ToWireMessage(evt.Message)}
	case NewAttachment:
		data = newMessageData{ChatID: string(evt.ChatID), Message: ToWireMessage(evt.Message)}
	case NewMessageAlert:
		data = alertData{ChatID: string(evt.ChatID)}
	default:
		return nil, fmt.Errorf("unknown event type %T", e)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: e.Name(), Data: raw})
}

// DecodeSendMessage parses an inbound NEW_MESSAGE frame into a sending intent.
func DecodeSendMessage(senderID string, data json.RawMessage) (domain.SendMessageCommand, error) {
	var d sendMessageData
	if err := json.Unmarshal(data, &d); err != nil {
		return domain.SendMessageCommand{}, fmt.Errorf("malformed %s frame: %w", NameNewMessage, err)
	}
	return domain.SendMessageCommand{
		ChatID:        domain.ChatID(d.ChatID),
		SenderID:      senderID,
		Content:       d.Content,
		CorrelationID: d.CorrelationID,
	}, nil
}

// ToWireMessage converts a persisted message to its wire representation.
func ToWireMessage(m domain.Message) WireMessage {
	return WireMessage{
		ID:     m.ID.String(),
		ChatID: string(m.ChatID),
		Sender: WireSender{
			ID:     m.Sender.ID,
			Name:   m.Sender.Name,
			Avatar: m.Sender.Avatar,
		},
		Content:       m.Content,
		Attachments:   m.Attachments,
		CorrelationID: m.CorrelationID,
		CreatedAt:     m.CreatedAt,
	}
}

// FromWireMessage converts a wire message back to the domain shape.
// Used by the client reconciliation engine when consuming pushes and pages.
func FromWireMessage(w WireMessage) domain.Message {
	return domain.Message{
		ID:            parseUUIDOrZero(w.ID),
		ChatID:        domain.ChatID(w.ChatID),
		Sender:        domain.Sender{ID: w.Sender.ID, Name: w.Sender.Name, Avatar: w.Sender.Avatar},
		Content:       w.Content,
		Attachments:   w.Attachments,
		CorrelationID: w.CorrelationID,
		CreatedAt:     w.CreatedAt,
	}
}

func parseUUIDOrZero(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}
	}
	return id
}

// ToWireMessages maps a page of messages to the wire shape.
func ToWireMessages(messages []domain.Message) []WireMessage {
	return lo.Map(messages, func(item domain.Message, _ int) WireMessage {
		return ToWireMessage(item)
	})
}
