package event

import (
	"encoding/json"
	"testing"
	"time"

	"chat-relay/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func sampleMessage() domain.Message {
	return domain.Message{
		ID:     uuid.New(),
		ChatID: "chat-1",
		Sender: domain.Sender{ID: "user-1", Name: "Alice Doe"},
		Content: "hello",
		CorrelationID: "corr-1",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEncode_NewMessage_Frame_Shape(t *testing.T) {
	req := require.New(t)
	m := sampleMessage()

	raw, err := Encode(NewMessage{ChatID: m.ChatID, Message: m})
	req.NoError(err)

	var frame map[string]json.RawMessage
	req.NoError(json.Unmarshal(raw, &frame))
	req.JSONEq(`"NEW_MESSAGE"`, string(frame["event"]))

	var data struct {
		ChatID  string      `json:"chatId"`
		Message WireMessage `json:"message"`
	}
	req.NoError(json.Unmarshal(frame["data"], &data))
	req.Equal("chat-1", data.ChatID)
	req.Equal(m.ID.String(), data.Message.ID)
	req.Equal("Alice Doe", data.Message.Sender.Name)
	req.Equal("corr-1", data.Message.CorrelationID)
}

func TestEncode_Event_Names(t *testing.T) {
	req := require.New(t)
	m := sampleMessage()

	cases := []struct {
		event Event
		name  string
	}{
		{NewMessage{ChatID: m.ChatID, Message: m}, NameNewMessage},
		{NewAttachment{ChatID: m.ChatID, Message: m}, NameNewAttachment},
		{NewMessageAlert{ChatID: m.ChatID}, NameNewMessageAlert},
	}
	for _, c := range cases {
		raw, err := Encode(c.event)
		req.NoError(err)

		var frame Frame
		req.NoError(json.Unmarshal(raw, &frame))
		req.Equal(c.name, frame.Event)
	}
}

func TestEncode_Rejects_Unknown_Event(t *testing.T) {
	req := require.New(t)
	_, err := Encode(nil)
	req.Error(err)
}

func TestDecodeSendMessage(t *testing.T) {
	req := require.New(t)

	data := json.RawMessage(`{"chatId":"chat-1","content":"hello","correlationId":"corr-1"}`)
	cmd, err := DecodeSendMessage("user-1", data)
	req.NoError(err)
	req.Equal(domain.ChatID("chat-1"), cmd.ChatID)
	req.Equal("user-1", cmd.SenderID)
	req.Equal("hello", cmd.Content)
	req.Equal("corr-1", cmd.CorrelationID)

	// The sender identity comes from the connection, never the frame
	_, err = DecodeSendMessage("user-1", json.RawMessage(`{broken`))
	req.Error(err)
}

func TestWireMessage_RoundTrip(t *testing.T) {
	req := require.New(t)
	m := sampleMessage()
	m.Attachments = []string{"http://localhost/files/a.png"}

	req.Equal(m, FromWireMessage(ToWireMessage(m)))
}
