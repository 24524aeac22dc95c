package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func startRouter(t *testing.T, presence *Presence) *Router {
	t.Helper()
	router := NewRouter(slog.Default(), presence, 16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = router.Run(ctx) }()
	return router
}

func waitDelivered(t *testing.T, conn *fakeConn, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for conn.delivered() < want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d frames, got %d", want, conn.delivered())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRouter_Dispatch_Reaches_Connected_Audience_Only(t *testing.T) {
	req := require.New(t)
	presence := NewPresence(slog.Default())
	alice := &fakeConn{id: "conn-a"}
	bob := &fakeConn{id: "conn-b"}
	presence.Register("alice", alice)
	presence.Register("bob", bob)
	router := startRouter(t, presence)

	message := domain.Message{
		ID:        uuid.New(),
		ChatID:    "c123",
		Sender:    domain.Sender{ID: "alice", Name: "Alice"},
		Content:   "hello",
		CreatedAt: time.Now().UTC(),
	}

	// When dispatching to members including an offline one
	router.Dispatch(event.Envelope{
		Event:    event.NewMessage{ChatID: "c123", Message: message},
		Audience: []string{"alice", "bob", "clara"},
	})

	// Then both connected members get exactly one frame each
	waitDelivered(t, alice, 1)
	waitDelivered(t, bob, 1)

	var frame event.Frame
	req.NoError(json.Unmarshal(alice.frames[0], &frame))
	req.Equal(event.NameNewMessage, frame.Event)

	var data struct {
		ChatID  string            `json:"chatId"`
		Message event.WireMessage `json:"message"`
	}
	req.NoError(json.Unmarshal(frame.Data, &data))
	req.Equal("c123", data.ChatID)
	req.Equal("hello", data.Message.Content)
	req.Equal(message.ID.String(), data.Message.ID)
}

func TestRouter_Empty_Resolved_Set_Is_A_No_Op(t *testing.T) {
	req := require.New(t)
	presence := NewPresence(slog.Default())
	router := startRouter(t, presence)

	// Dispatching to a fully offline audience must not panic or error
	router.Dispatch(event.Envelope{
		Event:    event.NewMessageAlert{ChatID: "c123"},
		Audience: []string{"nobody", "home"},
	})

	time.Sleep(50 * time.Millisecond)
	req.Equal(uint64(0), router.Stats()["delivered"])
}

func TestRouter_Delivery_Error_Does_Not_Stop_Fanout(t *testing.T) {
	presence := NewPresence(slog.Default())
	broken := &fakeConn{id: "conn-x", err: errors.New("write: broken pipe")}
	healthy := &fakeConn{id: "conn-y"}
	presence.Register("xavier", broken)
	presence.Register("yann", healthy)
	router := startRouter(t, presence)

	router.Dispatch(event.Envelope{
		Event:    event.NewMessageAlert{ChatID: "c123"},
		Audience: []string{"xavier", "yann"},
	})

	// The broken connection must not prevent the healthy one from receiving
	waitDelivered(t, healthy, 1)
}

func TestRouter_Full_Channel_Drops_Instead_Of_Blocking(t *testing.T) {
	req := require.New(t)
	presence := NewPresence(slog.Default())
	// No Run loop: the channel fills up and Dispatch must stay non-blocking
	router := NewRouter(slog.Default(), presence, 1)

	env := event.Envelope{Event: event.NewMessageAlert{ChatID: "c1"}, Audience: []string{"a"}}
	router.Dispatch(env)
	router.Dispatch(env)

	req.Equal(uint64(1), router.Stats()["dispatched"])
	req.Equal(uint64(1), router.Stats()["dropped"])
}
