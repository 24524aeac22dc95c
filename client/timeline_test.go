package client

import (
	"testing"
	"time"

	"chat-relay/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	selfID  = "user-self"
	otherID = "user-other"
	chatID  = domain.ChatID("chat-1")
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func confirmedMsg(senderID, content string, minute int) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		Sender:    domain.Sender{ID: senderID, Name: senderID},
		Content:   content,
		CreatedAt: base.Add(time.Duration(minute) * time.Minute),
	}
}

// newestFirst builds a server-shaped page out of ascending messages.
func newestFirst(messages ...domain.Message) []domain.Message {
	out := make([]domain.Message, len(messages))
	for i, m := range messages {
		out[len(messages)-1-i] = m
	}
	return out
}

func contents(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message.Content
	}
	return out
}

func TestInitialPage_Sorted_Ascending_With_Scroll_To_Bottom(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(chatID, selfID)

	first := confirmedMsg(otherID, "first", 0)
	second := confirmedMsg(otherID, "second", 1)
	third := confirmedMsg(selfID, "third", 2)

	// When the newest-first page 1 arrives for a freshly selected chat
	effect := timeline.Apply(PageLoaded{Messages: newestFirst(first, second, third), Initial: true})

	// Then display order is ascending by createdAt and the view jumps down
	req.Equal(ScrollToBottom, effect)
	req.Equal([]string{"first", "second", "third"}, contents(timeline.Entries()))
}

func TestOlderPage_Prepended_With_Offset_Preserved(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(chatID, selfID)

	older1 := confirmedMsg(otherID, "older-1", 0)
	older2 := confirmedMsg(otherID, "older-2", 1)
	recent1 := confirmedMsg(otherID, "recent-1", 2)
	recent2 := confirmedMsg(otherID, "recent-2", 3)

	timeline.Apply(PageLoaded{Messages: newestFirst(recent1, recent2), Initial: true})
	effect := timeline.Apply(PageLoaded{Messages: newestFirst(older1, older2)})

	// Older content goes above, nothing jumps
	req.Equal(PreserveOffset, effect)
	req.Equal([]string{"older-1", "older-2", "recent-1", "recent-2"}, contents(timeline.Entries()))
}

func TestLivePush_Then_Refetch_Yields_One_Entry(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(chatID, selfID)

	m := confirmedMsg(otherID, "hello", 0)

	// The same record arrives once as a push and again inside a page refetch
	timeline.Apply(LiveMessage{Message: m})
	timeline.Apply(PageLoaded{Messages: []domain.Message{m}, Initial: true})
	timeline.Apply(LiveMessage{Message: m})

	req.Len(timeline.Entries(), 1)
}

func TestPending_Replaced_By_Correlated_Push(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(chatID, selfID)

	// Given an optimistic placeholder for an in-flight "hello"
	effect := timeline.Apply(PendingCreated{Entry: PendingEntry{
		TempID:        "tmp-1",
		CorrelationID: "corr-1",
		Content:       "hello",
	}})
	req.Equal(ScrollToBottom, effect)
	req.Len(timeline.Entries(), 1)

	// When the confirming push arrives carrying the correlation id
	confirmed := confirmedMsg(selfID, "hello", 0)
	confirmed.CorrelationID = "corr-1"
	effect = timeline.Apply(LiveMessage{Message: confirmed})

	// Then the placeholder is swapped, not duplicated
	req.Equal(ScrollToBottom, effect)
	entries := timeline.Entries()
	req.Len(entries, 1)
	req.False(entries[0].Pending)
	req.Equal("hello", entries[0].Message.Content)
	req.Zero(timeline.PendingCount())
}

func TestPending_Sole_Outstanding_Fallback(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(chatID, selfID)

	timeline.Apply(PendingCreated{Entry: PendingEntry{TempID: "tmp-1", Content: "hello"}})

	// A push without a correlation id still resolves the only pending send
	timeline.Apply(LiveMessage{Message: confirmedMsg(selfID, "hello", 0)})

	req.Len(timeline.Entries(), 1)
	req.Zero(timeline.PendingCount())
}

func TestAttachment_Push_Replaces_Placeholder(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(chatID, selfID)

	// Given a "Sending attachment..." placeholder with a caption
	timeline.Apply(PendingCreated{Entry: PendingEntry{
		TempID:        "tmp-1",
		CorrelationID: "corr-1",
		Content:       "check this",
		Attachment:    true,
	}})

	confirmed := confirmedMsg(selfID, "check this", 0)
	confirmed.CorrelationID = "corr-1"
	confirmed.Attachments = []string{"http://localhost:8080/files/abc.png"}
	timeline.Apply(LiveAttachment{Message: confirmed})

	entries := timeline.Entries()
	req.Len(entries, 1)
	req.False(entries[0].Pending)
	req.Equal("check this", entries[0].Message.Content)
	req.Len(entries[0].Message.Attachments, 1)
}

func TestFailed_Send_Removes_Placeholder(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(chatID, selfID)

	timeline.Apply(PageLoaded{Messages: []domain.Message{confirmedMsg(otherID, "earlier", 0)}, Initial: true})
	timeline.Apply(PendingCreated{Entry: PendingEntry{TempID: "tmp-1", Content: "doomed", Attachment: true}})
	req.Len(timeline.Entries(), 2)

	effect := timeline.Apply(PendingFailed{TempID: "tmp-1"})

	req.Equal(ScrollNone, effect)
	req.Equal([]string{"earlier"}, contents(timeline.Entries()))
	req.Zero(timeline.PendingCount())
}

func TestPending_Renders_After_All_Confirmed(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(chatID, selfID)

	timeline.Apply(PendingCreated{Entry: PendingEntry{TempID: "tmp-1", CorrelationID: "corr-1", Content: "mine"}})

	// A foreign confirmed message lands while the send is in flight
	timeline.Apply(LiveMessage{Message: confirmedMsg(otherID, "theirs", 0)})

	entries := timeline.Entries()
	req.Equal([]string{"theirs", "mine"}, contents(entries))
	req.True(entries[1].Pending)
}

func TestForeign_Chat_Push_Is_Ignored(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(chatID, selfID)

	stray := confirmedMsg(otherID, "wrong room", 0)
	stray.ChatID = "chat-2"
	effect := timeline.Apply(LiveMessage{Message: stray})

	req.Equal(ScrollNone, effect)
	req.Empty(timeline.Entries())
}

func TestScroll_Policy_On_Live_Pushes(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(chatID, selfID)

	// Someone else's message never yanks the viewport down
	req.Equal(ScrollNone, timeline.Apply(LiveMessage{Message: confirmedMsg(otherID, "theirs", 0)}))

	// The user's own outgoing message does
	req.Equal(ScrollToBottom, timeline.Apply(LiveMessage{Message: confirmedMsg(selfID, "mine", 1)}))
}

func TestLate_Push_Inserted_In_CreatedAt_Order(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(chatID, selfID)

	early := confirmedMsg(otherID, "early", 0)
	late := confirmedMsg(otherID, "late", 2)
	timeline.Apply(PageLoaded{Messages: newestFirst(early, late), Initial: true})

	// A push with a createdAt between the two lands in the middle
	timeline.Apply(LiveMessage{Message: confirmedMsg(otherID, "middle", 1)})

	req.Equal([]string{"early", "middle", "late"}, contents(timeline.Entries()))
}
