// Package client holds the receiving-side reconciliation engine: it merges
// paginated history, live pushes and optimistic pending entries into one
// ordered, deduplicated timeline per active chat.
package client

import (
	"sort"

	"chat-relay/domain"
)

// ScrollEffect tells the view what to do with the viewport after a state
// change. Offset preservation means anchoring to content height growth, since
// older entries are inserted above the visible area.
type ScrollEffect int

const (
	ScrollNone ScrollEffect = iota
	ScrollToBottom
	PreserveOffset
)

func (s ScrollEffect) String() string {
	switch s {
	case ScrollToBottom:
		return "scroll-to-bottom"
	case PreserveOffset:
		return "preserve-offset"
	default:
		return "none"
	}
}

// Action is one input to the timeline reducer.
type Action interface {
	isAction()
}

// PageLoaded carries one fetched history page, newest-first as served.
// Initial marks the first page of a freshly selected chat.
type PageLoaded struct {
	Messages []domain.Message
	Initial  bool
}

// LiveMessage is a NEW_MESSAGE push.
type LiveMessage struct {
	Message domain.Message
}

// LiveAttachment is a NEW_ATTACHMENT push.
type LiveAttachment struct {
	Message domain.Message
}

// PendingCreated inserts an optimistic placeholder for an in-flight send.
type PendingCreated struct {
	Entry PendingEntry
}

// PendingFailed removes a placeholder whose send failed.
type PendingFailed struct {
	TempID string
}

func (PageLoaded) isAction()     {}
func (LiveMessage) isAction()    {}
func (LiveAttachment) isAction() {}
func (PendingCreated) isAction() {}
func (PendingFailed) isAction()  {}

// PendingEntry is a locally created placeholder: a client-generated temporary
// id, the locally known payload, and the correlation id sent with the request
// so the confirming push can be matched back.
type PendingEntry struct {
	TempID        string
	CorrelationID string
	Content       string
	Attachment    bool
}

// Entry is one rendered timeline unit: either a confirmed message or a
// pending placeholder.
type Entry struct {
	Message domain.Message
	Pending bool
	TempID  string
}

// Timeline is the reducer state for one chat. Confirmed entries stay sorted
// ascending by createdAt; pending entries always render after them. Not safe
// for concurrent use; Session serializes access.
type Timeline struct {
	chatID    domain.ChatID
	selfID    string
	confirmed []domain.Message
	seen      map[string]struct{}
	pending   []PendingEntry
}

func NewTimeline(chatID domain.ChatID, selfID string) *Timeline {
	return &Timeline{
		chatID: chatID,
		selfID: selfID,
		seen:   make(map[string]struct{}),
	}
}

// Apply reduces one action into the timeline and reports the scroll effect.
func (t *Timeline) Apply(action Action) ScrollEffect {
	switch a := action.(type) {
	case PageLoaded:
		return t.mergePage(a)
	case LiveMessage:
		return t.mergeLive(a.Message)
	case LiveAttachment:
		return t.mergeLive(a.Message)
	case PendingCreated:
		t.pending = append(t.pending, a.Entry)
		return ScrollToBottom
	case PendingFailed:
		t.removePending(a.TempID)
		return ScrollNone
	default:
		return ScrollNone
	}
}

// Entries returns the rendered list: confirmed ascending, then pending.
func (t *Timeline) Entries() []Entry {
	entries := make([]Entry, 0, len(t.confirmed)+len(t.pending))
	for _, m := range t.confirmed {
		entries = append(entries, Entry{Message: m})
	}
	for _, p := range t.pending {
		entries = append(entries, Entry{
			Message: domain.Message{
				ChatID:        t.chatID,
				Content:       p.Content,
				CorrelationID: p.CorrelationID,
			},
			Pending: true,
			TempID:  p.TempID,
		})
	}
	return entries
}

// PendingCount reports how many sends are still awaiting confirmation.
func (t *Timeline) PendingCount() int {
	return len(t.pending)
}

// mergePage folds one fetched page in. The server serves newest-first; the
// page is re-sorted ascending and inserted in front of what is already held,
// skipping ids the timeline has seen through a live push or an earlier page.
func (t *Timeline) mergePage(page PageLoaded) ScrollEffect {
	fresh := make([]domain.Message, 0, len(page.Messages))
	for _, m := range page.Messages {
		if _, ok := t.seen[m.ID.String()]; ok {
			continue
		}
		t.seen[m.ID.String()] = struct{}{}
		fresh = append(fresh, m)
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].CreatedAt.Before(fresh[j].CreatedAt)
	})
	t.confirmed = append(fresh, t.confirmed...)

	if page.Initial {
		return ScrollToBottom
	}
	return PreserveOffset
}

// mergeLive folds one pushed record in. The push and a later page refetch may
// both describe the same logical message; the id set makes that idempotent.
func (t *Timeline) mergeLive(m domain.Message) ScrollEffect {
	if m.ChatID != t.chatID {
		return ScrollNone
	}
	if _, ok := t.seen[m.ID.String()]; ok {
		return ScrollNone
	}
	t.seen[m.ID.String()] = struct{}{}

	t.resolvePending(m)
	t.insertSorted(m)

	if m.Sender.ID == t.selfID {
		return ScrollToBottom
	}
	return ScrollNone
}

// resolvePending replaces the placeholder confirmed by this record: matched
// by correlation id when the push carries one, otherwise by being the sole
// outstanding pending entry.
func (t *Timeline) resolvePending(m domain.Message) {
	if m.CorrelationID != "" {
		for _, p := range t.pending {
			if p.CorrelationID == m.CorrelationID {
				t.removePending(p.TempID)
				return
			}
		}
	}
	if m.Sender.ID == t.selfID && len(t.pending) == 1 {
		t.removePending(t.pending[0].TempID)
	}
}

func (t *Timeline) removePending(tempID string) {
	for i, p := range t.pending {
		if p.TempID == tempID {
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			return
		}
	}
}

// insertSorted places the record at its createdAt position. Pushes almost
// always append at the end, so the scan runs from the back.
func (t *Timeline) insertSorted(m domain.Message) {
	i := len(t.confirmed)
	for i > 0 && t.confirmed[i-1].CreatedAt.After(m.CreatedAt) {
		i--
	}
	t.confirmed = append(t.confirmed, domain.Message{})
	copy(t.confirmed[i+1:], t.confirmed[i:])
	t.confirmed[i] = m
}
