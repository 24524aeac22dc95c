package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"chat-relay/domain"
)

// HistoryPage is one slice of a chat's history as the server serves it:
// newest-first within the page, with the overall totals.
type HistoryPage struct {
	Messages   []domain.Message
	TotalCount int
	Pages      int
}

// HistoryFetcher is the transport behind pagination, typically the
// GET /api/v1/message/:chatId endpoint.
type HistoryFetcher interface {
	FetchPage(ctx context.Context, chatID domain.ChatID, page int) (HistoryPage, error)
}

// Session drives one user's view: the active chat's timeline plus its
// pagination cursor. Switching chats discards both; responses of fetches
// started before a switch are recognized by their epoch and dropped.
//
// Session is safe for concurrent use: live pushes arrive from the socket
// reader while the view calls SelectChat and LoadOlderPage.
type Session struct {
	mu      sync.Mutex
	log     *slog.Logger
	fetcher HistoryFetcher
	selfID  string

	timeline *Timeline
	chatID   domain.ChatID
	page     int
	pages    int
	epoch    uint64
	loading  bool
}

func NewSession(log *slog.Logger, fetcher HistoryFetcher, selfID string) *Session {
	return &Session{log: log, fetcher: fetcher, selfID: selfID}
}

// SelectChat resets the timeline and loads the newest page of the chosen chat.
func (s *Session) SelectChat(ctx context.Context, chatID domain.ChatID) (ScrollEffect, error) {
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.chatID = chatID
	s.timeline = NewTimeline(chatID, s.selfID)
	s.page = 0
	s.pages = 0
	s.loading = true
	s.mu.Unlock()

	page, err := s.fetcher.FetchPage(ctx, chatID, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		s.log.Debug("discarding stale initial page", "chat", chatID)
		return ScrollNone, nil
	}
	s.loading = false
	if err != nil {
		return ScrollNone, fmt.Errorf("loading chat %s: %w", chatID, err)
	}

	s.page = 1
	s.pages = page.Pages
	return s.timeline.Apply(PageLoaded{Messages: page.Messages, Initial: true}), nil
}

// LoadOlderPage fetches the next older page. Calls collapse to a single
// in-flight fetch, and the last page is a hard stop. A failed fetch leaves
// the timeline and cursor unchanged so the next scroll trigger can retry.
func (s *Session) LoadOlderPage(ctx context.Context) (ScrollEffect, error) {
	s.mu.Lock()
	if s.timeline == nil || s.loading || s.page >= s.pages {
		s.mu.Unlock()
		return ScrollNone, nil
	}
	epoch := s.epoch
	next := s.page + 1
	chatID := s.chatID
	s.loading = true
	s.mu.Unlock()

	page, err := s.fetcher.FetchPage(ctx, chatID, next)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		s.log.Debug("discarding stale page", "chat", chatID, "page", next)
		return ScrollNone, nil
	}
	s.loading = false
	if err != nil {
		return ScrollNone, fmt.Errorf("loading page %d of chat %s: %w", next, chatID, err)
	}

	s.page = next
	s.pages = page.Pages
	return s.timeline.Apply(PageLoaded{Messages: page.Messages}), nil
}

// OnLiveMessage merges a NEW_MESSAGE push. Pushes for another chat than the
// active one are ignored here; the alert channel covers those.
func (s *Session) OnLiveMessage(m domain.Message) ScrollEffect {
	return s.applyLive(LiveMessage{Message: m}, m.ChatID)
}

// OnLiveAttachment merges a NEW_ATTACHMENT push.
func (s *Session) OnLiveAttachment(m domain.Message) ScrollEffect {
	return s.applyLive(LiveAttachment{Message: m}, m.ChatID)
}

// CreatePending inserts the optimistic placeholder for an in-flight send.
func (s *Session) CreatePending(entry PendingEntry) ScrollEffect {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeline == nil {
		return ScrollNone
	}
	return s.timeline.Apply(PendingCreated{Entry: entry})
}

// FailPending removes the placeholder of a send that failed.
func (s *Session) FailPending(tempID string) ScrollEffect {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeline == nil {
		return ScrollNone
	}
	return s.timeline.Apply(PendingFailed{TempID: tempID})
}

// Entries snapshots the rendered timeline.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeline == nil {
		return nil
	}
	return s.timeline.Entries()
}

func (s *Session) applyLive(action Action, chatID domain.ChatID) ScrollEffect {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeline == nil || chatID != s.chatID {
		return ScrollNone
	}
	return s.timeline.Apply(action)
}
