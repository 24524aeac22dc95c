//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/repositories"
)

type IMessageService interface {
	SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	SendAttachment(ctx context.Context, cmd domain.SendAttachmentCommand) (domain.Message, error)
	GetMessages(query domain.HistoryQuery) ([]domain.Message, int, int, error)
}

// MessageService is the ingest pipeline for outbound sends:
// validate, persist, then fan out. Persistence succeeding is sufficient for
// the operation to succeed; the realtime broadcast is best-effort and its
// failures never reach the sender.
type MessageService struct {
	log      *slog.Logger
	messages repositories.IMessageRepository
	chats    repositories.IChatRepository
	users    repositories.IUserRepository
	store    contract.ObjectStore
	router   contract.IRouter
}

func NewMessageService(
	log *slog.Logger,
	messages repositories.IMessageRepository,
	chats repositories.IChatRepository,
	users repositories.IUserRepository,
	store contract.ObjectStore,
	router contract.IRouter,
) *MessageService {
	return &MessageService{
		log:      log,
		messages: messages,
		chats:    chats,
		users:    users,
		store:    store,
		router:   router,
	}
}

// SendMessage handles a text-only send arriving on the socket channel.
func (s *MessageService) SendMessage(_ context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if strings.TrimSpace(cmd.Content) == "" {
		return domain.Message{}, errors.ErrEmptyMessage
	}

	sender, chat, err := s.resolveSendContext(cmd.SenderID, cmd.ChatID)
	if err != nil {
		return domain.Message{}, err
	}

	persisted, err := s.messages.CreateMessage(domain.Message{
		ChatID:        cmd.ChatID,
		Sender:        sender,
		Content:       cmd.Content,
		CorrelationID: cmd.CorrelationID,
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("persisting message: %w", err)
	}

	s.broadcast(event.NewMessage{ChatID: chat.ID, Message: persisted}, chat)
	return persisted, nil
}

// SendAttachment handles an attachment-bearing send arriving over HTTP.
// All files are uploaded before anything is persisted: a single upload
// failure aborts the whole operation and no MessageRecord is created.
func (s *MessageService) SendAttachment(ctx context.Context, cmd domain.SendAttachmentCommand) (domain.Message, error) {
	if len(cmd.Files) == 0 && strings.TrimSpace(cmd.Content) == "" {
		return domain.Message{}, errors.ErrEmptyMessage
	}

	sender, chat, err := s.resolveSendContext(cmd.SenderID, cmd.ChatID)
	if err != nil {
		return domain.Message{}, err
	}

	urls := make([]string, 0, len(cmd.Files))
	for _, file := range cmd.Files {
		url, err := s.store.Upload(ctx, file.Filename, file.Data)
		if err != nil {
			return domain.Message{}, fmt.Errorf("%w: %s: %v", errors.ErrAttachmentUpload, file.Filename, err)
		}
		urls = append(urls, url)
	}

	persisted, err := s.messages.CreateMessage(domain.Message{
		ChatID:        cmd.ChatID,
		Sender:        sender,
		Content:       cmd.Content,
		Attachments:   urls,
		CorrelationID: cmd.CorrelationID,
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("persisting message: %w", err)
	}

	s.broadcast(event.NewAttachment{ChatID: chat.ID, Message: persisted}, chat)
	return persisted, nil
}

// GetMessages returns one page of history plus the total message and page counts.
// Only members may read a chat's history.
func (s *MessageService) GetMessages(query domain.HistoryQuery) ([]domain.Message, int, int, error) {
	chat, err := s.chats.GetChat(query.ChatID)
	if err != nil {
		return nil, 0, 0, err
	}
	if !chat.IsMember(query.RequesterID) {
		return nil, 0, 0, errors.ErrNotAMember
	}
	return s.messages.ListMessages(query.ChatID, query.Page)
}

// resolveSendContext snapshots the sender identity and checks chat membership.
// Identity is resolved here, at send time; it is embedded in the record and
// never looked up again.
func (s *MessageService) resolveSendContext(senderID string, chatID domain.ChatID) (domain.Sender, domain.Chat, error) {
	user, err := s.users.GetUserByID(senderID)
	if err != nil {
		return domain.Sender{}, domain.Chat{}, err
	}
	chat, err := s.chats.GetChat(chatID)
	if err != nil {
		return domain.Sender{}, domain.Chat{}, err
	}
	if !chat.IsMember(senderID) {
		return domain.Sender{}, domain.Chat{}, errors.ErrNotAMember
	}
	sender := domain.Sender{ID: user.ID, Name: user.FullName, Avatar: user.Avatar}
	return sender, chat, nil
}

// broadcast pushes the event and the activity alert to the chat's members.
// Fire-and-forget: zero connected recipients is expected, not exceptional.
func (s *MessageService) broadcast(evt event.Event, chat domain.Chat) {
	s.router.Dispatch(event.Envelope{Event: evt, Audience: chat.Members})
	s.router.Dispatch(event.Envelope{
		Event:    event.NewMessageAlert{ChatID: chat.ID},
		Audience: chat.Members,
	})
}
