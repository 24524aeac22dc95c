//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IChatRepository interface {
	CreateChat(name string, groupChat bool, members []string) (domain.Chat, error)
	GetChat(chatID domain.ChatID) (domain.Chat, error)
	GetMembers(chatID domain.ChatID) ([]string, error)
}

type ChatRepository struct {
	db *badger.DB
}

func NewChatRepository(db *badger.DB) ChatRepository {
	return ChatRepository{db: db}
}

type diskChat struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	GroupChat bool      `json:"group_chat"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

func (c ChatRepository) CreateChat(name string, groupChat bool, members []string) (domain.Chat, error) {
	record := diskChat{
		ID:        uuid.New().String(),
		Name:      name,
		GroupChat: groupChat,
		Members:   members,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return domain.Chat{}, err
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("chat:"+record.ID), data)
	})
	if err != nil {
		return domain.Chat{}, err
	}
	return toDomainChat(record), nil
}

func (c ChatRepository) GetChat(chatID domain.ChatID) (domain.Chat, error) {
	var record diskChat
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("chat:" + string(chatID)))
		if err != nil {
			return errors.ErrChatNotFound
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return domain.Chat{}, err
	}
	return toDomainChat(record), nil
}

// GetMembers is the audience lookup used when fanning out an event.
func (c ChatRepository) GetMembers(chatID domain.ChatID) ([]string, error) {
	chat, err := c.GetChat(chatID)
	if err != nil {
		return nil, err
	}
	return chat.Members, nil
}

func toDomainChat(record diskChat) domain.Chat {
	return domain.Chat{
		ID:        domain.ChatID(record.ID),
		Name:      record.Name,
		GroupChat: record.GroupChat,
		Members:   record.Members,
	}
}
