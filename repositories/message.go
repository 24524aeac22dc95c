//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// PageSize is the fixed number of messages per history page.
const PageSize = 20

type IMessageRepository interface {
	CreateMessage(message domain.Message) (domain.Message, error)
	ListMessages(chatID domain.ChatID, page int) ([]domain.Message, int, int, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// diskMessage is the stored shape of a message.
type diskMessage struct {
	ID            string    `json:"id"`
	ChatID        string    `json:"chat_id"`
	SenderID      string    `json:"sender_id"`
	SenderName    string    `json:"sender_name"`
	SenderAvatar  string    `json:"sender_avatar,omitempty"`
	Content       string    `json:"content,omitempty"`
	Attachments   []string  `json:"attachments,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	At            time.Time `json:"at"`
}

// CreateMessage persists a message in BadgerDB, assigning its ID and
// CreatedAt. CreatedAt is assigned exactly here and nowhere else: it is the
// authoritative ordering key across pagination boundaries.
// The key is formatted as "msg:{chat_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (m MessageRepository) CreateMessage(message domain.Message) (domain.Message, error) {
	message.ID = uuid.New()
	message.CreatedAt = time.Now().UTC()

	key := fmt.Sprintf("msg:%s:%019d:%s",
		message.ChatID,
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(toDiskMessage(message))
	if err != nil {
		return domain.Message{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// ListMessages retrieves one page of a chat's history using a reverse prefix
// scan. Page 1 holds the most recent PageSize messages; within a page the
// slice is newest-first (display-side code re-sorts ascending). It returns
// the page, the total message count and the total page count.
func (m MessageRepository) ListMessages(chatID domain.ChatID, page int) ([]domain.Message, int, int, error) {
	if page < 1 {
		page = 1
	}
	var byteMessages [][]byte
	total := 0

	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", chatID)
		prefix := []byte(prefixStr)

		// First pass: key-only count, value fetches are skipped entirely.
		countOpts := badger.DefaultIteratorOptions
		countOpts.PrefetchValues = false
		countIt := txn.NewIterator(countOpts)
		for countIt.Seek(prefix); countIt.ValidForPrefix(prefix); countIt.Next() {
			total++
		}
		countIt.Close()

		// Second pass: reverse scan from the newest key, skipping earlier pages.
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the last possible key of the prefix so the reverse
		// iterator lands on the newest message.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		it.Seek(seekKey)

		skip := (page - 1) * PageSize
		for ; it.ValidForPrefix(prefix) && skip > 0; it.Next() {
			skip--
		}
		for ; it.ValidForPrefix(prefix) && len(byteMessages) < PageSize; it.Next() {
			err := it.Item().Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, 0, err
	}

	var messages []domain.Message
	for _, b := range byteMessages {
		var dm diskMessage
		if err = json.Unmarshal(b, &dm); err != nil {
			return nil, 0, 0, err
		}
		message, err := fromDiskMessage(dm)
		if err != nil {
			return nil, 0, 0, err
		}
		messages = append(messages, message)
	}

	pages := (total + PageSize - 1) / PageSize
	return messages, total, pages, nil
}

func toDiskMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:            message.ID.String(),
		ChatID:        string(message.ChatID),
		SenderID:      message.Sender.ID,
		SenderName:    message.Sender.Name,
		SenderAvatar:  message.Sender.Avatar,
		Content:       message.Content,
		Attachments:   message.Attachments,
		CorrelationID: message.CorrelationID,
		At:            message.CreatedAt,
	}
}

func fromDiskMessage(dm diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(dm.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:     parsedID,
		ChatID: domain.ChatID(dm.ChatID),
		Sender: domain.Sender{
			ID:     dm.SenderID,
			Name:   dm.SenderName,
			Avatar: dm.SenderAvatar,
		},
		Content:       dm.Content,
		Attachments:   dm.Attachments,
		CorrelationID: dm.CorrelationID,
		CreatedAt:     dm.At.UTC(),
	}, nil
}
