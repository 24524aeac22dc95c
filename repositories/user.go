//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(username, fullName, hashedPassword string) (domain.User, error)
	GetUserByUsername(username string) (User, error)
	GetUserByID(id string) (domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

// User is the repository-level representation of an account. Unlike
// domain.User it carries the password hash, so it never leaves this layer
// except through the login flow.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Avatar       string    `json:"avatar,omitempty"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUser persists a new account. Two keys are written in one transaction:
// the record under "user:id:{id}" and a username index under "user:name:{username}"
// so both lookup paths stay consistent.
func (u UserRepository) CreateUser(username, fullName, hashedPassword string) (domain.User, error) {
	record := User{
		ID:           uuid.New().String(),
		Username:     username,
		FullName:     fullName,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte("user:name:" + username)
		if _, err := txn.Get(nameKey); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(nameKey, []byte(record.ID)); err != nil {
			return err
		}
		return txn.Set([]byte("user:id:"+record.ID), data)
	})
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(record), nil
}

// GetUserByUsername retrieves the full record, hash included, for login.
func (u UserRepository) GetUserByUsername(username string) (User, error) {
	var record User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:name:" + username))
		if err != nil {
			return errors.ErrUserNotFound
		}
		var id []byte
		if err = item.Value(func(val []byte) error {
			id = append([]byte{}, val...)
			return nil
		}); err != nil {
			return err
		}
		return readUser(txn, "user:id:"+string(id), &record)
	})
	return record, err
}

// GetUserByID resolves an identity, without exposing the password hash.
func (u UserRepository) GetUserByID(id string) (domain.User, error) {
	var record User
	err := u.db.View(func(txn *badger.Txn) error {
		return readUser(txn, "user:id:"+id, &record)
	})
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(record), nil
}

func readUser(txn *badger.Txn, key string, record *User) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return errors.ErrUserNotFound
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, record)
	})
}

func toDomainUser(record User) domain.User {
	return domain.User{
		ID:        record.ID,
		Username:  record.Username,
		FullName:  record.FullName,
		Avatar:    record.Avatar,
		CreatedAt: record.CreatedAt,
	}
}
