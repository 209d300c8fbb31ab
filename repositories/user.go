//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tropical8818/iProTalk/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const UserPrefix = "user:"

type IUserRepository interface {
	CreateUser(email, name, hashedPassword string) (User, error)
	GetUserByEmail(email string) (User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// User is the stored account. The password is only ever kept as an argon2id hash.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func userKey(email string) []byte {
	return []byte(UserPrefix + strings.ToLower(email))
}

// CreateUser persists a new account keyed by its email and returns it with a fresh ID.
// The existence check and the write share one transaction, so two concurrent
// registrations of the same email cannot both succeed.
func (u *UserRepository) CreateUser(email, name, hashedPassword string) (User, error) {
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := userKey(email)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user, returning badger.ErrKeyNotFound when absent.
func (u *UserRepository) GetUserByEmail(email string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}
