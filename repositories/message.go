//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/Tropical8818/iProTalk/domain"
	"github.com/Tropical8818/iProTalk/errors"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	MessagePrefix = "msg:"

	// messageSchemaVersion is written with every record so a future format
	// change can tell old entries apart.
	messageSchemaVersion = 1
)

// IMessageRepository is the durable log of submitted messages.
type IMessageRepository interface {
	Append(message domain.Message) error
	Get(id string) (domain.Message, error)
	Count() (int, error)
}

type MessageRepository struct {
	db    *badger.DB
	log   *slog.Logger
	cache *lru.Cache[string, domain.Message]
}

// NewMessageRepository builds the log on top of db. A positive cacheSize keeps
// that many recently appended or read messages in memory for point lookups.
func NewMessageRepository(db *badger.DB, log *slog.Logger, cacheSize int) (*MessageRepository, error) {
	repository := &MessageRepository{db: db, log: log}
	if cacheSize > 0 {
		cache, err := lru.New[string, domain.Message](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("message cache: %w", err)
		}
		repository.cache = cache
	}
	return repository, nil
}

type diskMessage struct {
	SchemaVersion int            `json:"schema_version"`
	Message       domain.Message `json:"message"`
}

func messageKey(id string) []byte {
	return []byte(MessagePrefix + id)
}

// Append persists a message under "msg:{id}".
// Writing the same id twice overwrites the previous value.
// The database is expected to be opened with SyncWrites so a nil error means
// the entry reached disk.
func (m *MessageRepository) Append(message domain.Message) error {
	if message.ID == "" {
		return fmt.Errorf("%w: empty message id", errors.ErrStorage)
	}
	bytes, err := json.Marshal(diskMessage{SchemaVersion: messageSchemaVersion, Message: message})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message.ID), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	if m.cache != nil {
		m.cache.Add(message.ID, message)
	}
	return nil
}

// Get performs a point lookup by message id.
func (m *MessageRepository) Get(id string) (domain.Message, error) {
	if m.cache != nil {
		if message, ok := m.cache.Get(id); ok {
			return message, nil
		}
	}

	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(messageKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			message, err = DecodeMessage(val)
			return err
		})
	})
	switch {
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return domain.Message{}, errors.ErrMessageNotFound
	case stderrors.Is(err, errors.ErrStorage):
		m.log.Warn("Unreadable message record", "message_id", id, "error", err)
		return domain.Message{}, err
	case err != nil:
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}

	if m.cache != nil {
		m.cache.Add(id, message)
	}
	return message, nil
}

// DecodeMessage reads a stored record. Records written with another schema
// version are rejected with errors.ErrStorage.
func DecodeMessage(val []byte) (domain.Message, error) {
	var record diskMessage
	if err := json.Unmarshal(val, &record); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	if record.SchemaVersion != messageSchemaVersion {
		return domain.Message{}, fmt.Errorf("%w: unsupported schema version %d", errors.ErrStorage, record.SchemaVersion)
	}
	return record.Message, nil
}

// Count returns the number of stored messages using a key-only scan.
func (m *MessageRepository) Count() (int, error) {
	count := 0
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		options.Prefix = []byte(MessagePrefix)
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return count, nil
}
