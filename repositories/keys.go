//go:generate go run go.uber.org/mock/mockgen -source=keys.go -destination=../mocks/mock_key_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/Tropical8818/iProTalk/errors"

	"github.com/dgraph-io/badger/v4"
)

const KeysPrefix = "keys:"

type IKeyRepository interface {
	PutKeys(bundle KeyBundle) error
	GetKeys(userID string) (KeyBundle, error)
}

// KeyBundle is the public key material a user publishes for others to encrypt to.
type KeyBundle struct {
	UserID       string    `json:"user_id"`
	PublicKey    string    `json:"public_key"`
	SignedPreKey *string   `json:"signed_pre_key,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type KeyRepository struct {
	db *badger.DB
}

func NewKeyRepository(db *badger.DB) *KeyRepository {
	return &KeyRepository{db: db}
}

func keysKey(userID string) []byte {
	return []byte(KeysPrefix + userID)
}

// PutKeys inserts or replaces the bundle of bundle.UserID.
func (k *KeyRepository) PutKeys(bundle KeyBundle) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	err = k.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keysKey(bundle.UserID), data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return nil
}

func (k *KeyRepository) GetKeys(userID string) (KeyBundle, error) {
	var bundle KeyBundle
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keysKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &bundle)
		})
	})
	switch {
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return KeyBundle{}, errors.ErrKeysNotFound
	case err != nil:
		return KeyBundle{}, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return bundle, nil
}
