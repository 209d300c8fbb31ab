package repositories

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/Tropical8818/iProTalk/domain"
	"github.com/Tropical8818/iProTalk/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithSyncWrites(true).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Append_And_Get_Message(t *testing.T) {
	req := require.New(t)
	db := openDB(t)
	repository, err := NewMessageRepository(db, slog.Default(), 0)
	req.NoError(err)

	// Given a submitted message
	message := domain.NewMessage(uuid.NewString(), domain.Payload{
		EncryptedBlob: "QQ==",
		Nonce:         "Zm9v",
		SenderID:      "u1",
		GroupID:       lo.ToPtr("g1"),
	})

	// When it is appended
	req.NoError(repository.Append(message))

	// Then a point lookup returns exactly what was stored
	fetched, err := repository.Get(message.ID)
	req.NoError(err)
	req.Equal(message, fetched)
	req.Nil(fetched.RecipientID)
}

func Test_Get_Unknown_Message(t *testing.T) {
	req := require.New(t)
	repository, err := NewMessageRepository(openDB(t), slog.Default(), 16)
	req.NoError(err)

	_, err = repository.Get("missing")
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func Test_Append_Survives_Reopen(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	options := badger.DefaultOptions(dir).WithSyncWrites(true).WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(options)
	req.NoError(err)
	repository, err := NewMessageRepository(db, slog.Default(), 16)
	req.NoError(err)
	message := domain.NewMessage(uuid.NewString(), domain.Payload{EncryptedBlob: "QQ==", Nonce: "Zm9v", SenderID: "u1"})
	req.NoError(repository.Append(message))
	req.NoError(db.Close())

	// When the database is reopened the cache is gone and the value comes from disk
	db, err = badger.Open(options)
	req.NoError(err)
	defer db.Close()
	repository, err = NewMessageRepository(db, slog.Default(), 16)
	req.NoError(err)

	fetched, err := repository.Get(message.ID)
	req.NoError(err)
	req.Equal(message, fetched)
}

func Test_Append_Same_ID_Overwrites(t *testing.T) {
	req := require.New(t)
	repository, err := NewMessageRepository(openDB(t), slog.Default(), 0)
	req.NoError(err)

	id := uuid.NewString()
	req.NoError(repository.Append(domain.NewMessage(id, domain.Payload{EncryptedBlob: "QQ==", Nonce: "Zm9v", SenderID: "u1"})))
	req.NoError(repository.Append(domain.NewMessage(id, domain.Payload{EncryptedBlob: "Qg==", Nonce: "Zm9v", SenderID: "u1"})))

	count, err := repository.Count()
	req.NoError(err)
	req.Equal(1, count)

	fetched, err := repository.Get(id)
	req.NoError(err)
	req.Equal("Qg==", fetched.EncryptedBlob)
}

func Test_Append_Rejects_Empty_ID(t *testing.T) {
	req := require.New(t)
	repository, err := NewMessageRepository(openDB(t), slog.Default(), 0)
	req.NoError(err)

	err = repository.Append(domain.Message{})
	req.ErrorIs(err, errors.ErrStorage)
}

func Test_Append_After_Close_Is_Storage_Error(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	repository, err := NewMessageRepository(db, slog.Default(), 0)
	req.NoError(err)
	req.NoError(db.Close())

	err = repository.Append(domain.NewMessage(uuid.NewString(), domain.Payload{EncryptedBlob: "QQ==", Nonce: "Zm9v", SenderID: "u1"}))
	req.ErrorIs(err, errors.ErrStorage)
}

func Test_Concurrent_Appends(t *testing.T) {
	req := require.New(t)
	repository, err := NewMessageRepository(openDB(t), slog.Default(), 8)
	req.NoError(err)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repository.Append(domain.NewMessage(uuid.NewString(), domain.Payload{EncryptedBlob: "QQ==", Nonce: "Zm9v", SenderID: "u1"}))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	count, err := repository.Count()
	req.NoError(err)
	req.Equal(writers, count)
}

func Test_Get_Rejects_Unknown_Schema(t *testing.T) {
	req := require.New(t)
	db := openDB(t)
	repository, err := NewMessageRepository(db, slog.Default(), 0)
	req.NoError(err)

	// Given a record written by a future format
	req.NoError(db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(MessagePrefix+"m9"), []byte(`{"schema_version":2,"message":{"id":"m9"}}`))
	}))

	// Then it is not silently misread
	_, err = repository.Get("m9")
	req.ErrorIs(err, errors.ErrStorage)

	_, err = DecodeMessage([]byte("not json"))
	req.ErrorIs(err, errors.ErrStorage)
}
