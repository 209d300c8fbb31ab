package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestDebugHandler_Lists_Prefix(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer func() { _ = db.Close() }()

	req.NoError(db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte("msg:1"), []byte(`{"id":"1"}`)); err != nil {
			return err
		}
		return txn.Set([]byte("user:a@b.c"), []byte(`{"id":"u"}`))
	}))

	handler := NewDebugHandler(db, nil, func() map[string]any {
		return map[string]any{"consumers": 3}
	})
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/inspect", nil))

	req.Equal(http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	req.Contains(body, "consumers: 3")
	req.Contains(body, "msg:1")
	req.NotContains(body, "user:a@b.c")
}
