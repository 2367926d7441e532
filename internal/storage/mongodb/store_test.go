package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-ebics/internal/storage"
)

// newTestStore connects to the server in EBICS_TEST_MONGODB_URI
func newTestStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("EBICS_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("EBICS_TEST_MONGODB_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewStore(ctx, &Config{URI: uri, Database: "ebics_test_" + uuid.NewString()[:8]})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestStore_RecordLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	rec := &storage.Record{ID: "ref-1", OrderType: "STA", State: "initialisation", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.Put(ctx, rec))

	rec.State = "complete"
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.Get(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, "complete", got.State)

	list, err := s.List(ctx, &storage.Filter{OrderType: "STA"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.Get(ctx, "ref-2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_Data(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutData(ctx, "ref-1", []byte("camt.053")))
	data, err := s.GetData(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, "camt.053", string(data))

	_, err = s.GetData(ctx, "ref-2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
