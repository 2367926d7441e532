package storage_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-ebics/internal/ebicstest"
	"github.com/sirosfoundation/go-ebics/internal/storage"
	"github.com/sirosfoundation/go-ebics/internal/storage/badgerstore"
	"github.com/sirosfoundation/go-ebics/pkg/order"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
)

const testTransactionID = "0F1E2D3C4B5A69780F1E2D3C4B5A6978"

func TestJournal_RecordsDownload(t *testing.T) {
	ctx := context.Background()
	store, err := badgerstore.NewStore(&badgerstore.Config{InMemory: true})
	require.NoError(t, err)
	defer store.Close(ctx)
	journal := storage.NewJournal(store)

	keys, bank := ebicstest.New(t)
	session := order.NewSession(protocol.Subscriber{HostID: "EBIXHOST", PartnerID: "P1", UserID: "U1"}, keys)
	cmd, err := order.NewSTA(session, "STA", &protocol.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	tx := order.NewTransaction(cmd)

	require.NoError(t, journal.Record(ctx, tx))
	rec, err := store.Get(ctx, tx.Reference)
	require.NoError(t, err)
	assert.Equal(t, "initialisation", rec.State)
	assert.Equal(t, "download", rec.Direction)
	created := rec.CreatedAt

	d, err := bank.PrepareDownload(":20:STMT-1\r\n")
	require.NoError(t, err)
	initResp, err := bank.Response(ebicstest.Reply{
		Phase:          protocol.PhaseInitialisation,
		TransactionID:  testTransactionID,
		NumSegments:    1,
		Segment:        1,
		LastSegment:    true,
		TransactionKey: d.TransactionKey,
		OrderData:      d.Segments[0],
	})
	require.NoError(t, err)
	_, err = session.Deserialize(cmd, tx, initResp)
	require.NoError(t, err)

	receiptResp, err := bank.Response(ebicstest.Reply{
		Phase:         protocol.PhaseReceipt,
		TransactionID: testTransactionID,
	})
	require.NoError(t, err)
	_, err = session.Deserialize(cmd, tx, receiptResp)
	require.NoError(t, err)
	require.Equal(t, order.StateComplete, tx.State)

	require.NoError(t, journal.Record(ctx, tx))

	rec, err = store.Get(ctx, tx.Reference)
	require.NoError(t, err)
	assert.Equal(t, "complete", rec.State)
	assert.Equal(t, testTransactionID, rec.TransactionID)
	assert.Equal(t, 1, rec.Segments)
	assert.True(t, created.Equal(rec.CreatedAt))
	assert.True(t, rec.HasData())

	sum := sha256.Sum256([]byte(":20:STMT-1\r\n"))
	assert.Equal(t, hex.EncodeToString(sum[:]), rec.Checksum)

	data, err := store.GetData(ctx, tx.Reference)
	require.NoError(t, err)
	assert.Equal(t, ":20:STMT-1\r\n", string(data))
}
