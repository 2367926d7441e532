package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/sirosfoundation/go-ebics/pkg/order"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
)

// Journal records transaction runs in a Store
type Journal struct {
	store Store
	now   func() time.Time
}

// NewJournal creates a journal backed by store
func NewJournal(store Store) *Journal {
	return &Journal{store: store, now: time.Now}
}

// Store returns the backing store
func (j *Journal) Store() Store {
	return j.store
}

// Record stores the current state of tx. The order data of a completed
// download is archived once.
func (j *Journal) Record(ctx context.Context, tx *order.Transaction) error {
	now := j.now().UTC()

	rec, err := j.store.Get(ctx, tx.Reference)
	switch {
	case errors.Is(err, ErrNotFound):
		rec = &Record{ID: tx.Reference, CreatedAt: now}
	case err != nil:
		return fmt.Errorf("loading record %s: %w", tx.Reference, err)
	}

	rec.TransactionID = tx.ID
	rec.OrderType = tx.OrderType
	rec.Direction = tx.Direction.String()
	rec.State = tx.State.String()
	rec.Phase = tx.Phase.String()
	rec.NumSegments = tx.NumSegments
	rec.ReturnCode = tx.ReturnCode
	rec.ReportText = tx.ReportText
	rec.UpdatedAt = now

	if tx.Direction == protocol.Download {
		rec.Segments = tx.Received()
	} else {
		rec.Segments = tx.Acknowledged
	}

	if tx.State == order.StateComplete && tx.Direction == protocol.Download && !rec.HasData() {
		if data, err := tx.Output(); err == nil {
			if err := j.store.PutData(ctx, rec.ID, data); err != nil {
				return fmt.Errorf("archiving order data: %w", err)
			}
			sum := sha256.Sum256(data)
			rec.Checksum = hex.EncodeToString(sum[:])
			rec.DataSize = int64(len(data))
		}
	}

	return j.store.Put(ctx, rec)
}
