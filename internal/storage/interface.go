// Package storage provides the transaction journal of the EBICS client.
//
// # Interface Design
//
// A [Store] persists one [Record] per transaction run, keyed by the local
// transaction reference, and the order data of completed downloads.
// [Journal] adapts a Store to the runner's journal hook: it converts the
// transaction after every state transition and archives download results.
//
// # Implementations
//
// The badgerstore sub-package is an embedded store for single hosts (and
// in-memory for tests). The mongodb sub-package shares the journal between
// hosts and keeps download data in GridFS.
//
// # Concurrency
//
// All store implementations must be safe for concurrent use from multiple
// goroutines.
package storage

import (
	"context"
	"errors"
	"time"
)

// Store persists journal records and downloaded order data
type Store interface {
	// Put creates or replaces a record
	Put(ctx context.Context, rec *Record) error

	// Get retrieves a record by ID, ErrNotFound if absent
	Get(ctx context.Context, id string) (*Record, error)

	// List returns records matching filter, newest first
	List(ctx context.Context, filter *Filter) ([]*Record, error)

	// PutData stores the order data of a record
	PutData(ctx context.Context, id string, data []byte) error

	// GetData retrieves the order data of a record, ErrNotFound if absent
	GetData(ctx context.Context, id string) ([]byte, error)

	// Close releases storage resources
	Close(ctx context.Context) error
}

// ErrNotFound is returned for unknown records or data
var ErrNotFound = errors.New("not found")

// Record is the journal entry of one transaction run
type Record struct {
	ID            string `bson:"_id" json:"id"`
	TransactionID string `bson:"transaction_id,omitempty" json:"transactionId,omitempty"`
	OrderType     string `bson:"order_type" json:"orderType"`
	Direction     string `bson:"direction" json:"direction"`
	State         string `bson:"state" json:"state"`
	Phase         string `bson:"phase" json:"phase"`

	// NumSegments is the announced (upload) or reported (download) count
	NumSegments int `bson:"num_segments" json:"numSegments"`
	// Segments counts segments acknowledged (upload) or received (download)
	Segments int `bson:"segments" json:"segments"`

	ReturnCode string `bson:"return_code,omitempty" json:"returnCode,omitempty"`
	ReportText string `bson:"report_text,omitempty" json:"reportText,omitempty"`

	// Download result
	DataSize int64  `bson:"data_size,omitempty" json:"dataSize,omitempty"`
	Checksum string `bson:"checksum,omitempty" json:"checksum,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// HasData reports whether order data was archived for the record
func (r *Record) HasData() bool {
	return r.Checksum != ""
}

// Filter selects records in List
type Filter struct {
	OrderType string
	State     string
	Since     *time.Time
	Limit     int
}

// Match reports whether rec passes the filter
func (f *Filter) Match(rec *Record) bool {
	if f == nil {
		return true
	}
	if f.OrderType != "" && rec.OrderType != f.OrderType {
		return false
	}
	if f.State != "" && rec.State != f.State {
		return false
	}
	if f.Since != nil && rec.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}
