// Package badgerstore implements the transaction journal on an embedded
// Badger database
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/sirosfoundation/go-ebics/internal/storage"
)

// Key prefixes
const (
	recordPrefix = "record:"
	dataPrefix   = "data:"
)

// Store implements storage.Store using Badger
type Store struct {
	db *badger.DB
}

// Config holds Badger settings
type Config struct {
	// Dir is the database directory, ignored when InMemory is set
	Dir      string
	InMemory bool
	// SyncWrites flushes every write to disk
	SyncWrites bool
}

// NewStore opens the database
func NewStore(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = &Config{InMemory: true}
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else if cfg.Dir == "" {
		return nil, errors.New("badger directory is required")
	}
	opts.Logger = nil
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

func (s *Store) Put(_ context.Context, rec *storage.Record) error {
	if rec.ID == "" {
		return errors.New("record without id")
	}
	value, err := bson.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(recordPrefix+rec.ID), value)
	})
}

func (s *Store) Get(_ context.Context, id string) (*storage.Record, error) {
	var rec storage.Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(recordPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return bson.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("record %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) List(_ context.Context, filter *storage.Filter) ([]*storage.Record, error) {
	var records []*storage.Record
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(recordPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rec := &storage.Record{}
			if err := it.Item().Value(func(val []byte) error {
				return bson.Unmarshal(val, rec)
			}); err != nil {
				return fmt.Errorf("decoding %s: %w", it.Item().Key(), err)
			}
			if filter.Match(rec) {
				records = append(records, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if filter != nil && filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

func (s *Store) PutData(_ context.Context, id string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(dataPrefix+id), data)
	})
}

func (s *Store) GetData(_ context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(dataPrefix + id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("data %s: %w", id, storage.ErrNotFound)
	}
	return data, err
}
