// Package mongodb implements the transaction journal using MongoDB
package mongodb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirosfoundation/go-ebics/internal/storage"
)

// Store implements storage.Store using MongoDB
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	gridfs  *gridfs.Bucket
	records *mongo.Collection
}

// Config holds MongoDB connection settings
type Config struct {
	URI            string
	Database       string
	GridFSBucket   string
	ChunkSizeBytes int32
}

// NewStore creates a new MongoDB store
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "ebics"
	}
	db := client.Database(database)

	bucketName := cfg.GridFSBucket
	if bucketName == "" {
		bucketName = "orderdata"
	}
	chunkSize := cfg.ChunkSizeBytes
	if chunkSize == 0 {
		chunkSize = 261120 // 255KB
	}
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().
		SetName(bucketName).
		SetChunkSizeBytes(chunkSize))
	if err != nil {
		return nil, fmt.Errorf("creating GridFS bucket: %w", err)
	}

	s := &Store{
		client:  client,
		db:      db,
		gridfs:  bucket,
		records: db.Collection("transactions"),
	}

	if err := s.createIndexes(ctx); err != nil {
		return nil, fmt.Errorf("creating indexes: %w", err)
	}

	return s, nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	_, err := s.records.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_type", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "state", Value: 1}}},
		{Keys: bson.D{{Key: "transaction_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("creating transaction indexes: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Put(ctx context.Context, rec *storage.Record) error {
	if rec.ID == "" {
		return errors.New("record without id")
	}
	_, err := s.records.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*storage.Record, error) {
	var rec storage.Record
	err := s.records.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("record %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) List(ctx context.Context, filter *storage.Filter) ([]*storage.Record, error) {
	query := bson.M{}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.OrderType != "" {
			query["order_type"] = filter.OrderType
		}
		if filter.State != "" {
			query["state"] = filter.State
		}
		if filter.Since != nil {
			query["created_at"] = bson.M{"$gte": *filter.Since}
		}
		if filter.Limit > 0 {
			opts.SetLimit(int64(filter.Limit))
		}
	}

	cursor, err := s.records.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*storage.Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// PutData stores order data in GridFS under the record id
func (s *Store) PutData(ctx context.Context, id string, data []byte) error {
	uploadOpts := options.GridFSUpload().SetMetadata(bson.M{
		"record_id":  id,
		"created_at": time.Now().UTC(),
	})

	uploadStream, err := s.gridfs.OpenUploadStream(id, uploadOpts)
	if err != nil {
		return fmt.Errorf("opening upload stream: %w", err)
	}
	defer uploadStream.Close()

	if _, err := uploadStream.Write(data); err != nil {
		return fmt.Errorf("writing order data: %w", err)
	}
	return nil
}

// GetData reads the latest order data stored for a record
func (s *Store) GetData(ctx context.Context, id string) ([]byte, error) {
	var buf bytes.Buffer
	_, err := s.gridfs.DownloadToStreamByName(id, &buf)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, fmt.Errorf("data %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading order data: %w", err)
	}
	return buf.Bytes(), nil
}
