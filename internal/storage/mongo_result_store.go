package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig contains connection settings for the results collection.
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. arena
	Collection string // e.g. session_results
}

// MongoResultStore implements ResultStore on MongoDB.
type MongoResultStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration
}

// NewMongoResultStore establishes connection and returns the store.
func NewMongoResultStore(ctx context.Context, cfg MongoConfig) (*MongoResultStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "arena"
	}
	if cfg.Collection == "" {
		cfg.Collection = "session_results"
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	// ping
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	store := &MongoResultStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ctxTimeout: 5 * time.Second,
	}
	if err := store.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (m *MongoResultStore) ensureIndexes(ctx context.Context) error {
	idIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("session_unique"),
	}
	finishedIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "finished_at", Value: -1}},
		Options: options.Index().SetName("finished_desc"),
	}
	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{idIdx, finishedIdx})
	if err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}
	return nil
}

// SaveResult upserts the document by session_id.
func (m *MongoResultStore) SaveResult(ctx context.Context, r SessionResult) error {
	if err := r.validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	_, err := m.collection.ReplaceOne(ctx,
		bson.M{"session_id": r.SessionID}, r, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo save result %s: %w", r.SessionID, err)
	}
	return nil
}

// LoadResult implements ResultStore.
func (m *MongoResultStore) LoadResult(ctx context.Context, sessionID string) (*SessionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	var r SessionResult
	err := m.collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("итог сессии %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo load result %s: %w", sessionID, err)
	}
	return &r, nil
}

// ListResults returns the newest results without replay blobs.
func (m *MongoResultStore) ListResults(ctx context.Context, limit int) ([]SessionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "finished_at", Value: -1}}).
		SetProjection(bson.M{"replay": 0})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list results: %w", err)
	}
	defer cur.Close(ctx)

	var out []SessionResult
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo decode results: %w", err)
	}
	return out, nil
}

// Close disconnects the client.
func (m *MongoResultStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
