package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSink mirrors flattened product rows to a MongoDB collection. It is an
// export convenience only; resume state never consults it.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoSink connects and pings the configured deployment.
func NewMongoSink(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*MongoSink, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoSink{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_sink"),
	}, nil
}

// InsertRows writes the rows in one batch.
func (s *MongoSink) InsertRows(ctx context.Context, rows []FlatProduct) error {
	docs := make([]any, len(rows))
	for i, row := range rows {
		docs[i] = row
	}

	insertCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.collection.InsertMany(insertCtx, docs); err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}
	s.logger.Info("rows mirrored to mongodb", "count", len(rows))
	return nil
}

// Close disconnects from the deployment.
func (s *MongoSink) Close(ctx context.Context) error {
	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(closeCtx)
}
