package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/reviewscope/crawler/internal/types"
)

// MongoStore implements ReviewStore on MongoDB. Reviews live in one
// collection with a unique-by-upsert natural key; items carry only the
// last_crawled_at stamp the dashboard reads.
type MongoStore struct {
	client  *mongo.Client
	reviews *mongo.Collection
	items   *mongo.Collection
	logger  *slog.Logger
}

// NewMongoStore connects and pings the backend. A dead backend at
// startup is fatal: a store that silently drops reviews is worse than
// no store.
func NewMongoStore(uri, database, collection string, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	db := client.Database(database)
	return &MongoStore{
		client:  client,
		reviews: db.Collection(collection),
		items:   db.Collection("items"),
		logger:  logger.With("component", "mongo_store"),
	}, nil
}

func (s *MongoStore) UpsertReviews(ctx context.Context, itemID string, records []types.ReviewRecord) (int, int, error) {
	inserted, skipped := 0, 0

	for i := range records {
		rec := &records[i]

		var date any
		if rec.Date != nil {
			date = *rec.Date
		}

		filter := bson.M{
			"item_id": itemID,
			"author":  rec.Author,
			"date":    date,
			"content": rec.Content,
		}
		update := bson.M{
			"$setOnInsert": bson.M{
				"item_id":    itemID,
				"author":     rec.Author,
				"rating":     rec.Rating,
				"content":    rec.Content,
				"date":       date,
				"images":     rec.Images,
				"platform":   rec.Platform,
				"created_at": time.Now().UTC(),
			},
		}

		res, err := s.reviews.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		if err != nil {
			return inserted, skipped, &types.StorageError{Op: "upsert review", Err: err}
		}
		if res.UpsertedCount > 0 {
			inserted++
		} else {
			skipped++
		}
	}

	s.logger.Debug("reviews upserted",
		"item_id", itemID, "inserted", inserted, "skipped", skipped)
	return inserted, skipped, nil
}

func (s *MongoStore) TouchLastCrawled(ctx context.Context, itemID string, at time.Time) error {
	_, err := s.items.UpdateOne(ctx,
		bson.M{"_id": itemID},
		bson.M{"$set": bson.M{"last_crawled_at": at.UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return &types.StorageError{Op: "touch item", Err: err}
	}
	return nil
}

func (s *MongoStore) CrawlStatus(ctx context.Context, itemID string) (*time.Time, int64, error) {
	var item struct {
		LastCrawledAt *time.Time `bson:"last_crawled_at"`
	}
	err := s.items.FindOne(ctx, bson.M{"_id": itemID}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, 0, types.ErrItemNotFound
	}
	if err != nil {
		return nil, 0, &types.StorageError{Op: "find item", Err: err}
	}

	count, err := s.reviews.CountDocuments(ctx, bson.M{"item_id": itemID})
	if err != nil {
		return nil, 0, &types.StorageError{Op: "count reviews", Err: err}
	}
	return item.LastCrawledAt, count, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
