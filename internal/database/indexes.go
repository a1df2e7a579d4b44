package database

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates every index the stores rely on. All indexes are
// attempted even when one fails.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *slog.Logger) error {
	return errors.Join(
		EnsureProductIndexes(ctx, db, logger),
		EnsureOrderIndexes(ctx, db, logger),
	)
}

func EnsureProductIndexes(ctx context.Context, db *mongo.Database, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name_index"),
		},
		{
			Keys:    bson.D{{Key: "sizes.size", Value: 1}},
			Options: options.Index().SetName("sizes_size_index"),
		},
	}

	logger.Info("EnsureProductIndexes: creating indexes", slog.Int("count", len(models)))
	if _, err := indexes.CreateMany(ctx, models); err != nil {
		logger.Error("EnsureProductIndexes: index error", slog.Any("error", err))
		return err
	}
	logger.Info("EnsureProductIndexes: indexes created")
	return nil
}

// EnsureOrderIndexes creates the unique userId index that backs the
// one-order-per-user rule. It fails on databases that already hold
// duplicate orders for a user; reads keep working in that case.
func EnsureOrderIndexes(ctx context.Context, db *mongo.Database, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	userIDIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().
			SetName("userId_unique").
			SetUnique(true),
	}

	logger.Info("EnsureOrderIndexes: creating userId_unique index")
	if _, err := indexes.CreateOne(ctx, userIDIndex); err != nil {
		logger.Error("EnsureOrderIndexes: userId index error", slog.Any("error", err))
		return err
	}
	logger.Info("EnsureOrderIndexes: userId_unique index created")
	return nil
}
