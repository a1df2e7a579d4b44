package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecommerce/internal/models"
)

type MongoOrderStore struct {
	collection *mongo.Collection
	breaker    *Breaker
}

func NewMongoOrderStore(db *mongo.Database, breaker *Breaker) *MongoOrderStore {
	return &MongoOrderStore{
		collection: db.Collection(ordersCollection),
		breaker:    breaker,
	}
}

// AppendItems upserts the user's order and pushes items onto it in a single
// findAndModify. The _id of a new order is chosen here and the pre-image is
// returned, so an empty pre-image means this call inserted the order.
func (s *MongoOrderStore) AppendItems(ctx context.Context, userID string, items []models.OrderItem) (AppendResult, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	newID := primitive.NewObjectID()

	filter := bson.M{"userId": userID}
	update := bson.M{
		"$setOnInsert": bson.M{"_id": newID, "createdAt": now},
		"$set":         bson.M{"updatedAt": now},
		"$push":        bson.M{"items": bson.M{"$each": items}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"_id": 1})

	var doc struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := s.breaker.Do(func() error {
		return s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	})
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return AppendResult{ID: newID, Created: true}, nil
	case err != nil && mongo.IsDuplicateKeyError(err):
		return AppendResult{}, fmt.Errorf("append order items for %q: %w: %w", userID, ErrDuplicateKey, err)
	case err != nil:
		return AppendResult{}, fmt.Errorf("append order items for %q: %w", userID, err)
	}
	return AppendResult{ID: doc.ID}, nil
}

func (s *MongoOrderStore) FindByUser(ctx context.Context, userID string, offset, limit int64) ([]models.Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(limit)
	}

	orders := make([]models.Order, 0)
	err := s.breaker.Do(func() error {
		cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &orders)
	})
	if err != nil {
		return nil, fmt.Errorf("find orders for %q: %w", userID, err)
	}
	return orders, nil
}
