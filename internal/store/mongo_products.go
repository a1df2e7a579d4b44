package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecommerce/internal/models"
)

type MongoProductStore struct {
	collection *mongo.Collection
	breaker    *Breaker
}

func NewMongoProductStore(db *mongo.Database, breaker *Breaker) *MongoProductStore {
	return &MongoProductStore{
		collection: db.Collection(productsCollection),
		breaker:    breaker,
	}
}

func (s *MongoProductStore) Create(ctx context.Context, product *models.Product) (primitive.ObjectID, error) {
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	if product.Sizes == nil {
		product.Sizes = []models.ProductSize{}
	}

	var res *mongo.InsertOneResult
	err := s.breaker.Do(func() error {
		var err error
		res, err = s.collection.InsertOne(ctx, product)
		return err
	})
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert product: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("insert product: unexpected id type")
	}
	product.ID = id
	return id, nil
}

func (s *MongoProductStore) Find(ctx context.Context, query ProductQuery, offset, limit int64) ([]models.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(limit)
	}

	products := make([]models.Product, 0)
	err := s.breaker.Do(func() error {
		cursor, err := s.collection.Find(ctx, productFilter(query), opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &products)
	})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return products, nil
}

func (s *MongoProductStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	products := make([]models.Product, 0, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	err := s.breaker.Do(func() error {
		cursor, err := s.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &products)
	})
	if err != nil {
		return nil, fmt.Errorf("find products by id: %w", err)
	}
	return products, nil
}

// productFilter translates a ProductQuery into a Mongo filter. The name is
// quoted so it always matches as a literal substring.
func productFilter(query ProductQuery) bson.M {
	filter := bson.M{}
	if query.Name != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(query.Name), Options: "i"}
	}
	if query.Size != "" {
		filter["sizes"] = bson.M{"$elemMatch": bson.M{"size": query.Size}}
	}
	return filter
}
