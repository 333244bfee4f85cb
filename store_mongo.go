package entrysource

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements the Store interface on a MongoDB collection of
// {key, value} documents.
type MongoStore struct {
	Collection *mongo.Collection
}

// NewMongoStore creates a MongoDB store.
func NewMongoStore(collection *mongo.Collection) *MongoStore {
	return &MongoStore{Collection: collection}
}

// Setup creates the unique key index.
func (s *MongoStore) Setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.Collection == nil {
		return fmt.Errorf("mongo store requires Collection")
	}
	_, err := s.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoStore) Description() string {
	return "MongoStore"
}

// Get reads a key, reporting absence without error.
func (s *MongoStore) Get(key string) (string, bool, error) {
	if s.Collection == nil {
		return "", false, fmt.Errorf("mongo store requires Collection")
	}
	var doc struct {
		Key   string `bson:"key"`
		Value string `bson:"value"`
	}
	err := s.Collection.FindOne(context.Background(), bson.M{"key": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return doc.Value, true, nil
}

// Set upserts a key.
func (s *MongoStore) Set(key, value string) error {
	if s.Collection == nil {
		return fmt.Errorf("mongo store requires Collection")
	}
	_, err := s.Collection.UpdateOne(
		context.Background(),
		bson.M{"key": key},
		bson.M{"$set": bson.M{"value": value}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Delete removes a key.
func (s *MongoStore) Delete(key string) error {
	if s.Collection == nil {
		return fmt.Errorf("mongo store requires Collection")
	}
	_, err := s.Collection.DeleteOne(context.Background(), bson.M{"key": key})
	return err
}
