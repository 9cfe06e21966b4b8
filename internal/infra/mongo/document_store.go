package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Apie2c/quiz-app/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// DocumentStore keeps the category document as a single record keyed by _id.
type DocumentStore struct {
	col *mongo.Collection
	id  string
}

func NewDocumentStore(db *mongo.Database, collection, id string) *DocumentStore {
	return &DocumentStore{col: db.Collection(collection), id: id}
}

func (s *DocumentStore) Get(ctx context.Context) (domain.Document, error) {
	var doc domain.Document
	err := s.col.FindOne(ctx, bson.M{"_id": s.id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("find document: %w", err)
	}
	doc.UpdatedAt = doc.UpdatedAt.UTC()
	return doc, nil
}

func (s *DocumentStore) Put(ctx context.Context, doc domain.Document) error {
	update := bson.M{"$set": bson.M{
		"categories": doc.Categories,
		"updatedAt":  doc.UpdatedAt,
	}}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": s.id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}
