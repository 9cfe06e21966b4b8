package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Apie2c/quiz-app/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DocumentStore keeps the category document as a JSON string in Redis.
// The key never expires; use CachedStore for a TTL-bound copy of another store.
type DocumentStore struct {
	client *redis.Client
	id     string
}

func NewDocumentStore(client *redis.Client, id string) *DocumentStore {
	return &DocumentStore{client: client, id: id}
}

func (s *DocumentStore) Get(ctx context.Context) (domain.Document, error) {
	return readDocument(ctx, s.client, s.key())
}

func (s *DocumentStore) Put(ctx context.Context, doc domain.Document) error {
	return writeDocument(ctx, s.client, s.key(), doc, 0)
}

func (s *DocumentStore) key() string {
	return "quiz:document:" + s.id
}

func readDocument(ctx context.Context, client *redis.Client, key string) (domain.Document, error) {
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("redis get %s: %w", key, err)
	}
	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return doc, nil
}

func writeDocument(ctx context.Context, client *redis.Client, key string, doc domain.Document, ttl time.Duration) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// fillDocument writes doc only when key is absent, so it never replaces a newer write.
func fillDocument(ctx context.Context, client *redis.Client, key string, doc domain.Document, ttl time.Duration) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := client.SetNX(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return nil
}
