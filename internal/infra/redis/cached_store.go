package redis

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Apie2c/quiz-app/internal/app"
	"github.com/Apie2c/quiz-app/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CachedStore caches the document of a backing store in Redis and falls back to it on cache miss.
// The cached copy lives under quiz:cache:{id} with a jittered TTL so instances share one warm copy.
// Writes overwrite the cached copy while fills only set it when absent.
type CachedStore struct {
	client  *redis.Client
	backing app.DocumentStore
	id      string
	ttl     time.Duration
	sf      singleflight.Group
	writes  atomic.Uint64

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCachedStore(client *redis.Client, backing app.DocumentStore, id string, ttl time.Duration) *CachedStore {
	return &CachedStore{
		client:  client,
		backing: backing,
		id:      id,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *CachedStore) Get(ctx context.Context) (domain.Document, error) {
	if doc, err := readDocument(ctx, s.client, s.key()); err == nil {
		return doc, nil
	}

	// A read issued after a local write must not join a fill that started before it.
	flight := s.id + ":" + strconv.FormatUint(s.writes.Load(), 10)
	result, err, _ := s.sf.Do(flight, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if doc, err := readDocument(ctx, s.client, s.key()); err == nil {
			return doc, nil
		}

		doc, err := s.backing.Get(ctx)
		if err != nil {
			return domain.Document{}, err
		}
		// best-effort fill
		_ = fillDocument(ctx, s.client, s.key(), doc, s.ttlWithJitter())
		return doc, nil
	})
	if err != nil {
		return domain.Document{}, err
	}
	doc := result.(domain.Document)
	doc.Categories = doc.Categories.Clone()
	return doc, nil
}

func (s *CachedStore) Put(ctx context.Context, doc domain.Document) error {
	s.writes.Add(1)
	if err := s.backing.Put(ctx, doc); err != nil {
		_ = s.client.Del(ctx, s.key()).Err()
		return err
	}
	if err := writeDocument(ctx, s.client, s.key(), doc, s.ttlWithJitter()); err != nil {
		_ = s.client.Del(ctx, s.key()).Err()
	}
	return nil
}

func (s *CachedStore) key() string {
	return "quiz:cache:" + s.id
}

func (s *CachedStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
