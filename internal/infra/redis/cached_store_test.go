package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Apie2c/quiz-app/internal/domain"
	"github.com/Apie2c/quiz-app/internal/infra/memory"
)

func TestCachedStoreCachesInRedis(t *testing.T) {
	mr := runMiniredis(t)
	ctx := context.Background()

	backing := &countingStore{DocumentStore: memory.NewDocumentStore(domain.DocumentID)}
	_ = backing.Put(ctx, domain.Document{Categories: domain.DefaultCategories()})
	store := NewCachedStore(newClient(mr), backing, domain.DocumentID, time.Minute)

	if _, err := store.Get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	if backing.calls != 1 {
		t.Fatalf("expected backing read once, got %d", backing.calls)
	}
	if !mr.Exists("quiz:cache:quiz-categories") {
		t.Fatalf("expected cache key to be set")
	}
	if ttl := mr.TTL("quiz:cache:quiz-categories"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected jittered ttl, got %v", ttl)
	}

	// Second call should hit cache, backing not incremented.
	_, _ = store.Get(ctx)
	if backing.calls != 1 {
		t.Fatalf("expected cache hit, backing calls=%d", backing.calls)
	}

	mr.FastForward(2 * time.Minute)
	_, _ = store.Get(ctx)
	if backing.calls != 2 {
		t.Fatalf("expected reload after expiry, backing calls=%d", backing.calls)
	}
}

func TestCachedStorePutRefreshesCache(t *testing.T) {
	mr := runMiniredis(t)
	ctx := context.Background()

	backing := &countingStore{DocumentStore: memory.NewDocumentStore(domain.DocumentID)}
	_ = backing.Put(ctx, domain.Document{Categories: domain.DefaultCategories()})
	store := NewCachedStore(newClient(mr), backing, domain.DocumentID, time.Minute)
	_, _ = store.Get(ctx)

	tree := domain.CategoryTree{"Music": domain.SubCategoryMap{}}
	if err := store.Put(ctx, domain.Document{Categories: tree}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("quiz:cache:quiz-categories") {
		t.Fatalf("expected cache key to hold the written document")
	}

	reads := backing.calls
	doc, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := doc.Categories["Music"]; !ok || len(doc.Categories) != 1 {
		t.Fatalf("expected fresh document, got %v", doc.Categories)
	}
	if backing.calls != reads {
		t.Fatalf("expected read served from cache after put")
	}
}

func TestCachedStoreSlowFillKeepsNewerPut(t *testing.T) {
	mr := runMiniredis(t)
	ctx := context.Background()

	backing := newGatedStore()
	_ = backing.DocumentStore.Put(ctx, domain.Document{Categories: domain.CategoryTree{"Old": {}}})
	store := NewCachedStore(newClient(mr), backing, domain.DocumentID, time.Minute)

	backing.hold()
	filled := make(chan struct{})
	go func() {
		defer close(filled)
		_, _ = store.Get(ctx)
	}()
	<-backing.entered

	if err := store.Put(ctx, domain.Document{Categories: domain.CategoryTree{"New": {}}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	close(backing.release)
	<-filled

	doc, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := doc.Categories["New"]; !ok || len(doc.Categories) != 1 {
		t.Fatalf("expected the document written by put, got %v", doc.Categories)
	}
}

type countingStore struct {
	*memory.DocumentStore
	calls int
}

func (s *countingStore) Get(ctx context.Context) (domain.Document, error) {
	s.calls++
	return s.DocumentStore.Get(ctx)
}

// gatedStore reads the backing document and then, when held, waits for release before returning it.
type gatedStore struct {
	*memory.DocumentStore
	entered chan struct{}
	release chan struct{}

	mu   sync.Mutex
	held bool
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		DocumentStore: memory.NewDocumentStore(domain.DocumentID),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (s *gatedStore) hold() {
	s.mu.Lock()
	s.held = true
	s.mu.Unlock()
}

func (s *gatedStore) Get(ctx context.Context) (domain.Document, error) {
	doc, err := s.DocumentStore.Get(ctx)
	s.mu.Lock()
	held := s.held
	s.held = false
	s.mu.Unlock()
	if held {
		close(s.entered)
		<-s.release
	}
	return doc, err
}
