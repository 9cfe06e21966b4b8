package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Apie2c/quiz-app/internal/domain"
)

func TestCachedStoreCaches(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{DocumentStore: NewDocumentStore(domain.DocumentID)}
	_ = backing.DocumentStore.Put(ctx, domain.Document{Categories: domain.DefaultCategories()})

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewCachedStoreWithClock(backing, time.Minute, func() time.Time { return now })

	if _, err := store.Get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	if backing.getCalls() != 1 {
		t.Fatalf("expected backing read once, got %d", backing.getCalls())
	}

	if _, err := store.Get(ctx); err != nil {
		t.Fatalf("get 2: %v", err)
	}
	if backing.getCalls() != 1 {
		t.Fatalf("expected cache hit, backing reads %d", backing.getCalls())
	}

	// past ttl plus the maximum jitter
	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx); err != nil {
		t.Fatalf("get 3: %v", err)
	}
	if backing.getCalls() != 2 {
		t.Fatalf("expected reload after expiry, backing reads %d", backing.getCalls())
	}
}

func TestCachedStorePutWritesThrough(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{DocumentStore: NewDocumentStore(domain.DocumentID)}
	store := NewCachedStore(backing, time.Minute)

	if _, err := store.Get(ctx); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	tree := domain.CategoryTree{"Science": domain.SubCategoryMap{"Physics": nil}}
	if err := store.Put(ctx, domain.Document{Categories: tree}); err != nil {
		t.Fatalf("put: %v", err)
	}

	doc, err := backing.DocumentStore.Get(ctx)
	if err != nil {
		t.Fatalf("backing get: %v", err)
	}
	if _, ok := doc.Categories["Science"]; !ok {
		t.Fatalf("expected write to reach backing store")
	}

	reads := backing.getCalls()
	cached, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := cached.Categories["Science"]["Physics"]; !ok {
		t.Fatalf("expected cached document to reflect the write")
	}
	if backing.getCalls() != reads {
		t.Fatalf("expected read served from cache after put")
	}
}

func TestCachedStoreFailedPutDropsCache(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{DocumentStore: NewDocumentStore(domain.DocumentID)}
	_ = backing.DocumentStore.Put(ctx, domain.Document{Categories: domain.DefaultCategories()})
	store := NewCachedStore(backing, time.Minute)
	_, _ = store.Get(ctx)

	backing.putErr = errors.New("disk full")
	if err := store.Put(ctx, domain.Document{}); err == nil {
		t.Fatalf("expected put error")
	}
	if _, err := store.Get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	if backing.getCalls() != 2 {
		t.Fatalf("expected reload after failed put, backing reads %d", backing.getCalls())
	}
}

func TestCachedStoreSlowFillKeepsNewerPut(t *testing.T) {
	ctx := context.Background()
	backing := newGatedStore()
	_ = backing.DocumentStore.Put(ctx, domain.Document{Categories: domain.CategoryTree{"Old": {}}})
	store := NewCachedStore(backing, time.Minute)

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

func TestCachedStoreReadAfterPutSkipsOlderFill(t *testing.T) {
	ctx := context.Background()
	backing := newGatedStore()
	_ = backing.DocumentStore.Put(ctx, domain.Document{Categories: domain.CategoryTree{"Old": {}}})
	// zero ttl: every read goes to the backing store
	store := NewCachedStore(backing, 0)

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

	got := make(chan domain.Document, 1)
	go func() {
		doc, _ := store.Get(ctx)
		got <- doc
	}()
	select {
	case doc := <-got:
		if _, ok := doc.Categories["New"]; !ok {
			t.Fatalf("expected the document written by put, got %v", doc.Categories)
		}
	case <-time.After(time.Second):
		t.Fatalf("read after put waited on the older fill")
	}
	close(backing.release)
	<-filled
}

type countingStore struct {
	*DocumentStore
	mu     sync.Mutex
	gets   int
	putErr error
}

func (s *countingStore) Get(ctx context.Context) (domain.Document, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	return s.DocumentStore.Get(ctx)
}

func (s *countingStore) Put(ctx context.Context, doc domain.Document) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.DocumentStore.Put(ctx, doc)
}

func (s *countingStore) getCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

// gatedStore reads the backing document and then, when held, waits for release before returning it.
type gatedStore struct {
	*DocumentStore
	entered chan struct{}
	release chan struct{}

	mu   sync.Mutex
	held bool
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		DocumentStore: NewDocumentStore(domain.DocumentID),
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
