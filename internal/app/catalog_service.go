package app

import (
	"context"
	"sync"
	"time"

	"github.com/Apie2c/quiz-app/internal/domain"
)

// DocumentStore abstracts where the category document lives (in-memory, Redis, Postgres, MongoDB).
// Get returns domain.ErrDocumentNotFound when nothing has been stored yet.
type DocumentStore interface {
	Get(ctx context.Context) (domain.Document, error)
	Put(ctx context.Context, doc domain.Document) error
}

// CatalogService contains the server side use cases: read and replace the category document.
type CatalogService struct {
	store DocumentStore
	now   func() time.Time

	mu          sync.Mutex
	subscribers map[chan domain.Document]struct{}
}

func NewCatalogService(store DocumentStore) *CatalogService {
	return NewCatalogServiceWithClock(store, time.Now)
}

// NewCatalogServiceWithClock allows deterministic timestamps in tests.
func NewCatalogServiceWithClock(store DocumentStore, now func() time.Time) *CatalogService {
	return &CatalogService{
		store:       store,
		now:         now,
		subscribers: make(map[chan domain.Document]struct{}),
	}
}

// Categories returns the stored tree or domain.ErrDocumentNotFound.
func (s *CatalogService) Categories(ctx context.Context) (domain.CategoryTree, error) {
	doc, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if doc.Categories == nil {
		return nil, domain.ErrDocumentNotFound
	}
	return doc.Categories, nil
}

// SaveCategories replaces the whole document and stamps it with the current time.
// Concurrent writers are not merged: the last write wins.
func (s *CatalogService) SaveCategories(ctx context.Context, tree domain.CategoryTree) (domain.Document, error) {
	doc := domain.Document{Categories: tree, UpdatedAt: s.now().UTC()}
	if err := s.store.Put(ctx, doc); err != nil {
		return domain.Document{}, err
	}

	s.mu.Lock()
	s.broadcastLocked(doc)
	s.mu.Unlock()
	return doc, nil
}

// Subscribe returns a channel that receives the document after every save.
// The current document, when present, is delivered first.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *CatalogService) Subscribe(ctx context.Context) (<-chan domain.Document, func()) {
	ch := make(chan domain.Document, 8)

	// Saves broadcast under mu after their Put, so either this read sees a save or the
	// save's broadcast reaches ch.
	s.mu.Lock()
	if doc, err := s.store.Get(ctx); err == nil && doc.Categories != nil {
		ch <- doc
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *CatalogService) broadcastLocked(doc domain.Document) {
	for ch := range s.subscribers {
		select {
		case ch <- doc:
		default:
			// Slow reader: replace its oldest pending document with the newest one.
			select {
			case <-ch:
			default:
			}
			ch <- doc
		}
	}
}
