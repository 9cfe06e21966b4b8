package memory

import (
	"context"
	"sync"

	"github.com/Apie2c/quiz-app/internal/domain"
)

// DocumentStore is an in-memory implementation of app.DocumentStore.
// Documents are copied on the way in and out so callers cannot alias stored state.
type DocumentStore struct {
	id   string
	mu   sync.RWMutex
	docs map[string]domain.Document
}

func NewDocumentStore(id string) *DocumentStore {
	return &DocumentStore{
		id:   id,
		docs: make(map[string]domain.Document),
	}
}

func (s *DocumentStore) Get(_ context.Context) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[s.id]
	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	doc.Categories = doc.Categories.Clone()
	return doc, nil
}

func (s *DocumentStore) Put(_ context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.Categories = doc.Categories.Clone()
	s.docs[s.id] = doc
	return nil
}
