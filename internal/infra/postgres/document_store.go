package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Apie2c/quiz-app/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// DocumentStore persists the category document as JSONB in the quiz_documents table.
type DocumentStore struct {
	pool *pgxpool.Pool
	id   string
}

func NewDocumentStore(pool *pgxpool.Pool, id string) *DocumentStore {
	return &DocumentStore{pool: pool, id: id}
}

func (s *DocumentStore) Get(ctx context.Context) (domain.Document, error) {
	var (
		raw       []byte
		updatedAt time.Time
	)
	err := s.pool.QueryRow(ctx, `SELECT categories, updated_at FROM quiz_documents WHERE id=$1`, s.id).Scan(&raw, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("load document: %w", err)
	}
	var categories domain.CategoryTree
	if err := json.Unmarshal(raw, &categories); err != nil {
		return domain.Document{}, fmt.Errorf("unmarshal categories: %w", err)
	}
	return domain.Document{Categories: categories, UpdatedAt: updatedAt.UTC()}, nil
}

func (s *DocumentStore) Put(ctx context.Context, doc domain.Document) error {
	raw, err := json.Marshal(doc.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO quiz_documents (id, categories, updated_at) VALUES ($1, $2::jsonb, $3)
ON CONFLICT (id) DO UPDATE SET categories=EXCLUDED.categories, updated_at=EXCLUDED.updated_at`,
		s.id, string(raw), doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}
