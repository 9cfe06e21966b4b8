package app

import (
	"context"
	"sync"

	"github.com/Apie2c/quiz-app/internal/domain"
)

// Editor holds the in-memory category tree and applies admin edits to it.
// Every edit is written back in full right away; a failed write keeps the edit in memory.
type Editor struct {
	library *Library

	// saveMu orders edits with their writes so the store never falls behind the tree.
	saveMu sync.Mutex

	mu   sync.RWMutex
	tree domain.CategoryTree
}

func NewEditor(library *Library, tree domain.CategoryTree) *Editor {
	if tree == nil {
		tree = domain.CategoryTree{}
	}
	return &Editor{library: library, tree: tree}
}

// Categories returns the current tree. Callers must treat it as read-only.
func (e *Editor) Categories() domain.CategoryTree {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree
}

func (e *Editor) AddCategory(ctx context.Context, name string) error {
	return e.apply(ctx, func(t domain.CategoryTree) (domain.CategoryTree, error) {
		return domain.AddCategory(t, name)
	})
}

func (e *Editor) DeleteCategory(ctx context.Context, name string) error {
	return e.apply(ctx, func(t domain.CategoryTree) (domain.CategoryTree, error) {
		return domain.DeleteCategory(t, name), nil
	})
}

func (e *Editor) AddSubCategory(ctx context.Context, category, name string) error {
	return e.apply(ctx, func(t domain.CategoryTree) (domain.CategoryTree, error) {
		return domain.AddSubCategory(t, category, name)
	})
}

func (e *Editor) DeleteSubCategory(ctx context.Context, category, name string) error {
	return e.apply(ctx, func(t domain.CategoryTree) (domain.CategoryTree, error) {
		return domain.DeleteSubCategory(t, category, name), nil
	})
}

func (e *Editor) AddQuestion(ctx context.Context, category, subCategory string, q domain.Question) error {
	return e.apply(ctx, func(t domain.CategoryTree) (domain.CategoryTree, error) {
		return domain.AddQuestion(t, category, subCategory, q)
	})
}

func (e *Editor) DeleteQuestion(ctx context.Context, category, subCategory string, index int) error {
	return e.apply(ctx, func(t domain.CategoryTree) (domain.CategoryTree, error) {
		return domain.DeleteQuestion(t, category, subCategory, index), nil
	})
}

func (e *Editor) UpdateQuestion(ctx context.Context, category, subCategory string, index int, q domain.Question) error {
	return e.apply(ctx, func(t domain.CategoryTree) (domain.CategoryTree, error) {
		return domain.UpdateQuestion(t, category, subCategory, index, q)
	})
}

func (e *Editor) apply(ctx context.Context, edit func(domain.CategoryTree) (domain.CategoryTree, error)) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	next, err := edit(e.tree)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.tree = next
	e.mu.Unlock()

	return e.library.Save(ctx, next)
}
