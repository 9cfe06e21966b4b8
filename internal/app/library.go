package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Apie2c/quiz-app/internal/domain"
	"github.com/rs/zerolog"
)

// CategoryGateway reaches the persistence endpoints.
// FetchCategories returns domain.ErrDocumentNotFound when the server has no document.
type CategoryGateway interface {
	FetchCategories(ctx context.Context) (domain.CategoryTree, error)
	SaveCategories(ctx context.Context, tree domain.CategoryTree) error
}

// Library is the client side view of the document store. Store failures are logged and
// never reach the player: loading falls back to the built-in tree.
type Library struct {
	gateway      CategoryGateway
	log          zerolog.Logger
	writeTimeout time.Duration

	// seeding is closed when the latest background write, and every one before it, is done.
	mu      sync.Mutex
	seeding chan struct{}
}

func NewLibrary(gateway CategoryGateway, log zerolog.Logger) *Library {
	return &Library{
		gateway:      gateway,
		log:          log.With().Str("component", "library").Logger(),
		writeTimeout: 10 * time.Second,
	}
}

// Load returns the persisted tree. When nothing is stored, or the store cannot be reached,
// it returns the default tree and writes that default back in the background.
func (l *Library) Load(ctx context.Context) domain.CategoryTree {
	tree, err := l.gateway.FetchCategories(ctx)
	if err == nil && tree != nil {
		return tree
	}
	if err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
		l.log.Error().Err(err).Msg("Failed to load categories, using defaults")
	} else {
		l.log.Info().Msg("No categories stored, seeding defaults")
	}

	defaults := domain.DefaultCategories()
	l.persistInBackground(defaults.Clone())
	return defaults
}

// Save replaces the stored tree. Failures are logged and reported as domain.ErrSaveFailed.
// A seed write still in flight from Load finishes first, so it cannot overwrite the edit.
func (l *Library) Save(ctx context.Context, tree domain.CategoryTree) error {
	l.Wait()
	if err := l.gateway.SaveCategories(ctx, tree); err != nil {
		l.log.Error().Err(err).Msg("Failed to save categories")
		return domain.ErrSaveFailed
	}
	return nil
}

// Wait blocks until background writes started by Load have finished.
func (l *Library) Wait() {
	l.mu.Lock()
	done := l.seeding
	l.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (l *Library) persistInBackground(tree domain.CategoryTree) {
	done := make(chan struct{})
	l.mu.Lock()
	prev := l.seeding
	l.seeding = done
	l.mu.Unlock()

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		ctx, cancel := context.WithTimeout(context.Background(), l.writeTimeout)
		defer cancel()
		if err := l.gateway.SaveCategories(ctx, tree); err != nil {
			l.log.Warn().Err(err).Msg("Failed to persist default categories")
		}
	}()
}
