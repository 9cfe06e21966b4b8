package app_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Apie2c/quiz-app/internal/app"
	"github.com/Apie2c/quiz-app/internal/domain"
	"github.com/rs/zerolog"
)

func TestLoadReturnsStoredTree(t *testing.T) {
	gateway := &memoryGateway{tree: physicsTree()}
	library := app.NewLibrary(gateway, zerolog.Nop())

	tree := library.Load(context.Background())
	library.Wait()
	if !reflect.DeepEqual(tree, physicsTree()) {
		t.Fatalf("unexpected tree %+v", tree)
	}
	if gateway.saveCount() != 0 {
		t.Fatalf("expected no writes, got %d", gateway.saveCount())
	}
}

func TestLoadSeedsDefaultsWhenEmpty(t *testing.T) {
	gateway := &memoryGateway{}
	library := app.NewLibrary(gateway, zerolog.Nop())

	tree := library.Load(context.Background())
	library.Wait()
	if !reflect.DeepEqual(tree, domain.DefaultCategories()) {
		t.Fatalf("expected default tree, got %+v", tree)
	}
	if gateway.saveCount() != 1 || !reflect.DeepEqual(gateway.savedTree, domain.DefaultCategories()) {
		t.Fatalf("expected defaults persisted once, saves=%d", gateway.saveCount())
	}
}

func TestLoadFallsBackOnFailure(t *testing.T) {
	gateway := &memoryGateway{fetchErr: errUnavailable, saveErr: errUnavailable}
	library := app.NewLibrary(gateway, zerolog.Nop())

	tree := library.Load(context.Background())
	library.Wait()
	if !reflect.DeepEqual(tree, domain.DefaultCategories()) {
		t.Fatalf("expected default tree, got %+v", tree)
	}
	if gateway.saveCount() != 1 {
		t.Fatalf("expected one write attempt, got %d", gateway.saveCount())
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	gateway := &memoryGateway{}
	library := app.NewLibrary(gateway, zerolog.Nop())

	if err := library.Save(context.Background(), physicsTree()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := library.Load(context.Background()); !reflect.DeepEqual(got, physicsTree()) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSaveFailureIsGeneric(t *testing.T) {
	gateway := &memoryGateway{saveErr: errUnavailable}
	library := app.NewLibrary(gateway, zerolog.Nop())

	err := library.Save(context.Background(), physicsTree())
	if !errors.Is(err, domain.ErrSaveFailed) || errors.Is(err, errUnavailable) {
		t.Fatalf("expected generic save error, got %v", err)
	}
}

func TestSaveWaitsForSeedWrite(t *testing.T) {
	gateway := &slowSeedGateway{release: make(chan struct{})}
	library := app.NewLibrary(gateway, zerolog.Nop())
	_ = library.Load(context.Background())

	done := make(chan error, 1)
	go func() { done <- library.Save(context.Background(), physicsTree()) }()

	select {
	case <-done:
		t.Fatalf("save finished before the seed write")
	case <-time.After(50 * time.Millisecond):
	}
	close(gateway.release)

	if err := <-done; err != nil {
		t.Fatalf("save: %v", err)
	}
	if !reflect.DeepEqual(gateway.last(), physicsTree()) {
		t.Fatalf("expected the edit to be written last, got %+v", gateway.last())
	}
}

// slowSeedGateway holds its first write until release is closed.
// entered, when set, is closed as that write arrives.
type slowSeedGateway struct {
	entered chan struct{}
	release chan struct{}

	mu     sync.Mutex
	writes []domain.CategoryTree
}

func (g *slowSeedGateway) FetchCategories(context.Context) (domain.CategoryTree, error) {
	return nil, domain.ErrDocumentNotFound
}

func (g *slowSeedGateway) SaveCategories(_ context.Context, tree domain.CategoryTree) error {
	g.mu.Lock()
	first := len(g.writes) == 0
	g.mu.Unlock()
	if first {
		if g.entered != nil {
			close(g.entered)
		}
		<-g.release
	}
	g.mu.Lock()
	g.writes = append(g.writes, tree.Clone())
	g.mu.Unlock()
	return nil
}

func (g *slowSeedGateway) last() domain.CategoryTree {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.writes) == 0 {
		return nil
	}
	return g.writes[len(g.writes)-1]
}

func TestConcurrentLoadAndSave(t *testing.T) {
	gateway := &memoryGateway{fetchErr: errUnavailable}
	library := app.NewLibrary(gateway, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = library.Load(context.Background())
		}()
		go func() {
			defer wg.Done()
			if err := library.Save(context.Background(), physicsTree()); err != nil {
				t.Errorf("save: %v", err)
			}
		}()
	}
	wg.Wait()
	library.Wait()

	if gateway.saveCount() != 40 {
		t.Fatalf("expected every seed and save to be written, got %d", gateway.saveCount())
	}
}
