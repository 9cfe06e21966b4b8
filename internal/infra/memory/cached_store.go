package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/Apie2c/quiz-app/internal/app"
	"github.com/Apie2c/quiz-app/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CachedStore caches the document of a slower store with a TTL to avoid repeated DB hits.
// Writes go to the backing store first and then refresh the cache. Every write bumps version,
// and a fill only lands if no write happened while it was reading the backing store.
type CachedStore struct {
	backing app.DocumentStore
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex

	mu      sync.RWMutex
	entry   *cachedDocument
	version uint64
}

type cachedDocument struct {
	doc       domain.Document
	expiresAt time.Time
}

func NewCachedStore(backing app.DocumentStore, ttl time.Duration) *CachedStore {
	return NewCachedStoreWithClock(backing, ttl, time.Now)
}

// NewCachedStoreWithClock allows deterministic expiry in tests.
func NewCachedStoreWithClock(backing app.DocumentStore, ttl time.Duration, clock func() time.Time) *CachedStore {
	return &CachedStore{
		backing: backing,
		ttl:     ttl,
		clock:   clock,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *CachedStore) Get(ctx context.Context) (domain.Document, error) {
	doc, ok, version := s.cached(s.clock())
	if ok {
		return doc, nil
	}

	// Fills are shared per version so a read issued after a write never joins an older fill.
	result, err, _ := s.sf.Do(strconv.FormatUint(version, 10), func() (interface{}, error) {
		if doc, ok, _ := s.cached(s.clock()); ok {
			return doc, nil
		}

		doc, err := s.backing.Get(ctx)
		if err != nil {
			return domain.Document{}, err
		}
		s.fill(doc, version, s.clock())
		return doc, nil
	})
	if err != nil {
		return domain.Document{}, err
	}
	doc = result.(domain.Document)
	doc.Categories = doc.Categories.Clone()
	return doc, nil
}

func (s *CachedStore) Put(ctx context.Context, doc domain.Document) error {
	s.mu.Lock()
	s.version++
	s.entry = nil
	s.mu.Unlock()

	if err := s.backing.Put(ctx, doc); err != nil {
		return err
	}
	doc.Categories = doc.Categories.Clone()
	expiresAt := s.clock().Add(s.ttlWithJitter())
	s.mu.Lock()
	s.version++
	s.entry = &cachedDocument{doc: doc, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

// cached returns the live entry, if any, and the version a fill must match to be stored.
func (s *CachedStore) cached(now time.Time) (domain.Document, bool, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entry == nil || !s.entry.expiresAt.After(now) {
		return domain.Document{}, false, s.version
	}
	doc := s.entry.doc
	doc.Categories = doc.Categories.Clone()
	return doc, true, s.version
}

// fill stores doc unless a write has happened since version was read.
func (s *CachedStore) fill(doc domain.Document, version uint64, now time.Time) {
	expiresAt := now.Add(s.ttlWithJitter())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return
	}
	s.entry = &cachedDocument{doc: doc, expiresAt: expiresAt}
}

func (s *CachedStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
