package app_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/Apie2c/quiz-app/internal/app"
	"github.com/Apie2c/quiz-app/internal/domain"
	"github.com/rs/zerolog"
)

// manualClock fires callbacks only when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) app.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward, firing due callbacks in order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	end := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *manualTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(end) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = end
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
	}
}

// live counts scheduled callbacks that have neither fired nor been stopped.
func (c *manualClock) live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// memoryGateway stands in for the persistence endpoints.
type memoryGateway struct {
	mu        sync.Mutex
	tree      domain.CategoryTree
	fetchErr  error
	saveErr   error
	saves     int
	savedTree domain.CategoryTree
}

func (g *memoryGateway) FetchCategories(context.Context) (domain.CategoryTree, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	if g.tree == nil {
		return nil, domain.ErrDocumentNotFound
	}
	return g.tree.Clone(), nil
}

func (g *memoryGateway) SaveCategories(_ context.Context, tree domain.CategoryTree) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saves++
	if g.saveErr != nil {
		return g.saveErr
	}
	g.tree = tree.Clone()
	g.savedTree = tree.Clone()
	return nil
}

func (g *memoryGateway) saveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saves
}

var errUnavailable = errors.New("store unavailable")

const testPassword = "letmein"

func newTestMachine(tree domain.CategoryTree, seed int64) (*app.Machine, *manualClock) {
	clock := newManualClock()
	editor := app.NewEditor(app.NewLibrary(&memoryGateway{}, zerolog.Nop()), tree)
	machine := app.NewMachineWithClock(editor, app.MachineConfig{
		AdminPassword: testPassword,
		AnswerDelay:   2 * time.Second,
		TimeoutDelay:  3 * time.Second,
	}, zerolog.Nop(), clock, rand.New(rand.NewSource(seed)))
	return machine, clock
}

func physicsTree() domain.CategoryTree {
	return domain.CategoryTree{
		"Science": {
			"Physics": {
				{
					Text:         "What is the speed of light in vacuum?",
					Options:      []string{"300,000 km/s", "150,000 km/s", "450,000 km/s", "200,000 km/s"},
					CorrectIndex: 0,
					TimeLimit:    35,
				},
				{
					Text:         "What is the capital of France?",
					Options:      []string{"London", "Berlin", "Paris", "Madrid"},
					CorrectIndex: 2,
					TimeLimit:    20,
				},
			},
			"Empty": {},
		},
	}
}

func indexOf(options []string, text string) int {
	for i, o := range options {
		if o == text {
			return i
		}
	}
	return -1
}
