// Package board holds the board's project list and tells subscribers about every change.
//
// A Board is built once at startup and handed to the views and handlers that need it.
// Each mutation is followed, before the next mutation may start, by a synchronous
// delivery of the full project list to every subscriber, so no subscriber ever
// observes an intermediate or out-of-order state.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	projectStore "taskboard/internal/adapters/storage/project"
	"taskboard/internal/domain/project"
)

// RecordStore is the ordered record storage the board mutates.
type RecordStore interface {
	Append(ctx context.Context, p project.Project) error
	List(ctx context.Context) ([]project.Project, error)
	GetByID(ctx context.Context, id string) (project.Project, error)
	UpdateStatus(ctx context.Context, id string, status project.Status) error
}

// Listener receives a copy of the full project list after each mutation.
// Listeners run synchronously on the mutating goroutine and must not call Add, Move or Projects.
type Listener func(projects []project.Project)

// NotifyObserver is told how long a fan-out took and how many listeners it reached.
type NotifyObserver func(op string, d time.Duration, listeners int)

type subscription struct {
	id uint64
	fn Listener
}

// Board is the single source of truth for the project list.
type Board struct {
	store      RecordStore
	generateID func() string
	now        func() time.Time
	observe    NotifyObserver

	// mu serializes mutation + notification.
	mu sync.Mutex

	subsMu sync.Mutex
	subs   []subscription
	nextID uint64
}

// Option configures a Board.
type Option func(*Board)

// WithIDGenerator overrides the UUID generator, for deterministic tests.
func WithIDGenerator(fn func() string) Option {
	return func(b *Board) { b.generateID = fn }
}

// WithClock overrides time.Now.
func WithClock(fn func() time.Time) Option {
	return func(b *Board) { b.now = fn }
}

// WithNotifyObserver registers a hook that times each notification fan-out.
func WithNotifyObserver(fn NotifyObserver) Option {
	return func(b *Board) { b.observe = fn }
}

// New creates a Board over store.
// PRE: store is non-nil and empty or already consistent
// POST: Returns a Board with no subscribers
func New(store RecordStore, opts ...Option) *Board {
	b := &Board{
		store:      store,
		generateID: func() string { return uuid.New().String() },
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add creates an active project at the end of the list and notifies subscribers.
// No validation happens here; callers validate user input first.
// PRE: none
// POST: list grows by exactly one active project; subscribers received the new list
func (b *Board) Add(ctx context.Context, title, description string, people int) (project.Project, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := project.Project{
		ID:          b.generateID(),
		Title:       title,
		Description: description,
		People:      people,
		Status:      project.StatusActive,
		CreatedAt:   b.now(),
	}
	if err := b.store.Append(ctx, p); err != nil {
		return project.Project{}, fmt.Errorf("append project: %w", err)
	}
	if err := b.notify(ctx, "board.add"); err != nil {
		return project.Project{}, err
	}
	return p, nil
}

// Move sets the status of project id. It reports whether anything changed.
// An unknown id or an unchanged status is a silent no-op: no error and no notification.
// PRE: status is a valid project status
// POST: if moved, subscribers received the new list
func (b *Board) Move(ctx context.Context, id string, status project.Status) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: %q", project.ErrInvalidStatus, status)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p, err := b.store.GetByID(ctx, id)
	if errors.Is(err, projectStore.ErrNotFound) {
		slog.Debug("project_move_ignored", "project_id", id, "reason", "unknown_id")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get project: %w", err)
	}
	if p.Status == status {
		return false, nil
	}
	if err := b.store.UpdateStatus(ctx, id, status); err != nil {
		return false, fmt.Errorf("update project status: %w", err)
	}
	if err := b.notify(ctx, "board.move"); err != nil {
		return false, err
	}
	return true, nil
}

// Projects returns the current list in insertion order.
// It waits for any in-flight mutation and its notification, so callers never see a
// state that subscribers have not yet received. Listeners must not call it.
func (b *Board) Projects(ctx context.Context) ([]project.Project, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, err := b.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return list, nil
}

// Subscribe registers fn for every future mutation. Past state is not replayed.
// The returned function removes the subscription; calling it twice is harmless.
func (b *Board) Subscribe(fn Listener) (unsubscribe func()) {
	b.subsMu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.subsMu.Unlock()

	return func() {
		b.subsMu.Lock()
		defer b.subsMu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Subscribers returns the number of registered listeners.
func (b *Board) Subscribers() int {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	return len(b.subs)
}

// notify delivers the full list to every subscriber. Caller holds b.mu.
func (b *Board) notify(ctx context.Context, op string) error {
	list, err := b.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list projects for notify: %w", err)
	}

	b.subsMu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.subsMu.Unlock()

	start := time.Now()
	for _, s := range subs {
		snapshot := make([]project.Project, len(list))
		copy(snapshot, list)
		s.fn(snapshot)
	}
	if b.observe != nil {
		b.observe(op, time.Since(start), len(subs))
	}
	slog.Debug("board_notify", "op", op, "projects", len(list), "listeners", len(subs))
	return nil
}
