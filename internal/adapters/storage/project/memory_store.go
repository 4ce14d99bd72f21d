package project

import (
	"context"
	"fmt"
	"sync"

	domain "taskboard/internal/domain/project"
)

// MemoryStore implements Store with a slice.
type MemoryStore struct {
	mu       sync.RWMutex
	projects []domain.Project
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append adds p at the end of the list.
// PRE: p.ID is unique
// POST: p is the last record; an invalid record is rejected
func (s *MemoryStore) Append(_ context.Context, p domain.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.projects {
		if existing.ID == p.ID {
			return fmt.Errorf("duplicate project id %q", p.ID)
		}
	}
	s.projects = append(s.projects, p)
	return nil
}

// List returns a copy of all records in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Project, len(s.projects))
	copy(out, s.projects)
	return out, nil
}

// GetByID returns the record with the given id.
// POST: Returns ErrNotFound if absent
func (s *MemoryStore) GetByID(_ context.Context, id string) (domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Project{}, ErrNotFound
}

// UpdateStatus sets the status of the record with the given id in place.
// POST: Returns ErrNotFound if absent; order is unchanged
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			s.projects[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}
