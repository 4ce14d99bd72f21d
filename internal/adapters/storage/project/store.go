package project

import (
	"context"
	"errors"

	domain "taskboard/internal/domain/project"
)

// ErrNotFound is returned when no project has the requested ID.
var ErrNotFound = errors.New("project not found")

// Store holds the ordered project records behind the board.
// Implementations keep insertion order and never persist beyond the process.
type Store interface {
	Append(ctx context.Context, p domain.Project) error
	List(ctx context.Context) ([]domain.Project, error)
	GetByID(ctx context.Context, id string) (domain.Project, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
}
