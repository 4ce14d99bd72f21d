package orchestrators

import (
	"context"
	"log/slog"

	"taskboard/internal/domain/project"
)

// ProjectMover is the board operation needed to change a project's column.
type ProjectMover interface {
	Move(ctx context.Context, id string, status project.Status) (bool, error)
}

// MoveProjectInput carries a move request, typically from a drop.
type MoveProjectInput struct {
	ProjectID string
	Status    string
}

// MoveProjectDeps holds dependencies for MoveProject.
type MoveProjectDeps struct {
	Board ProjectMover
}

// ExecuteMoveProject moves a project to the requested status.
// An unknown project ID or an unchanged status is not an error.
// PRE: none
// POST: Returns project.ErrInvalidStatus for an unknown status; otherwise reports whether the project moved
func ExecuteMoveProject(ctx context.Context, input MoveProjectInput, deps MoveProjectDeps) (bool, error) {
	status, err := project.ParseStatus(input.Status)
	if err != nil {
		return false, err
	}

	moved, err := deps.Board.Move(ctx, input.ProjectID, status)
	if err != nil {
		return false, err
	}
	if moved {
		slog.Info("project_event", "event", "project_moved", "project_id", input.ProjectID, "status", status)
	}
	return moved, nil
}
