package projections

import (
	"context"

	"taskboard/internal/domain/project"
)

// ProjectLister reads the board's current project list.
type ProjectLister interface {
	Projects(ctx context.Context) ([]project.Project, error)
}
