package projections

import (
	"context"

	"taskboard/internal/domain/project"
)

// GetProjectListQuery carries query parameters.
type GetProjectListQuery struct {
	Status project.Status
}

// GetProjectListResult carries the query result.
type GetProjectListResult struct {
	Status   project.Status    `json:"status"`
	Heading  string            `json:"heading"`
	Projects []project.Project `json:"projects"`
}

// GetProjectListDeps holds dependencies for GetProjectList.
type GetProjectListDeps struct {
	Board ProjectLister
}

// QueryProjectList returns the projects in one column.
// PRE: query.Status is valid
// POST: Returns projects with matching status, in insertion order
func QueryProjectList(ctx context.Context, query GetProjectListQuery, deps GetProjectListDeps) (GetProjectListResult, error) {
	if !query.Status.Valid() {
		return GetProjectListResult{}, project.ErrInvalidStatus
	}
	all, err := deps.Board.Projects(ctx)
	if err != nil {
		return GetProjectListResult{}, err
	}
	return GetProjectListResult{
		Status:   query.Status,
		Heading:  query.Status.Heading(),
		Projects: project.FilterByStatus(all, query.Status),
	}, nil
}
