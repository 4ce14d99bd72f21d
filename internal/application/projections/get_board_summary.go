package projections

import (
	"context"

	"taskboard/internal/domain/project"
)

// BoardSummary counts projects per column.
type BoardSummary struct {
	Total    int                    `json:"total"`
	ByStatus map[project.Status]int `json:"by_status"`
	People   int                    `json:"people"`
}

// GetBoardSummaryDeps holds dependencies for GetBoardSummary.
type GetBoardSummaryDeps struct {
	Board ProjectLister
}

// QueryBoardSummary counts projects and assigned people.
// POST: ByStatus has an entry for every valid status, zero if empty
func QueryBoardSummary(ctx context.Context, deps GetBoardSummaryDeps) (BoardSummary, error) {
	all, err := deps.Board.Projects(ctx)
	if err != nil {
		return BoardSummary{}, err
	}
	return Summarize(all), nil
}

// Summarize counts an already-fetched list.
func Summarize(all []project.Project) BoardSummary {
	sum := BoardSummary{Total: len(all), ByStatus: make(map[project.Status]int, len(project.ValidStatuses))}
	for _, s := range project.ValidStatuses {
		sum.ByStatus[s] = 0
	}
	for _, p := range all {
		sum.ByStatus[p.Status]++
		sum.People += p.People
	}
	return sum
}
