package projections

import (
	"context"
	"errors"
	"testing"

	"taskboard/internal/domain/project"
)

type mockLister struct {
	projects []project.Project
	err      error
}

// Projects returns the seeded projects.
// PRE: none
// POST: Returns seeded projects or the seeded error
func (m *mockLister) Projects(_ context.Context) ([]project.Project, error) {
	return m.projects, m.err
}

func seeded() *mockLister {
	return &mockLister{projects: []project.Project{
		{ID: "a", Status: project.StatusActive, People: 1},
		{ID: "b", Status: project.StatusFinished, People: 2},
		{ID: "c", Status: project.StatusActive, People: 3},
	}}
}

// TestQueryProjectList filters by status and keeps order.
func TestQueryProjectList(t *testing.T) {
	deps := GetProjectListDeps{Board: seeded()}

	res, err := QueryProjectList(context.Background(), GetProjectListQuery{Status: project.StatusActive}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Heading != "ACTIVE PROJECTS" {
		t.Errorf("Heading = %q", res.Heading)
	}
	if len(res.Projects) != 2 || res.Projects[0].ID != "a" || res.Projects[1].ID != "c" {
		t.Errorf("unexpected projects: %+v", res.Projects)
	}

	res, _ = QueryProjectList(context.Background(), GetProjectListQuery{Status: project.StatusFinished}, deps)
	if len(res.Projects) != 1 || res.Projects[0].ID != "b" {
		t.Errorf("unexpected finished projects: %+v", res.Projects)
	}
}

// TestQueryProjectList_Errors covers invalid status and board failure.
func TestQueryProjectList_Errors(t *testing.T) {
	_, err := QueryProjectList(context.Background(), GetProjectListQuery{Status: "archived"}, GetProjectListDeps{Board: seeded()})
	if !errors.Is(err, project.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}

	boom := errors.New("boom")
	_, err = QueryProjectList(context.Background(), GetProjectListQuery{Status: project.StatusActive}, GetProjectListDeps{Board: &mockLister{err: boom}})
	if !errors.Is(err, boom) {
		t.Errorf("expected board error, got %v", err)
	}
}

// TestQueryBoardSummary counts per status.
func TestQueryBoardSummary(t *testing.T) {
	sum, err := QueryBoardSummary(context.Background(), GetBoardSummaryDeps{Board: seeded()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Total != 3 || sum.ByStatus[project.StatusActive] != 2 || sum.ByStatus[project.StatusFinished] != 1 || sum.People != 6 {
		t.Errorf("unexpected summary: %+v", sum)
	}

	empty := Summarize(nil)
	if v, ok := empty.ByStatus[project.StatusFinished]; !ok || v != 0 {
		t.Error("expected zero entry for every status")
	}
}
