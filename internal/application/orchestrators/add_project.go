package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"taskboard/internal/domain/project"
	"taskboard/internal/domain/validation"
)

// ErrInvalidInput is the single generic failure reported for a rejected form submission.
var ErrInvalidInput = errors.New("invalid user input")

// Form constraints for a new project. Each bound is exclusive.
const (
	DescriptionMinLength = 5
	PeopleMin            = 1
	PeopleMax            = 5
)

// ProjectAdder is the board operation needed to create projects.
type ProjectAdder interface {
	Add(ctx context.Context, title, description string, people int) (project.Project, error)
}

// AddProjectInput carries the raw form fields.
type AddProjectInput struct {
	Title       string
	Description string
	People      string
}

// AddProjectDeps holds dependencies for AddProject.
type AddProjectDeps struct {
	Board ProjectAdder
}

// ExecuteAddProject validates the form fields and adds an active project to the board.
// PRE: none
// POST: On success the board holds one more active project; on ErrInvalidInput the board is unchanged
func ExecuteAddProject(ctx context.Context, input AddProjectInput, deps AddProjectDeps) (project.Project, error) {
	people, ok := parsePeople(input.People)
	if !ok {
		return project.Project{}, ErrInvalidInput
	}

	valid := validation.All(
		validation.Rule{Value: input.Title, Required: true},
		validation.Rule{Value: input.Description, Required: true, MinLength: validation.Int(DescriptionMinLength)},
		validation.Rule{Value: people, Required: true, Min: validation.Int(PeopleMin), Max: validation.Int(PeopleMax)},
	)
	if !valid {
		slog.Debug("project_event", "event", "project_rejected")
		return project.Project{}, ErrInvalidInput
	}

	p, err := deps.Board.Add(ctx, input.Title, input.Description, people)
	if err != nil {
		return project.Project{}, err
	}

	slog.Info("project_event", "event", "project_added", "project_id", p.ID, "people", p.People)
	return p, nil
}

// parsePeople reads the people field. A blank or non-integer value fails the required check.
func parsePeople(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
