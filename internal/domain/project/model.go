package project

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle column a project sits in.
type Status string

// Project statuses
const (
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// ValidStatuses contains all valid project statuses, in board column order.
var ValidStatuses = []Status{StatusActive, StatusFinished}

// Domain errors
var (
	ErrInvalidStatus = errors.New("project status must be one of: active, finished")
	ErrEmptyID       = errors.New("project ID cannot be empty")
)

// ParseStatus converts a raw value (form field, URL segment) into a Status.
// PRE: none
// POST: Returns a valid Status or ErrInvalidStatus
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Heading returns the list title shown above the column.
func (s Status) Heading() string {
	switch s {
	case StatusActive:
		return "ACTIVE PROJECTS"
	case StatusFinished:
		return "FINISHED PROJECTS"
	}
	return ""
}

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// Project is a card on the board.
// Identity is the ID; the remaining fields change only through board operations.
type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	People      int       `json:"people"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// PeopleLabel renders the head count the way the card shows it.
// INVARIANT: Project fields are not mutated
func (p Project) PeopleLabel() string {
	if p.People == 1 {
		return "1 person"
	}
	return fmt.Sprintf("%d persons", p.People)
}

// Validate checks the record invariants a store relies on.
// PRE: none
// POST: Returns ErrEmptyID or ErrInvalidStatus on the first violation, nil otherwise
func (p Project) Validate() error {
	if p.ID == "" {
		return ErrEmptyID
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, p.Status)
	}
	return nil
}

// FilterByStatus returns the projects whose status equals s, preserving order.
// The input slice is not modified.
func FilterByStatus(projects []Project, s Status) []Project {
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		if p.Status == s {
			out = append(out, p)
		}
	}
	return out
}
