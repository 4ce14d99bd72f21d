package views

import (
	"context"
	"errors"
	"html/template"
	"io"

	"taskboard/internal/application/orchestrators"
	"taskboard/internal/domain/project"
)

// InputForm collects a new project. Entered values survive an invalid submission.
type InputForm struct {
	Title       string
	Description string
	People      string
	Invalid     bool
	// CSRFField is the hidden token input, rendered verbatim.
	CSRFField template.HTML
}

// Configure implements Component.
func (f *InputForm) Configure() {}

// Render writes the form.
func (f *InputForm) Render(w io.Writer) error {
	return templates.ExecuteTemplate(w, "form.html", f)
}

// Submit validates the entered values and adds the project.
// PRE: none
// POST: On success the inputs are cleared; on orchestrators.ErrInvalidInput they are kept and Invalid is set
func (f *InputForm) Submit(ctx context.Context, adder orchestrators.ProjectAdder) (project.Project, error) {
	p, err := orchestrators.ExecuteAddProject(ctx, orchestrators.AddProjectInput{
		Title:       f.Title,
		Description: f.Description,
		People:      f.People,
	}, orchestrators.AddProjectDeps{Board: adder})
	if errors.Is(err, orchestrators.ErrInvalidInput) {
		f.Invalid = true
		return project.Project{}, err
	}
	if err != nil {
		return project.Project{}, err
	}
	f.Clear()
	return p, nil
}

// Clear empties the inputs.
func (f *InputForm) Clear() {
	f.Title, f.Description, f.People = "", "", ""
	f.Invalid = false
}
