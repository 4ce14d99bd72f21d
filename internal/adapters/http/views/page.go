package views

import (
	"html/template"
	"io"

	"taskboard/internal/application/projections"
)

// Page is the full board document: the input form above both lists.
type Page struct {
	Form     *InputForm
	Active   *ListView
	Finished *ListView
	Summary  projections.BoardSummary
}

// Configure implements Component. Lists are configured by their owner.
func (p *Page) Configure() {}

// Render writes the whole document.
func (p *Page) Render(w io.Writer) error {
	form, err := renderHTML(p.Form)
	if err != nil {
		return err
	}
	active, err := renderHTML(p.Active)
	if err != nil {
		return err
	}
	finished, err := renderHTML(p.Finished)
	if err != nil {
		return err
	}
	return templates.ExecuteTemplate(w, "page.html", struct {
		Form, Active, Finished template.HTML
		Summary                projections.BoardSummary
	}{form, active, finished, p.Summary})
}
