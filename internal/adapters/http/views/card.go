package views

import (
	"io"

	"taskboard/internal/adapters/http/dnd"
	"taskboard/internal/domain/project"
)

// CardView renders one project and acts as a drag source.
type CardView struct {
	Project project.Project
}

// NewCardView creates a card for p.
func NewCardView(p project.Project) *CardView {
	return &CardView{Project: p}
}

// Configure implements Component. Cards carry no subscriptions.
func (c *CardView) Configure() {}

// Render writes the card as a draggable list item.
func (c *CardView) Render(w io.Writer) error {
	return templates.ExecuteTemplate(w, "card.html", c.Project)
}

// DragStart puts the project id on the payload under text/plain.
// PRE: p is non-nil
// POST: p carries the id and allows a move
func (c *CardView) DragStart(p *dnd.Payload) {
	p.SetData(dnd.TypeProjectID, c.Project.ID)
	p.EffectAllowed = dnd.EffectMove
}
