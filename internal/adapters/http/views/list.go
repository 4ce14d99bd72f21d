package views

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"log/slog"
	"sync"

	"taskboard/internal/adapters/http/dnd"
	"taskboard/internal/application/board"
	"taskboard/internal/application/orchestrators"
	"taskboard/internal/domain/project"
)

// DropClass is the affordance class a list shows while a card hovers over it.
const DropClass = "droppable"

// Board is the state container a list view watches and mutates.
type Board interface {
	Subscribe(fn board.Listener) (unsubscribe func())
	Projects(ctx context.Context) ([]project.Project, error)
	Move(ctx context.Context, id string, status project.Status) (bool, error)
}

// ListView shows the projects of one status and acts as a drop target.
type ListView struct {
	status project.Status
	board  Board

	mu          sync.RWMutex
	items       template.HTML
	count       int
	unsubscribe func()
}

// NewListView creates a list for status. Call Configure before use.
func NewListView(b Board, status project.Status) *ListView {
	return &ListView{status: status, board: b}
}

// Status returns the status this list shows.
func (v *ListView) Status() project.Status { return v.status }

// Configure subscribes the view to the board. Calling it again is a no-op.
// PRE: none
// POST: every board notification rebuilds the view
func (v *ListView) Configure() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unsubscribe != nil {
		return
	}
	v.unsubscribe = v.board.Subscribe(v.rebuild)
}

// Sync rebuilds the view from the board's current list, for views created after projects exist.
func (v *ListView) Sync(ctx context.Context) error {
	all, err := v.board.Projects(ctx)
	if err != nil {
		return err
	}
	v.rebuild(all)
	return nil
}

// Close stops listening to the board.
func (v *ListView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}

// rebuild clears and re-renders every item from the snapshot.
func (v *ListView) rebuild(snapshot []project.Project) {
	assigned := project.FilterByStatus(snapshot, v.status)

	var buf bytes.Buffer
	for _, p := range assigned {
		if err := NewCardView(p).Render(&buf); err != nil {
			slog.Error("view_render_failed", "status", v.status, "project_id", p.ID, "error", err)
			return
		}
	}

	v.mu.Lock()
	v.items = template.HTML(buf.String())
	v.count = len(assigned)
	v.mu.Unlock()
}

// HTML returns the rendered items from the latest rebuild.
func (v *ListView) HTML() template.HTML {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.items
}

// Count returns the number of items currently shown.
func (v *ListView) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.count
}

// Render writes the whole list section with its heading.
func (v *ListView) Render(w io.Writer) error {
	v.mu.RLock()
	data := struct {
		Status  project.Status
		Heading string
		Items   template.HTML
		Count   int
	}{v.status, v.status.Heading(), v.items, v.count}
	v.mu.RUnlock()
	return templates.ExecuteTemplate(w, "list.html", data)
}

// DragOver reports whether the list accepts p: its first type must be the project id type.
// Accepting lists show DropClass.
func (v *ListView) DragOver(p *dnd.Payload) bool {
	return p.PrimaryType() == dnd.TypeProjectID
}

// Drop moves the dragged project into this list.
// PRE: none
// POST: Returns dnd.ErrUnsupportedPayload for an unrecognized payload; an unknown id is ignored
func (v *ListView) Drop(ctx context.Context, p *dnd.Payload) error {
	id, err := p.ProjectID()
	if err != nil {
		return err
	}
	_, err = orchestrators.ExecuteMoveProject(ctx, orchestrators.MoveProjectInput{
		ProjectID: id,
		Status:    string(v.status),
	}, orchestrators.MoveProjectDeps{Board: v.board})
	return err
}

// DragLeave returns the affordance class to remove.
func (v *ListView) DragLeave() string {
	return DropClass
}
