package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"

	"taskboard/internal/adapters/http/dnd"
	"taskboard/internal/adapters/http/views"
	"taskboard/internal/application/orchestrators"
	"taskboard/internal/application/projections"
	"taskboard/internal/domain/project"
)

// maxBodyBytes caps request bodies; forms and drag payloads are tiny.
const maxBodyBytes = 64 << 10

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// renderPage writes the full board with form as the input form state.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, form *views.InputForm) {
	summary, err := projections.QueryBoardSummary(r.Context(), projections.GetBoardSummaryDeps{Board: s.board})
	if err != nil {
		internalError(w, err)
		return
	}
	form.CSRFField = csrf.TemplateField(r)

	page := &views.Page{
		Form:     form,
		Active:   s.lists[project.StatusActive],
		Finished: s.lists[project.StatusFinished],
		Summary:  summary,
	}
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// handleIndex handles GET /
// PRE: none
// POST: Full board page with an empty form
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, &views.InputForm{})
}

// createProjectRequest is the JSON body for POST /projects.
// People may arrive as a number or as the raw input string.
type createProjectRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	People      json.RawMessage `json:"people"`
}

// peopleText turns the people field back into the text a form would have sent.
func peopleText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// handleProjectCreate handles POST /projects
// PRE: form-encoded body with CSRF token, or a JSON body
// POST: Valid input adds an active project (303 to / or 201 JSON);
// invalid input reports "invalid user input" and keeps the entered values (422 page or 400 JSON)
func (s *Server) handleProjectCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if isJSONRequest(r) {
		var req createProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": orchestrators.ErrInvalidInput.Error()})
			return
		}
		form := &views.InputForm{Title: req.Title, Description: req.Description, People: peopleText(req.People)}
		p, err := form.Submit(r.Context(), s.board)
		if errors.Is(err, orchestrators.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	form := &views.InputForm{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		People:      r.PostFormValue("people"),
	}
	_, err := form.Submit(r.Context(), s.board)
	if errors.Is(err, orchestrators.ErrInvalidInput) {
		s.renderPage(w, r, http.StatusUnprocessableEntity, form)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// listFor resolves the {status} path value. It writes 404 and returns nil for an unknown list.
func (s *Server) listFor(w http.ResponseWriter, r *http.Request) *views.ListView {
	status, err := project.ParseStatus(r.PathValue("status"))
	if err != nil {
		http.NotFound(w, r)
		return nil
	}
	return s.lists[status]
}

// handleList handles GET /lists/{status}
// PRE: status is active or finished
// POST: The list section as HTML, or its projects as JSON when Accept asks for it
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list := s.listFor(w, r)
	if list == nil {
		return
	}

	if wantsJSON(r) {
		result, err := projections.QueryProjectList(r.Context(),
			projections.GetProjectListQuery{Status: list.Status()},
			projections.GetProjectListDeps{Board: s.board})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	var buf bytes.Buffer
	if err := list.Render(&buf); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// handleDrop handles POST /lists/{status}/drop
// PRE: JSON drag payload as produced by the card's dragstart
// POST: 204 when accepted (an unknown id changes nothing); 415 for an unrecognized payload
func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	list := s.listFor(w, r)
	if list == nil {
		return
	}

	payload, err := dnd.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil && !list.DragOver(payload) {
		err = dnd.ErrUnsupportedPayload
	}
	if err == nil {
		err = list.Drop(r.Context(), payload)
	}
	if errors.Is(err, dnd.ErrUnsupportedPayload) {
		slog.Debug("drop_rejected", "list", list.Status(), "error", err.Error())
		http.Error(w, "unsupported drag payload", http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealthz handles GET /healthz
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	summary, err := projections.QueryBoardSummary(r.Context(), projections.GetBoardSummaryDeps{Board: s.board})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"projects":    summary.Total,
		"subscribers": s.board.Subscribers(),
	})
}

// handlePerf handles GET /debug/perf
// Optional query params: since (Go duration, default 5m) and top (default 10).
func (s *Server) handlePerf(w http.ResponseWriter, r *http.Request) {
	window := 5 * time.Minute
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		window = d
	}
	top := 10
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid top", http.StatusBadRequest)
			return
		}
		top = n
	}
	if s.collector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.collector.Snapshot(s.now().Add(-window), top))
}

