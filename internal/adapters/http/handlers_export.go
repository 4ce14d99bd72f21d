package web

import (
	"bytes"
	"errors"
	"net/http"

	"taskboard/internal/adapters/export"
)

// handleExport handles GET /export?format=json|csv|pdf
// PRE: format is empty (json), json, csv or pdf
// POST: The current project list as a download; 400 for an unknown format
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if errors.Is(err, export.ErrUnknownFormat) {
		http.Error(w, "unknown export format", http.StatusBadRequest)
		return
	}

	// Buffer so a late failure still produces a clean 500.
	var buf bytes.Buffer
	if err := s.exporter.Export(r.Context(), format, &buf); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename(s.now())+`"`)
	buf.WriteTo(w)
}
