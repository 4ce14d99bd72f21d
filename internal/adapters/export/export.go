// Package export writes a snapshot of the board as JSON, CSV or PDF.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"taskboard/internal/application/projections"
	"taskboard/internal/domain/project"
)

// ErrUnknownFormat is returned for a format other than json, csv or pdf.
var ErrUnknownFormat = errors.New("unknown export format")

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// ParseFormat normalizes s. An empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/json"
}

// Filename returns a download name stamped with at.
func (f Format) Filename(at time.Time) string {
	return fmt.Sprintf("projects-%s.%s", at.UTC().Format("20060102-150405"), f)
}

var csvHeader = []string{"id", "title", "description", "people", "status", "created_at"}

// Exporter renders the board's current projects.
type Exporter struct {
	board projections.ProjectLister
	now   func() time.Time
}

// NewExporter creates an Exporter reading from board.
func NewExporter(board projections.ProjectLister) *Exporter {
	return &Exporter{board: board, now: time.Now}
}

// document is the JSON export shape.
type document struct {
	ExportedAt time.Time                `json:"exported_at"`
	Summary    projections.BoardSummary `json:"summary"`
	Projects   []project.Project        `json:"projects"`
}

// Export writes every project in insertion order to w.
// PRE: f came from ParseFormat
// POST: w holds a complete document, or an error is returned
func (e *Exporter) Export(ctx context.Context, f Format, w io.Writer) error {
	all, err := e.board.Projects(ctx)
	if err != nil {
		return err
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(document{ExportedAt: e.now().UTC(), Summary: projections.Summarize(all), Projects: all})
	case FormatCSV:
		return writeCSV(w, all)
	case FormatPDF:
		return writePDF(w, all, e.now())
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

func writeCSV(w io.Writer, all []project.Project) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range all {
		if err := cw.Write([]string{
			p.ID, p.Title, p.Description, strconv.Itoa(p.People), string(p.Status), p.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writePDF lays out one section per status with the same headings the board shows.
func writePDF(w io.Writer, all []project.Project, at time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Project board", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Project board")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, "Exported "+at.UTC().Format(time.RFC1123))
	pdf.Ln(10)

	for _, status := range project.ValidStatuses {
		group := project.FilterByStatus(all, status)
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 8, fmt.Sprintf("%s (%d)", status.Heading(), len(group)))
		pdf.Ln(9)
		for _, p := range group {
			pdf.SetFont("Arial", "B", 11)
			pdf.MultiCell(0, 6, tr(p.Title), "", "L", false)
			pdf.SetFont("Arial", "I", 9)
			pdf.MultiCell(0, 5, p.PeopleLabel(), "", "L", false)
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 5, tr(p.Description), "", "L", false)
			pdf.Ln(3)
		}
		pdf.Ln(4)
	}
	return pdf.Output(w)
}
