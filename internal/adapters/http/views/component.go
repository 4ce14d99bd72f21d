// Package views renders the board's HTML components.
//
// Components are composed rather than layered in a hierarchy: each one is configured once
// and then rendered as often as needed.
package views

import (
	"bytes"
	"embed"
	"html"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// Component is a renderable piece of the board page.
type Component interface {
	// Configure wires the component to its event sources. It is called once.
	Configure()
	// Render writes the component's current HTML.
	Render(w io.Writer) error
}

//go:embed templates/*.html
var templateFS embed.FS

// mdRenderer converts card descriptions. Input is HTML-escaped before conversion, so markup shows as text.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var templates = template.Must(template.New("views").Funcs(template.FuncMap{
	"renderMarkdown": renderMarkdown,
}).ParseFS(templateFS, "templates/*.html"))

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(html.EscapeString(md)), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// renderHTML renders c into a string safe for embedding in another template.
func renderHTML(c Component) (template.HTML, error) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
