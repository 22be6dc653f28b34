// ABOUTME: TemplateEngine loads embedded HTML templates and renders pages and partials with html/template.
// ABOUTME: Each page is parsed with the shared layout and partials so pages and fragments share markup.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"
)

//go:embed templates/*.html templates/partials/*.html
var templateFS embed.FS

// Page template names.
const (
	pageHelloWorld      = "hello_world.html"
	pageSecondComponent = "second_component.html"
	pageEditor          = "heavy_markdown_editor.html"
	pageNotFound        = "not_found.html"
)

// TemplateEngine holds one template set per page plus a partials-only set.
type TemplateEngine struct {
	pages    map[string]*template.Template
	partials *template.Template
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"json":      jsonEncode,
		"kilobytes": kilobytes,
		"timestamp": func(t time.Time) string { return t.Format("Jan 2, 2006 15:04 MST") },
	}
}

// NewTemplateEngine parses all embedded templates.
func NewTemplateEngine() (*TemplateEngine, error) {
	funcs := templateFuncs()

	partials, err := template.New("partials").Funcs(funcs).ParseFS(templateFS, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing partials: %w", err)
	}

	engine := &TemplateEngine{
		pages:    make(map[string]*template.Template),
		partials: partials,
	}

	for _, page := range []string{pageHelloWorld, pageSecondComponent, pageEditor, pageNotFound} {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(
			templateFS,
			"templates/layout.html",
			"templates/"+page,
			"templates/partials/*.html",
		)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		engine.pages[page] = t
	}

	return engine, nil
}

// Render executes a page inside the layout, buffering so a template error can still become a 500.
func (e *TemplateEngine) Render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := e.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("executing %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// RenderPartial writes a named partial with no layout.
func (e *TemplateEngine) RenderPartial(w http.ResponseWriter, name string, data any) error {
	var buf bytes.Buffer
	if err := e.RenderPartialTo(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

// RenderPartialTo writes a named partial to an arbitrary writer (websocket frames, tests).
func (e *TemplateEngine) RenderPartialTo(w io.Writer, name string, data any) error {
	if e.partials.Lookup(name) == nil {
		return fmt.Errorf("partial %q not found", name)
	}
	if err := e.partials.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("executing partial %s: %w", name, err)
	}
	return nil
}

// jsonEncode marshals a value for a script context. json.Marshal escapes <, > and &,
// so the result cannot close the surrounding script element.
func jsonEncode(v any) (template.JS, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(data), nil
}

// kilobytes formats a byte count like "1.4 KB".
func kilobytes(n int) string {
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}
