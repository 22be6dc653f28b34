// ABOUTME: HTTP handlers for the demo pages and the per-instance component endpoints.
// ABOUTME: Pages mount a component and register it; endpoints look instances up by ID.
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2389-research/splitview/component"
	"github.com/2389-research/splitview/content"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxNameBytes = 8 << 10
	maxTextBytes = 10 << 20
)

// PageData is the template data for every full page.
type PageData struct {
	Title           string
	Active          string
	Stylesheet      *Bundle
	Scripts         []*Bundle
	DeferredModules []string
	Props           any
	Greeting        component.GreetingView
	Editor          *component.Editor
}

func (s *Server) page(title, active string, scripts ...string) PageData {
	data := PageData{
		Title:      title,
		Active:     active,
		Stylesheet: s.bundles.MustGet(bundleStyles),
	}
	for _, name := range scripts {
		data.Scripts = append(data.Scripts, s.bundles.MustGet(name))
	}
	return data
}

func (s *Server) handleGreetingPage(kind component.Kind) http.HandlerFunc {
	name, title, tmpl := "hello_world", "Hello World", pageHelloWorld
	if kind == component.KindSecondComponent {
		name, title, tmpl = "second_component", "Second Component", pageSecondComponent
	}

	return func(w http.ResponseWriter, r *http.Request) {
		props := content.GreetingProps{Name: r.URL.Query().Get("name")}
		if err := s.validateProps(props); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		g := component.NewGreeting(kind, props)
		s.registry.Add(g)

		data := s.page(title, name, bundleGreeting)
		data.Props = props
		data.Greeting = g.View()
		s.render(w, r, http.StatusOK, tmpl, data)
	}
}

func (s *Server) handleEditorPage(w http.ResponseWriter, r *http.Request) {
	props := s.provider.Load(r.Context())
	if err := s.validateProps(props); err != nil {
		s.logger.Error("editor props invalid", zap.String("action", "mount"), zap.Error(err))
		http.Error(w, "editor content unavailable", http.StatusInternalServerError)
		return
	}

	ed := component.NewEditor(props, s.fetch, component.WithEditorLogger(s.logger))
	s.registry.Add(ed)
	ed.Mount(r.Context())

	data := s.page("Heavy Markdown Editor", "heavy_markdown_editor", bundleEditor)
	data.DeferredModules = s.modules
	data.Props = props
	data.Editor = ed
	s.render(w, r, http.StatusOK, pageEditor, data)
}

func (s *Server) handleUpdateName(w http.ResponseWriter, r *http.Request) {
	g, ok := s.registry.Greeting(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxNameBytes)
	if err := r.ParseForm(); err != nil {
		s.formError(w, err)
		return
	}
	props := content.GreetingProps{Name: r.PostForm.Get("name")}
	if err := s.validateProps(props); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	g.SetName(props.Name)
	s.renderPartial(w, "greeting", g.View())
}

func (s *Server) handleUpdateText(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.registry.Editor(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxTextBytes)
	if err := r.ParseForm(); err != nil {
		s.formError(w, err)
		return
	}
	if _, present := r.PostForm["text"]; !present {
		http.Error(w, "missing text field", http.StatusBadRequest)
		return
	}

	ed.SetText(r.PostForm.Get("text"))
	s.renderPartial(w, "preview", ed.Preview())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.registry.Editor(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.renderPartial(w, "preview", ed.Preview())
}

func (s *Server) handleUnmount(w http.ResponseWriter, r *http.Request) {
	if !s.registry.Unmount(chi.URLParam(r, "id")) {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"instances": s.registry.Len(),
	})
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	b, ok := s.bundles.Get(chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	b.ServeHTTP(w, r)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, pageNotFound, s.page("Not found", ""))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data PageData) {
	if err := s.templates.Render(w, status, name, data); err != nil {
		s.logger.Error("template render failed",
			zap.String("template", name),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) renderPartial(w http.ResponseWriter, name string, data any) {
	if err := s.templates.RenderPartial(w, name, data); err != nil {
		s.logger.Error("partial render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) formError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, "invalid form", http.StatusBadRequest)
}
