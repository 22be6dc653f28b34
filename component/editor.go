// ABOUTME: Heavy markdown editor component: a document plus a deferred-loaded formatting renderer.
// ABOUTME: Renders a skeleton while pending, live formatted HTML when loaded, raw text on fallback.
package component

import (
	"context"
	"html/template"
	"sync"

	"github.com/2389-research/splitview/content"
	"github.com/2389-research/splitview/loader"
	"github.com/2389-research/splitview/markdown"
	"go.uber.org/zap"
)

// Renderer turns document text into formatted HTML.
type Renderer interface {
	Render(src string) (template.HTML, error)
}

// MarkdownFetch adapts a markdown.Fetcher to the loader's fetch signature.
func MarkdownFetch(f markdown.Fetcher) loader.FetchFunc[Renderer] {
	return func(ctx context.Context) (Renderer, error) {
		engine, err := f.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		return engine, nil
	}
}

// Editor is one mounted markdown editor.
type Editor struct {
	lifecycle

	logger *zap.Logger
	loader *loader.Loader[Renderer]

	mu  sync.RWMutex
	doc content.Document
}

// PreviewView is the render model for the preview panel.
// Exactly one of Skeleton, HTML or Raw is meaningful, chosen by State.
type PreviewView struct {
	ID       string
	State    loader.State
	Skeleton []SkeletonLine
	HTML     template.HTML
	Raw      string
	// Degraded is set when a loaded renderer failed on this particular text.
	Degraded bool
}

// Pending reports whether the preview shows the skeleton placeholder.
func (v PreviewView) Pending() bool {
	return v.State == loader.StatePending
}

// ShowRaw reports whether the preview shows the plain preformatted block.
func (v PreviewView) ShowRaw() bool {
	return v.State == loader.StateFallback || v.Degraded
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithEditorLogger sets the logger for the editor and its loader.
func WithEditorLogger(logger *zap.Logger) EditorOption {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEditor builds an unmounted editor. An empty InitialText starts from SampleText.
func NewEditor(props content.EditorProps, fetch loader.FetchFunc[Renderer], opts ...EditorOption) *Editor {
	e := &Editor{
		logger: zap.NewNop(),
		doc:    props.Document(),
	}
	e.init(KindMarkdownEditor)
	for _, opt := range opts {
		opt(e)
	}
	if e.doc.Text == "" {
		e.doc.Text = SampleText
	}
	e.logger = e.logger.With(zap.String("instance", e.id))
	e.loader = loader.New(fetch,
		loader.WithLogger(e.logger),
		loader.WithName("markdown"),
	)
	return e
}

// Mount starts fetching the renderer without blocking.
func (e *Editor) Mount(ctx context.Context) bool {
	return e.loader.Mount(ctx)
}

// Unmount cancels any outstanding fetch; a late result is ignored.
func (e *Editor) Unmount() {
	e.loader.Unmount()
}

// Unmounted reports whether Unmount has been called.
func (e *Editor) Unmounted() bool {
	return e.loader.Unmounted()
}

// OnSettle runs fn once the renderer fetch resolves, unless the editor is unmounted first.
func (e *Editor) OnSettle(fn func(loader.State)) {
	e.loader.OnSettle(fn)
}

// Done is closed once the renderer fetch resolves or the editor is unmounted.
func (e *Editor) Done() <-chan struct{} {
	return e.loader.Done()
}

// State returns the renderer load state.
func (e *Editor) State() loader.State {
	return e.loader.State()
}

// Fetches returns how many renderer fetches this instance has started.
func (e *Editor) Fetches() int {
	return e.loader.Fetches()
}

// SetText replaces the document text. It works in every load state.
func (e *Editor) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc.Text = text
}

// Text returns the current document text.
func (e *Editor) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Text
}

// Document returns a copy of the current document.
func (e *Editor) Document() content.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc
}

// Preview renders the preview panel for the current text and load state.
func (e *Editor) Preview() PreviewView {
	state, renderer, _ := e.loader.Snapshot()
	text := e.Text()
	view := PreviewView{ID: e.id, State: state}

	switch state {
	case loader.StatePending:
		view.Skeleton = Skeleton(text)
	case loader.StateLoaded:
		html, err := renderer.Render(text)
		if err != nil {
			e.logger.Debug("render failed, showing raw text",
				zap.String("component", "editor"),
				zap.Error(err),
			)
			view.Raw = text
			view.Degraded = true
			break
		}
		view.HTML = html
	default:
		view.Raw = text
	}
	return view
}
