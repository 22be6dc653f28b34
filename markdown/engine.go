// ABOUTME: Markdown formatting engine built on goldmark with pluggable extension modules.
// ABOUTME: Renders GitHub-flavored markdown to sanitized HTML for the editor's live preview.
package markdown

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Engine converts markdown source to sanitized HTML.
// An Engine is safe for concurrent use.
type Engine struct {
	md      goldmark.Markdown
	policy  *bluemonday.Policy
	modules []string
	cache   *Cache
}

// newEngine assembles an engine from already-resolved modules.
func newEngine(mods []Module, cacheTTL time.Duration, cacheEntries int) *Engine {
	exts := make([]goldmark.Extender, 0, len(mods))
	names := make([]string, 0, len(mods))
	for _, m := range mods {
		exts = append(exts, m.Extender)
		names = append(names, m.Name)
	}

	e := &Engine{
		md:      goldmark.New(goldmark.WithExtensions(exts...)),
		policy:  previewPolicy(),
		modules: names,
	}
	e.cache = NewCache(e.convert, cacheTTL, WithMaxEntries(cacheEntries))
	return e
}

// previewPolicy allows user-generated content plus the disabled checkboxes goldmark emits for task lists.
func previewPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("input")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")
	return p
}

// Modules returns the names of the extension modules compiled into this engine.
func (e *Engine) Modules() []string {
	out := make([]string, len(e.modules))
	copy(out, e.modules)
	return out
}

// Render converts markdown source to HTML, serving repeated inputs from the cache.
func (e *Engine) Render(src string) (template.HTML, error) {
	out, err := e.cache.Render(src)
	if err != nil {
		return "", err
	}
	return template.HTML(out), nil
}

// convert is the uncached conversion path.
func (e *Engine) convert(src string) (string, error) {
	var buf bytes.Buffer
	if err := e.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return e.policy.Sanitize(buf.String()), nil
}
