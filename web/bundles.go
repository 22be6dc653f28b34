// ABOUTME: Builds the minified static bundles served to pages and reports their sizes.
// ABOUTME: Bundles are minified once at startup and served from memory with strong ETags.
package web

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

// Bundle names referenced by the page templates.
const (
	bundleStyles   = "app.css"
	bundleGreeting = "greeting.js"
	bundleEditor   = "editor.js"
)

const (
	mediaCSS = "text/css"
	mediaJS  = "application/javascript"
)

// Bundle is one minified asset.
type Bundle struct {
	Name        string
	ContentType string
	Body        []byte
	RawSize     int
	Size        int
	ETag        string
}

// BundleSet indexes bundles by name.
type BundleSet struct {
	bundles map[string]*Bundle
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mediaCSS, css.Minify)
	m.AddFunc(mediaJS, js.Minify)
	return m
}

// LoadBundles minifies every CSS and JS file under static/ in fsys.
func LoadBundles(fsys fs.FS) (*BundleSet, error) {
	m := newMinifier()
	set := &BundleSet{bundles: make(map[string]*Bundle)}

	sources := map[string]string{
		"static/css/" + bundleStyles:   mediaCSS,
		"static/js/" + bundleGreeting: mediaJS,
		"static/js/" + bundleEditor:   mediaJS,
	}
	for src, media := range sources {
		raw, err := fs.ReadFile(fsys, src)
		if err != nil {
			return nil, fmt.Errorf("reading bundle %s: %w", src, err)
		}
		body, err := m.Bytes(media, raw)
		if err != nil {
			return nil, fmt.Errorf("minifying bundle %s: %w", src, err)
		}
		sum := sha256.Sum256(body)
		name := path.Base(src)
		set.bundles[name] = &Bundle{
			Name:        name,
			ContentType: media + "; charset=utf-8",
			Body:        body,
			RawSize:     len(raw),
			Size:        len(body),
			ETag:        `"` + hex.EncodeToString(sum[:8]) + `"`,
		}
	}
	return set, nil
}

// Get returns the bundle with the given file name.
func (s *BundleSet) Get(name string) (*Bundle, bool) {
	b, ok := s.bundles[name]
	return b, ok
}

// MustGet returns a bundle known to exist because LoadBundles succeeded.
func (s *BundleSet) MustGet(name string) *Bundle {
	b, ok := s.bundles[name]
	if !ok {
		panic(fmt.Sprintf("bundle %q not loaded", name))
	}
	return b
}

// ServeHTTP serves /static/{name} from memory.
func (b *Bundle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", b.ETag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, b.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", b.ContentType)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(b.Body)
	}
}
