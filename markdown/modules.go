// ABOUTME: Catalog of optional goldmark extension modules the fetcher can assemble into an engine.
// ABOUTME: Each module is resolved by name; unknown names fail the fetch with ErrUnknownModule.
package markdown

import (
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
)

// ErrUnknownModule is returned when a requested module is not in the catalog.
var ErrUnknownModule = errors.New("unknown markdown module")

const (
	// ModuleGFM adds tables, task lists, strikethrough and autolinks.
	ModuleGFM = "gfm"
	// ModuleEmoji converts :shortcode: sequences to emoji.
	ModuleEmoji = "emoji"
)

// DefaultModules is what the editor requests when nothing else is configured.
var DefaultModules = []string{ModuleGFM}

// Module is one loadable goldmark extension.
type Module struct {
	Name     string
	Extender goldmark.Extender
}

var catalog = map[string]func() goldmark.Extender{
	ModuleGFM:   func() goldmark.Extender { return extension.GFM },
	ModuleEmoji: func() goldmark.Extender { return emoji.Emoji },
}

// KnownModules lists the module names the catalog can resolve.
func KnownModules() []string {
	return []string{ModuleGFM, ModuleEmoji}
}

// resolveModules looks up every name, failing on the first unknown one.
func resolveModules(names []string) ([]Module, error) {
	mods := make([]Module, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		ctor, ok := catalog[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownModule, name)
		}
		mods = append(mods, Module{Name: name, Extender: ctor()})
	}
	return mods, nil
}
