// ABOUTME: Lightweight greeting components whose only state is a name mirrored from an input.
// ABOUTME: Backs both the hello world page and the second auto-registered component page.
package component

import (
	"sync"

	"github.com/2389-research/splitview/content"
)

// DefaultName is greeted when the page passes no name.
const DefaultName = "Stranger"

// Greeting holds the name typed into the greeting input.
type Greeting struct {
	lifecycle

	mu        sync.RWMutex
	name      string
	unmounted bool
}

// GreetingView is the render model for the greeting partial.
type GreetingView struct {
	ID   string
	Kind Kind
	Name string
}

// NewGreeting creates a greeting of the given kind from page props.
func NewGreeting(kind Kind, props content.GreetingProps) *Greeting {
	name := props.Name
	if name == "" {
		name = DefaultName
	}
	g := &Greeting{name: name}
	g.init(kind)
	return g
}

// SetName replaces the greeted name. An empty name is kept as typed.
func (g *Greeting) SetName(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.name = name
}

// Name returns the current name.
func (g *Greeting) Name() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.name
}

// View returns the render model.
func (g *Greeting) View() GreetingView {
	return GreetingView{ID: g.ID(), Kind: g.Kind(), Name: g.Name()}
}

// Unmount marks the greeting gone. Greetings hold no background work.
func (g *Greeting) Unmount() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unmounted = true
}

// Unmounted reports whether Unmount has been called.
func (g *Greeting) Unmounted() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.unmounted
}
