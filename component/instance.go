// ABOUTME: Common lifecycle bookkeeping shared by mounted component instances.
// ABOUTME: Tracks identity, kind, creation and last-access times used by the registry's eviction.
package component

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind identifies which component a mounted instance is.
type Kind string

const (
	KindHelloWorld      Kind = "HelloWorld"
	KindSecondComponent Kind = "SecondComponent"
	KindMarkdownEditor  Kind = "MarkdownEditor"
)

// Instance is a mounted component the registry can track and unmount.
type Instance interface {
	ID() string
	Kind() Kind
	Unmount()
	Unmounted() bool
	LastAccess() time.Time
	touch(now time.Time)
}

// lifecycle is embedded by every component.
type lifecycle struct {
	id        string
	kind      Kind
	createdAt time.Time

	accessMu   sync.Mutex
	lastAccess time.Time
}

func (l *lifecycle) init(kind Kind) {
	now := time.Now()
	l.id = uuid.NewString()
	l.kind = kind
	l.createdAt = now
	l.lastAccess = now
}

// ID returns the instance's unique identifier.
func (l *lifecycle) ID() string { return l.id }

// Kind returns which component this instance is.
func (l *lifecycle) Kind() Kind { return l.kind }

// CreatedAt returns when the instance was constructed.
func (l *lifecycle) CreatedAt() time.Time { return l.createdAt }

// LastAccess returns the last time the registry handed this instance out.
func (l *lifecycle) LastAccess() time.Time {
	l.accessMu.Lock()
	defer l.accessMu.Unlock()
	return l.lastAccess
}

func (l *lifecycle) touch(now time.Time) {
	l.accessMu.Lock()
	l.lastAccess = now
	l.accessMu.Unlock()
}
