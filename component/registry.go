// ABOUTME: In-memory registry of mounted component instances with TTL cleanup and capacity limits.
// ABOUTME: Every instance the registry drops is unmounted so pending renderer fetches are cancelled.
package component

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry tracks mounted instances by ID.
type Registry struct {
	mu           sync.RWMutex
	instances    map[string]Instance
	maxInstances int
	ttl          time.Duration
	logger       *zap.Logger
}

// NewRegistry creates a registry holding at most maxInstances of each Kind, each kept for ttl
// since last access. Capacity is per kind so cheap greeting views never push out an editor.
func NewRegistry(maxInstances int, ttl time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		instances:    make(map[string]Instance),
		maxInstances: maxInstances,
		ttl:          ttl,
		logger:       logger,
	}
}

// Add registers inst, evicting the least recently used instance of the same kind when that kind is full.
func (r *Registry) Add(inst Instance) {
	var evicted Instance

	r.mu.Lock()
	if r.maxInstances > 0 {
		var oldestID string
		var oldestTime time.Time
		count := 0
		for id, existing := range r.instances {
			if existing.Kind() != inst.Kind() {
				continue
			}
			count++
			seen := existing.LastAccess()
			if oldestID == "" || seen.Before(oldestTime) {
				oldestID = id
				oldestTime = seen
			}
		}
		if count >= r.maxInstances {
			evicted = r.instances[oldestID]
			delete(r.instances, oldestID)
		}
	}
	r.instances[inst.ID()] = inst
	r.mu.Unlock()

	if evicted != nil {
		evicted.Unmount()
		r.logger.Info("component evicted",
			zap.String("component", "registry"),
			zap.String("instance", evicted.ID()),
			zap.String("kind", string(evicted.Kind())),
			zap.String("reason", "capacity"),
		)
	}
}

// Get returns the instance and refreshes its last access time.
func (r *Registry) Get(id string) (Instance, bool) {
	r.mu.RLock()
	inst, ok := r.instances[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	inst.touch(time.Now())
	return inst, true
}

// Editor returns the markdown editor with the given ID.
func (r *Registry) Editor(id string) (*Editor, bool) {
	inst, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	ed, ok := inst.(*Editor)
	return ed, ok
}

// Greeting returns the greeting component with the given ID.
func (r *Registry) Greeting(id string) (*Greeting, bool) {
	inst, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	g, ok := inst.(*Greeting)
	return g, ok
}

// Unmount removes and unmounts the instance. It reports whether the ID was known.
func (r *Registry) Unmount(id string) bool {
	r.mu.Lock()
	inst, ok := r.instances[id]
	delete(r.instances, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	inst.Unmount()
	r.logger.Debug("component unmounted",
		zap.String("component", "registry"),
		zap.String("instance", id),
		zap.String("kind", string(inst.Kind())),
	)
	return true
}

// Len returns the number of mounted instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// Cleanup unmounts instances not accessed within the TTL.
func (r *Registry) Cleanup() {
	cutoff := time.Now().Add(-r.ttl)
	var expired []Instance

	r.mu.Lock()
	for id, inst := range r.instances {
		if inst.LastAccess().Before(cutoff) {
			expired = append(expired, inst)
			delete(r.instances, id)
		}
	}
	r.mu.Unlock()

	for _, inst := range expired {
		inst.Unmount()
	}
	if len(expired) > 0 {
		r.logger.Info("expired components unmounted",
			zap.String("component", "registry"),
			zap.Int("count", len(expired)),
		)
	}
}

// StartCleanup starts a background cleanup goroutine and returns a stop function.
func (r *Registry) StartCleanup(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		for {
			select {
			case <-ticker.C:
				r.Cleanup()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-stopped
		})
	}
}

// Close unmounts every instance.
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		all = append(all, inst)
	}
	r.instances = make(map[string]Instance)
	r.mu.Unlock()

	for _, inst := range all {
		inst.Unmount()
	}
}
