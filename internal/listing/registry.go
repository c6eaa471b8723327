package listing

import "sync"

// Registry keeps one View per session scope.
type Registry struct {
	mu    sync.Mutex
	views map[string]*View
}

func NewRegistry() *Registry {
	return &Registry{views: make(map[string]*View)}
}

// Get returns the open view of scope, creating a fresh one if there is none.
func (r *Registry) Get(scope string) *View {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.views[scope]; ok && !v.Closed() {
		return v
	}
	v := NewView()
	r.views[scope] = v
	return v
}

// Invalidate marks the scope's view stale if it exists.
func (r *Registry) Invalidate(scope string) {
	r.mu.Lock()
	v, ok := r.views[scope]
	r.mu.Unlock()
	if ok {
		v.Invalidate()
	}
}

// Close closes and forgets the scope's view.
func (r *Registry) Close(scope string) {
	r.mu.Lock()
	v, ok := r.views[scope]
	delete(r.views, scope)
	r.mu.Unlock()
	if ok {
		v.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
