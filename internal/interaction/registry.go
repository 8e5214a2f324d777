package interaction

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrNotFound is returned when no interactable has the requested ID.
	ErrNotFound = errors.New("interactable not found")
	// ErrDuplicate is returned when registering an ID twice.
	ErrDuplicate = errors.New("interactable already registered")
)

// owner is the part of an Actor the registry needs to take a target away.
type owner interface {
	ID() string
	forget(targetID string)
}

// Registry holds the interactables in the scene and which actor hovers each
// one. A target has at most one hovering actor.
type Registry struct {
	mu      sync.RWMutex
	objects map[string]Interactable
	owners  map[string]owner
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		objects: make(map[string]Interactable),
		owners:  make(map[string]owner),
	}
}

// Register adds obj. It returns ErrDuplicate if the ID is taken.
func (r *Registry) Register(obj Interactable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.objects[obj.ID()]; ok {
		return ErrDuplicate
	}
	r.objects[obj.ID()] = obj
	return nil
}

// Replace adds obj, overwriting any interactable with the same ID. The
// hovering actor, if any, loses the target.
func (r *Registry) Replace(obj Interactable) {
	r.Unregister(obj.ID())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[obj.ID()] = obj
}

// Unregister removes the interactable with id. The hovering actor, if any,
// loses the target.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	obj, ok := r.objects[id]
	prev := r.owners[id]
	delete(r.objects, id)
	delete(r.owners, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	if prev != nil {
		prev.forget(id)
		obj.StopHovering()
	}
	return true
}

// Get returns the interactable with id.
func (r *Registry) Get(id string) (Interactable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	obj, ok := r.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return obj, nil
}

// List returns every interactable sorted by ID.
func (r *Registry) List() []Interactable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Interactable, 0, len(r.objects))
	for _, obj := range r.objects {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Owner returns the ID of the actor hovering id.
func (r *Registry) Owner(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.owners[id]
	if !ok {
		return "", false
	}
	return o.ID(), true
}

// claim makes a the hovering actor of id. A different previous owner forgets
// the target and the target stops hovering before it starts again for a.
func (r *Registry) claim(a owner, id string) (Interactable, error) {
	r.mu.Lock()
	obj, ok := r.objects[id]
	if !ok {
		r.mu.Unlock()
		return nil, ErrNotFound
	}
	prev := r.owners[id]
	r.owners[id] = a
	r.mu.Unlock()

	if prev != nil && prev.ID() != a.ID() {
		prev.forget(id)
	}
	obj.StopHovering()
	obj.StartHovering(a.ID())
	return obj, nil
}

// release drops a's hover on id. It does nothing when a is not the owner.
func (r *Registry) release(a owner, id string) {
	r.mu.Lock()
	obj, ok := r.objects[id]
	cur := r.owners[id]
	if cur == nil || cur.ID() != a.ID() {
		r.mu.Unlock()
		return
	}
	delete(r.owners, id)
	r.mu.Unlock()

	if ok {
		obj.StopHovering()
	}
}
