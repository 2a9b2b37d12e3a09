package surface

import (
	"fmt"
	"sync"
)

// Registry owns the set of live windows. Ids are assigned
// monotonically starting at 1 and are never reused, even after a
// window is removed. Iteration order is insertion order.
//
// A single registry instance is shared by every connection, so all
// methods are safe for concurrent use: mutations are serialized by a
// write lock and List never observes a partially applied mutation.
type Registry struct {
	mu      sync.RWMutex
	windows map[uint32]*Window
	order   []uint32
	nextID  uint32
}

// maxWindowDim caps a window's width and height. It keeps a single
// framebuffer allocation bounded (a maximal window is 1GiB) and the
// blit arithmetic inside int range.
const maxWindowDim = 16384

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		windows: make(map[uint32]*Window),
		nextID:  1,
	}
}

// Create allocates a new window with the next id and stores it.
// Width and height must be positive and at most maxWindowDim.
func (r *Registry) Create(title string, width, height int) (*Window, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("window dimensions must be positive, got %dx%d: %w",
			width, height, ErrInvalidArgument)
	}
	if width > maxWindowDim || height > maxWindowDim {
		return nil, fmt.Errorf("window dimensions %dx%d exceed the %d pixel limit: %w",
			width, height, maxWindowDim, ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	w := newWindow(id, title, width, height)
	r.windows[id] = w
	r.order = append(r.order, id)
	return w, nil
}

// Get looks up a window by id.
func (r *Registry) Get(id uint32) (*Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.windows[id]
	if !ok {
		return nil, fmt.Errorf("Window %d %w", id, ErrNotFound)
	}
	return w, nil
}

// Remove deletes the window with the given id.
func (r *Registry) Remove(id uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.windows[id]; !ok {
		return fmt.Errorf("Window %d %w", id, ErrNotFound)
	}
	delete(r.windows, id)
	for i, wid := range r.order {
		if wid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns descriptors for all live windows in insertion order.
// The result is never nil so it marshals as an empty JSON array.
func (r *Registry) List() []WindowInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]WindowInfo, 0, len(r.order))
	for _, id := range r.order {
		infos = append(infos, r.windows[id].Info())
	}
	return infos
}

// Len returns the number of live windows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

// FirstDrawn returns the first window in insertion order whose
// framebuffer has been drawn to, or false when no window qualifies.
func (r *Registry) FirstDrawn() (*Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if w := r.windows[id]; w.Framebuffer().Dirty() {
			return w, true
		}
	}
	return nil, false
}
