package folio

import (
	"sync"
	"weak"
)

// ViewHandle is a ViewRef that the owner invalidates explicitly by calling
// Release when the view is torn down.
type ViewHandle struct {
	mu   sync.RWMutex
	view View
}

// NewViewHandle returns a live handle for v.
func NewViewHandle(v View) *ViewHandle {
	return &ViewHandle{view: v}
}

// Get returns the view while the handle is live.
func (h *ViewHandle) Get() (View, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.view, h.view != nil
}

// Release invalidates the handle. Later Get calls return false.
func (h *ViewHandle) Release() {
	h.mu.Lock()
	h.view = nil
	h.mu.Unlock()
}

// weakRef holds a view without keeping it reachable.
type weakRef[T any] struct {
	ptr weak.Pointer[T]
}

// WeakRef returns a ViewRef that does not keep v alive. Once the garbage
// collector reclaims v, Get returns false. *T must implement View.
func WeakRef[T any](v *T) ViewRef {
	return weakRef[T]{ptr: weak.Make(v)}
}

func (w weakRef[T]) Get() (View, bool) {
	p := w.ptr.Value()
	if p == nil {
		return nil, false
	}
	v, ok := any(p).(View)
	return v, ok
}
