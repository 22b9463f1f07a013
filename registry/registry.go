package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/PaulFidika/plankit/entitlements"
)

// ErrNotRegistered is returned when a capability name is unknown.
var ErrNotRegistered = errors.New("registry: capability not registered")

// Implementation is a resolved capability. Consumers assert it to their
// concrete type.
type Implementation any

// LoadFunc lazily produces a widget's implementation. It may block (e.g. a
// deferred module load) and must honor ctx.
type LoadFunc func(ctx context.Context) (Implementation, error)

// Widget pairs a manifest with its lazy loader.
type Widget struct {
	Manifest entitlements.WidgetManifest
	Load     LoadFunc
}

type entry struct {
	widget Widget

	mu     sync.Mutex
	loaded bool
	impl   Implementation
}

// Registry is a static capability registry: read-only after construction.
// Implementations are resolved lazily and memoized on first success; a failed
// load is retried on the next Resolve.
type Registry struct {
	entries map[string]*entry
}

// New builds a registry from the given widgets. Later duplicates win.
func New(widgets ...Widget) *Registry {
	r := &Registry{entries: make(map[string]*entry, len(widgets))}
	for _, w := range widgets {
		r.entries[w.Manifest.Name] = &entry{widget: w}
	}
	return r
}

// Manifest returns the manifest for a capability name.
func (r *Registry) Manifest(name string) (entitlements.WidgetManifest, bool) {
	e, ok := r.entries[name]
	if !ok {
		return entitlements.WidgetManifest{}, false
	}
	return e.widget.Manifest, true
}

// Resolve returns the capability's implementation, loading it on first use.
func (r *Registry) Resolve(ctx context.Context, name string) (Implementation, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, ErrNotRegistered
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return e.impl, nil
	}
	if e.widget.Load == nil {
		return nil, ErrNotRegistered
	}
	impl, err := e.widget.Load(ctx)
	if err != nil {
		return nil, err
	}
	e.impl = impl
	e.loaded = true
	return impl, nil
}
