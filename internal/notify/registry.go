// Package notify routes clip notifications to kind-specific handlers.
//
// Handlers are registered explicitly, one per notification kind, and the
// Registry satisfies the engine's Dispatcher interface. A notification whose
// kind has no handler is ignored.
package notify

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/roach88/cliptrack/internal/timeline"
)

// Handler reacts to the lifecycle of one notification kind. Handlers have no
// error return: failures are theirs to log.
type Handler interface {
	Kind() string
	OnStart(owner any, n timeline.Notification)
	OnUpdate(owner any, n timeline.Notification, progress float64)
	OnEnd(owner any, n timeline.Notification)
}

// Registry maps notification kinds to handlers.
//
// Thread-safety: registration and dispatch may happen from different
// goroutines; lookups take a read lock.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h under h.Kind(). The first handler registered for a kind
// wins; later ones are rejected with an error.
func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("register: nil handler")
	}
	kind := h.Kind()
	if kind == "" {
		return fmt.Errorf("register %T: empty kind", h)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.handlers[kind]; ok {
		return fmt.Errorf("register %T: kind %q already handled by %T", h, kind, existing)
	}
	r.handlers[kind] = h
	slog.Debug("registered notification handler", "kind", kind, "handler", fmt.Sprintf("%T", h))
	return nil
}

// MustRegister is Register that panics on error. Use it for startup tables.
func (r *Registry) MustRegister(handlers ...Handler) *Registry {
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			panic(err)
		}
	}
	return r
}

// Handler returns the handler for kind.
func (r *Registry) Handler(kind string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) lookup(n timeline.Notification) Handler {
	if n == nil {
		return nil
	}
	h, _ := r.Handler(n.Kind())
	return h
}

// DispatchStart calls OnStart on the handler for n's kind, if any.
func (r *Registry) DispatchStart(owner any, n timeline.Notification) {
	if h := r.lookup(n); h != nil {
		h.OnStart(owner, n)
	}
}

// DispatchUpdate calls OnUpdate on the handler for n's kind, if any.
func (r *Registry) DispatchUpdate(owner any, n timeline.Notification, progress float64) {
	if h := r.lookup(n); h != nil {
		h.OnUpdate(owner, n, progress)
	}
}

// DispatchEnd calls OnEnd on the handler for n's kind, if any.
func (r *Registry) DispatchEnd(owner any, n timeline.Notification) {
	if h := r.lookup(n); h != nil {
		h.OnEnd(owner, n)
	}
}

// OwnerName renders an owner for logs and scripts. Owners may be strings,
// fmt.Stringers or anything with a Name() string method.
func OwnerName(owner any) string {
	switch o := owner.(type) {
	case nil:
		return ""
	case string:
		return o
	case interface{ Name() string }:
		return o.Name()
	case fmt.Stringer:
		return o.String()
	default:
		return fmt.Sprint(o)
	}
}
