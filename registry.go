package curves

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ============================================================
// Registry: identifier-keyed curves and the trace hook
// ============================================================

var (
	// ErrDuplicateIdentifier is returned when an identifier is already taken.
	ErrDuplicateIdentifier = errors.New("curves: identifier already registered")
	// ErrEmptyIdentifier is returned when registering under "".
	ErrEmptyIdentifier = errors.New("curves: identifier must not be empty")
)

// Registry holds identified curves and the hook their evaluations and
// mutations are reported to. The zero value is not usable; call
// NewRegistry. A Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	curves map[string]*Curve
	trace  func(string)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTrace sets the trace hook.
func WithTrace(fn func(string)) RegistryOption {
	return func(r *Registry) { r.trace = fn }
}

// NewRegistry returns an empty registry whose trace hook is a no-op.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{curves: map[string]*Curve{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Named lifts v and registers a copy of it under id. The copy reports
// every evaluation ("<value> = <id>(<x>)") and every in-place operation
// through the trace hook. Nothing is registered on error.
func (r *Registry) Named(id string, v interface{}) (*Curve, error) {
	if id == "" {
		return nil, ErrEmptyIdentifier
	}
	base, err := New(v)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.curves[id]; taken {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateIdentifier, id)
	}
	c := base.Copy()
	c.id, c.reg = id, r
	r.curves[id] = c
	return c, nil
}

// Lookup returns the curve registered under id.
func (r *Registry) Lookup(id string) (*Curve, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.curves[id]
	return c, ok
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.curves))
	for id := range r.curves {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered curves.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.curves)
}

// SetTrace replaces the trace hook. It affects later reports only; nil
// restores the no-op hook.
func (r *Registry) SetTrace(fn func(string)) {
	r.mu.Lock()
	r.trace = fn
	r.mu.Unlock()
}

func (r *Registry) hook() func(string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.trace
}

// report sends msg() to the trace hook of an identified curve. msg is only
// built when there is somewhere to send it.
func (c *Curve) report(msg func() string) {
	if c.id == "" || c.reg == nil {
		return
	}
	if fn := c.reg.hook(); fn != nil {
		fn(msg())
	}
}
