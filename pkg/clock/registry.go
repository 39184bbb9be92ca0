package clock

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// Registry maps clock IDs to Clock instances. It replaces a shared
// global clock table: callers construct one at process start and pass it
// to the sessions that need it. Mutation is not goroutine-safe; register
// everything up front, then share read-only.
type Registry struct {
	clocks map[string]Clock
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{clocks: make(map[string]Clock)}
}

// DefaultRegistry returns a registry holding all built-in clocks.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.clocks[Monotonic] = NewMonotonic()
	r.clocks[Wall] = NewWall()
	r.clocks[Process] = NewProcessCPU()

	return r
}

// Resolve returns the clock registered under id.
func (r *Registry) Resolve(id string) (Clock, error) {
	c, ok := r.clocks[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedClock, "%q", id)
	}

	return c, nil
}

// Register adds a clock under id, replacing any previous registration.
func (r *Registry) Register(id string, c Clock) error {
	if id == "" {
		return errors.Wrap(ErrInvalidClock, "empty clock ID")
	}

	if c == nil {
		return errors.Wrapf(ErrInvalidClock, "nil clock for %q", id)
	}

	r.clocks[id] = c

	return nil
}

// Unregister removes the clock registered under id, if any.
func (r *Registry) Unregister(id string) {
	delete(r.clocks, id)
}

// IDs returns all registered clock IDs in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.clocks))
	for id := range r.clocks {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
