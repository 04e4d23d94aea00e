// Package registry provides the process-wide specialist registry: static
// registration metadata (tag, kind, capability descriptions) available before
// construction, and lazily constructed, cached executor instances with a
// construct-once guarantee under concurrent first access.
package registry

import (
	"fmt"
	"sync"

	"github.com/hupe1980/taskmesh/core"
)

// Registration declares a specialist before it is constructed. Capabilities
// and Kind feed the default classifier and the status endpoint without paying
// the (potentially expensive) constructor cost; New runs at most once per
// slot until the slot is reset.
type Registration struct {
	Tag          string
	Kind         string
	Capabilities []string
	New          func() (core.TaskExecutor, error)
}

// slot holds one specialist's metadata and its cached instance. The slot
// mutex serializes construction so concurrent first-access callers observe a
// single instance and a single constructor run.
type slot struct {
	reg      Registration
	mu       sync.Mutex
	instance core.TaskExecutor
}

// Registry maps specialist tags to construct-once executor slots. It
// preserves registration order, which the default classifier uses as its
// tie-break. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	slots map[string]*slot
	order []string
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{slots: make(map[string]*slot)}
}

// Register adds a specialist declaration. Tags are unique; re-registering an
// existing tag is an error rather than a silent replacement, because routing
// semantics depend on registration order.
func (r *Registry) Register(reg Registration) error {
	if reg.Tag == "" {
		return fmt.Errorf("registry: registration requires a tag")
	}
	if reg.Tag == core.Finish || reg.Tag == core.SupervisorName {
		return fmt.Errorf("registry: tag %q is reserved", reg.Tag)
	}
	if reg.New == nil {
		return fmt.Errorf("registry: registration %q requires a constructor", reg.Tag)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.slots[reg.Tag]; exists {
		return fmt.Errorf("registry: specialist %q already registered", reg.Tag)
	}
	r.slots[reg.Tag] = &slot{reg: reg}
	r.order = append(r.order, reg.Tag)
	return nil
}

// Get returns the cached executor for tag, constructing it on first access.
// Construction happens under the slot lock, so concurrent callers requesting
// the same uninitialized tag block until one constructor run completes and
// then share its instance. Constructor errors are returned and not cached;
// the next Get retries.
func (r *Registry) Get(tag string) (core.TaskExecutor, error) {
	r.mu.RLock()
	s, ok := r.slots[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: specialist %q not registered", tag)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.instance != nil {
		return s.instance, nil
	}
	exec, err := s.reg.New()
	if err != nil {
		return nil, fmt.Errorf("registry: constructing specialist %q: %w", tag, err)
	}
	s.instance = exec
	return exec, nil
}

// Has reports whether tag is registered.
func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.slots[tag]
	return ok
}

// Info returns the static registration metadata for tag.
func (r *Registry) Info(tag string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[tag]
	if !ok {
		return Registration{}, false
	}
	return s.reg, true
}

// Tags returns all registered tags in registration order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, len(r.order))
	copy(tags, r.order)
	return tags
}

// List returns all registrations in registration order.
func (r *Registry) List() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	regs := make([]Registration, 0, len(r.order))
	for _, tag := range r.order {
		regs = append(regs, r.slots[tag].reg)
	}
	return regs
}

// Constructed reports whether the executor for tag has been built.
func (r *Registry) Constructed(tag string) bool {
	r.mu.RLock()
	s, ok := r.slots[tag]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instance != nil
}

// Reset clears the cached instance for tag, forcing re-construction on the
// next Get. The registration itself stays in place.
func (r *Registry) Reset(tag string) {
	r.mu.RLock()
	s, ok := r.slots[tag]
	r.mu.RUnlock()
	if !ok {
		return
	}
	s.mu.Lock()
	s.instance = nil
	s.mu.Unlock()
}

// ResetAll clears every cached instance; registrations stay in place.
func (r *Registry) ResetAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.slots {
		s.mu.Lock()
		s.instance = nil
		s.mu.Unlock()
	}
}
