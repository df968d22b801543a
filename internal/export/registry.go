package export

import (
	"sort"
	"strings"
	"sync"
)

// Registry manages export targets.
type Registry struct {
	specs   map[Format]*Spec
	aliases map[string]Format
	mu      sync.RWMutex
}

// NewRegistry creates an empty format registry.
func NewRegistry() *Registry {
	return &Registry{
		specs:   make(map[Format]*Spec),
		aliases: make(map[string]Format),
	}
}

// DefaultRegistry returns a registry holding every toolkit target.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range builtinSpecs() {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a target to the registry.
func (r *Registry) Register(s *Spec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[s.Format]; exists {
		return ErrAlreadyRegistered
	}
	for _, a := range s.Aliases {
		if _, exists := r.aliases[a]; exists {
			return ErrAlreadyRegistered
		}
	}

	r.specs[s.Format] = s
	for _, a := range s.Aliases {
		r.aliases[a] = s.Format
	}
	return nil
}

// Get retrieves a target by name or alias. Lookup is case-insensitive.
func (r *Registry) Get(name string) (*Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	if s, ok := r.specs[Format(key)]; ok {
		return s, true
	}
	if f, ok := r.aliases[key]; ok {
		return r.specs[f], true
	}
	return nil, false
}

// List returns all targets sorted by name.
func (r *Registry) List() []*Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Spec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Format < out[j].Format })
	return out
}
