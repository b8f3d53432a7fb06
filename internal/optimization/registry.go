package optimization

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Options is the keyword configuration of a family. Values must render
// deterministically with %v.
type Options map[string]interface{}

// Builder constructs a configured protocol from a family's options.
type Builder func(options Options, instrumentation *Instrumentation, settings Settings) (*Protocol, error)

// Family is a configuration factory producing optimizer instances by
// name. Its representation deterministically embeds the keyword
// configuration for reproducibility and debugging.
type Family struct {
	name    string
	options Options
	build   Builder
}

// NewFamily creates a family with the given name, options and builder.
func NewFamily(name string, options Options, build Builder) *Family {
	return &Family{name: name, options: options, build: build}
}

// Name returns the family name.
func (f *Family) Name() string { return f.name }

// WithName returns a copy of the family under a new name, preserving the
// configuration. Used for registering aliases.
func (f *Family) WithName(name string) *Family {
	return &Family{name: name, options: f.options, build: f.build}
}

// String renders the family as name(key=value,...) with keys sorted.
func (f *Family) String() string {
	keys := make([]string, 0, len(f.options))
	for k := range f.options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, f.options[k])
	}
	return fmt.Sprintf("%s(%s)", f.name, strings.Join(parts, ","))
}

// New constructs a configured protocol instance. The instance's name is
// the family representation, so its String() embeds the configuration.
func (f *Family) New(instrumentation *Instrumentation, settings Settings) (*Protocol, error) {
	if f.build == nil {
		return nil, NewConfigurationError("family %q has no builder", f.name).
			WithComponent("optimization").WithOperation("Family.New")
	}
	settings.Name = f.String()
	return f.build(f.options, instrumentation, settings)
}

// Registry maps unique family names to families. It is an explicit object
// passed by reference rather than ambient global state.
type Registry struct {
	mu       sync.RWMutex
	families map[string]*Family
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{families: make(map[string]*Family)}
}

// Register adds a family under its own name. Registering a duplicate name
// fails.
func (r *Registry) Register(family *Family) error {
	return r.RegisterAs(family.Name(), family)
}

// RegisterAs adds a family under an alias, preserving its configuration.
func (r *Registry) RegisterAs(name string, family *Family) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.families[name]; ok {
		return NewConfigurationError("family %q is already registered", name).
			WithComponent("optimization").WithOperation("Register")
	}
	r.families[name] = family.WithName(name)
	return nil
}

// Lookup returns the family registered under name.
func (r *Registry) Lookup(name string) (*Family, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.families[name]
	return f, ok
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
