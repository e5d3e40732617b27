// Package robot provides the robot's capability system: the named actions the
// planner can invoke and the drivers they actuate.
//
// Information Hiding:
// - Parameter grammar and validation hidden in each capability
// - Pin-level actuation hidden behind the Motor and Rangefinder interfaces
// - Failure is always a descriptive result string, never a panic or a Go
//   error crossing the capability boundary
package robot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Metadata describes a capability for registry listings and the planning
// prompt.
type Metadata struct {
	Name        string
	Description string
	// Params documents the parameter grammar, empty when the capability
	// takes none.
	Params string
}

// String returns a one-line representation of the capability metadata.
func (m Metadata) String() string {
	return fmt.Sprintf("%s: %s", m.Name, m.Description)
}

// Capability is one named action the planner can request. Execute interprets
// the raw parameter string and returns human-readable result text; malformed
// parameters produce a descriptive string, not an error.
type Capability interface {
	Metadata() Metadata
	Execute(ctx context.Context, params string) string
}

// Registry manages available capabilities with dynamic registration.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]Capability
}

// NewRegistry creates a new empty capability registry.
func NewRegistry() *Registry {
	return &Registry{
		capabilities: make(map[string]Capability),
	}
}

// Register adds a new capability to the registry.
// Returns error if a capability with the same name already exists.
func (r *Registry) Register(c Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Metadata().Name
	if _, exists := r.capabilities[name]; exists {
		return fmt.Errorf("capability '%s' already registered", name)
	}
	r.capabilities[name] = c
	return nil
}

// Get returns a capability by name.
func (r *Registry) Get(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.capabilities[name]
	return c, exists
}

// Has checks if a capability exists in the registry.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.capabilities[name]
	return exists
}

// Names returns all registered capability names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.capabilities))
	for name := range r.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns metadata for all registered capabilities, sorted by name.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metadata := make([]Metadata, 0, len(r.capabilities))
	for _, c := range r.capabilities {
		metadata = append(metadata, c.Metadata())
	}
	sort.Slice(metadata, func(i, j int) bool { return metadata[i].Name < metadata[j].Name })
	return metadata
}

// PromptDescription returns a formatted description of all capabilities for
// the planning prompt.
func (r *Registry) PromptDescription() string {
	var lines []string
	for _, meta := range r.List() {
		if meta.Params == "" {
			lines = append(lines, fmt.Sprintf("- **%s**: %s (no parameters)", meta.Name, meta.Description))
			continue
		}
		lines = append(lines, fmt.Sprintf("- **%s**: %s (params: %s)", meta.Name, meta.Description, meta.Params))
	}
	return strings.Join(lines, "\n")
}
