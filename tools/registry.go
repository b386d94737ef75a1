// Tool registry.
//
// Information Hiding:
// - Tool storage and lookup implementation hidden
// - Registration order preserved for deterministic tool lists

package tools

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry manages available tools with dynamic registration.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a new tool to the registry.
// Returns error if a tool with the same name already exists.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Metadata().Name
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool '%s' already registered", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// Has checks if a tool exists in the registry.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.tools[name]
	return exists
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Names returns all registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// All returns the registered tools in registration order.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		all = append(all, r.tools[name])
	}
	return all
}

// List returns metadata for all registered tools in registration order.
func (r *Registry) List() []ToolMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metadata := make([]ToolMetadata, 0, len(r.order))
	for _, name := range r.order {
		metadata = append(metadata, r.tools[name].Metadata())
	}
	return metadata
}

// Description returns a formatted description of all tools.
func (r *Registry) Description() string {
	var descriptions []string
	for _, meta := range r.List() {
		var params []string
		for _, p := range meta.Parameters {
			required := "optional"
			if p.Required {
				required = "required"
			}
			params = append(params, fmt.Sprintf("  - %s (%s): %s [%s]",
				p.Name, p.ParamType, p.Description, required))
		}

		descriptions = append(descriptions, fmt.Sprintf(
			"Tool: %s\nDescription: %s\nParameters:\n%s",
			meta.Name, meta.Description, strings.Join(params, "\n")))
	}

	return strings.Join(descriptions, "\n\n")
}
