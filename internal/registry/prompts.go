// file: internal/registry/prompts.go
package registry

import (
	"sync"

	"github.com/dkoosis/mcpkit/internal/logging"
	"github.com/dkoosis/mcpkit/internal/protoerr"
	"github.com/dkoosis/mcpkit/pkg/mcp"
)

// PromptRegistry holds prompt definitions in insertion order, keyed by name.
type PromptRegistry struct {
	mu      sync.RWMutex
	order   []string
	byName  map[string]mcp.PromptDefinition
	cursors *cursorStore
	logger  logging.Logger
}

// NewPromptRegistry constructs an empty registry.
func NewPromptRegistry(logger logging.Logger) *PromptRegistry {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &PromptRegistry{
		byName:  make(map[string]mcp.PromptDefinition),
		cursors: newCursorStore(),
		logger:  logger.WithField("component", "prompt_registry"),
	}
}

// Register adds def, rejecting invalid or duplicate names.
func (r *PromptRegistry) Register(def mcp.PromptDefinition) error {
	if err := ValidateName(def.Name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[def.Name]; exists {
		return protoerr.WithDetails(protoerr.KindInvalidParams,
			"prompt already registered", map[string]interface{}{"name": def.Name})
	}
	r.byName[def.Name] = def
	r.order = append(r.order, def.Name)
	r.logger.Debug("registered prompt", "name", def.Name)
	return nil
}

// Unregister removes a prompt by name. Absence is not an error.
func (r *PromptRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; !exists {
		return
	}
	delete(r.byName, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the prompt registered under name.
func (r *PromptRegistry) Lookup(name string) (mcp.PromptDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byName[name]
	return def, ok
}

// Size returns the number of registered prompts.
func (r *PromptRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Clear removes all registered prompts.
func (r *PromptRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.byName = make(map[string]mcp.PromptDefinition)
}

// List returns prompts in insertion order starting at cursor.
func (r *PromptRegistry) List(cursor string) (ListPage[mcp.PromptDefinition], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	offset, err := r.cursors.resolve(cursor)
	if err != nil {
		return ListPage[mcp.PromptDefinition]{}, err
	}
	if offset > len(r.order) {
		offset = len(r.order)
	}

	end := offset + defaultPageSize
	if end > len(r.order) {
		end = len(r.order)
	}

	items := make([]mcp.PromptDefinition, 0, end-offset)
	for _, name := range r.order[offset:end] {
		items = append(items, r.byName[name])
	}

	page := ListPage[mcp.PromptDefinition]{Items: items}
	if end < len(r.order) {
		page.NextCursor = r.cursors.issue(end)
	}
	return page, nil
}

// Capabilities reports the prompt-related server capability object.
func (r *PromptRegistry) Capabilities() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil
	}
	return map[string]interface{}{"listChanged": false}
}
