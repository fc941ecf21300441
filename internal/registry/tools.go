// file: internal/registry/tools.go
package registry

import (
	"sync"

	"github.com/dkoosis/mcpkit/internal/logging"
	"github.com/dkoosis/mcpkit/internal/protoerr"
	"github.com/dkoosis/mcpkit/pkg/mcp"
)

// ToolRegistry holds tool definitions in insertion order, keyed by name.
type ToolRegistry struct {
	mu      sync.RWMutex
	order   []string
	byName  map[string]mcp.ToolDefinition
	cursors *cursorStore
	logger  logging.Logger
}

// NewToolRegistry constructs an empty registry.
func NewToolRegistry(logger logging.Logger) *ToolRegistry {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &ToolRegistry{
		byName:  make(map[string]mcp.ToolDefinition),
		cursors: newCursorStore(),
		logger:  logger.WithField("component", "tool_registry"),
	}
}

// Register adds def, rejecting invalid or duplicate names (spec.md §4.6).
func (r *ToolRegistry) Register(def mcp.ToolDefinition) error {
	if err := ValidateName(def.Name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[def.Name]; exists {
		return protoerr.WithDetails(protoerr.KindInvalidParams,
			"tool already registered", map[string]interface{}{"name": def.Name})
	}
	r.byName[def.Name] = def
	r.order = append(r.order, def.Name)
	r.logger.Debug("registered tool", "name", def.Name)
	return nil
}

// Unregister removes a tool by name. Absence is not an error.
func (r *ToolRegistry) Unregister(name string) {
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

// Lookup returns the tool registered under name.
func (r *ToolRegistry) Lookup(name string) (mcp.ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byName[name]
	return def, ok
}

// Size returns the number of registered tools.
func (r *ToolRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Clear removes all registered tools.
func (r *ToolRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.byName = make(map[string]mcp.ToolDefinition)
}

// ListPage is one page of a paginated listing: the items plus an opaque
// cursor for the next page, empty when there is none.
type ListPage[T any] struct {
	Items      []T
	NextCursor string
}

const defaultPageSize = 50

// List returns tools in insertion order starting at cursor, per spec.md
// §4.6's pagination contract.
func (r *ToolRegistry) List(cursor string) (ListPage[mcp.ToolDefinition], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	offset, err := r.cursors.resolve(cursor)
	if err != nil {
		return ListPage[mcp.ToolDefinition]{}, err
	}
	if offset > len(r.order) {
		offset = len(r.order)
	}

	end := offset + defaultPageSize
	if end > len(r.order) {
		end = len(r.order)
	}

	items := make([]mcp.ToolDefinition, 0, end-offset)
	for _, name := range r.order[offset:end] {
		items = append(items, r.byName[name])
	}

	page := ListPage[mcp.ToolDefinition]{Items: items}
	if end < len(r.order) {
		page.NextCursor = r.cursors.issue(end)
	}
	return page, nil
}

// Capabilities reports the tool-related server capability object
// (spec.md §4.9).
func (r *ToolRegistry) Capabilities() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil
	}
	return map[string]interface{}{"listChanged": false}
}
