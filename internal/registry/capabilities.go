// file: internal/registry/capabilities.go
package registry

import "github.com/dkoosis/mcpkit/internal/logging"

// Set aggregates the three primitive registries a server wires together,
// providing the single getCapabilities() view spec.md §4.9's initialize
// response needs.
type Set struct {
	Tools     *ToolRegistry
	Resources *ResourceRegistry
	Prompts   *PromptRegistry
}

// NewSet constructs the three registries with a shared logger.
func NewSet(logger logging.Logger) *Set {
	return &Set{
		Tools:     NewToolRegistry(logger),
		Resources: NewResourceRegistry(logger),
		Prompts:   NewPromptRegistry(logger),
	}
}

// Capabilities builds the "capabilities" object of an initialize response,
// omitting a primitive entirely when nothing of that kind is registered.
func (s *Set) Capabilities() map[string]interface{} {
	caps := map[string]interface{}{}
	if s.Tools != nil {
		if c := s.Tools.Capabilities(); c != nil {
			caps["tools"] = c
		}
	}
	if s.Resources != nil {
		if c := s.Resources.Capabilities(); c != nil {
			caps["resources"] = c
		}
	}
	if s.Prompts != nil {
		if c := s.Prompts.Capabilities(); c != nil {
			caps["prompts"] = c
		}
	}
	return caps
}
