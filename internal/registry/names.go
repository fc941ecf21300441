// Package registry implements the primitive registries of spec.md §4.6:
// tool, resource, and prompt stores with name/URI lookup, deterministic
// pagination, and capability reporting.
// file: internal/registry/names.go
package registry

import (
	"regexp"

	"github.com/dkoosis/mcpkit/internal/protoerr"
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateName enforces the tool/prompt naming rule of spec.md §4.6.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return protoerr.WithDetails(protoerr.KindInvalidParams,
			"name must match ^[a-z0-9][a-z0-9_-]*$", map[string]interface{}{"name": name})
	}
	return nil
}
