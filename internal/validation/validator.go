// Package validation validates tool call arguments against a tool's
// declared inputSchema, using the same github.com/santhosh-tekuri/jsonschema/v5
// compiler the teacher's internal/schema package built its MCP schema
// validator on — generalized here to compile one schema per tool, on
// demand, rather than a single embedded protocol schema.
// file: internal/validation/validator.go
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dkoosis/mcpkit/internal/logging"
	"github.com/dkoosis/mcpkit/internal/protoerr"
)

// SchemaValidator compiles and caches per-tool JSON Schemas and validates
// argument payloads against them.
type SchemaValidator struct {
	mu     sync.Mutex
	cache  map[string]*jsonschema.Schema
	logger logging.Logger
}

// New constructs an empty SchemaValidator.
func New(logger logging.Logger) *SchemaValidator {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &SchemaValidator{
		cache:  make(map[string]*jsonschema.Schema),
		logger: logger.WithField("component", "schema_validator"),
	}
}

// Validate checks data against the schema registered under schemaID,
// compiling and caching schemaJSON on first use. A nil or empty schemaJSON
// is treated as "no schema declared" and always passes.
func (v *SchemaValidator) Validate(schemaID string, schemaJSON json.RawMessage, data []byte) error {
	if len(schemaJSON) == 0 {
		return nil
	}

	schema, err := v.compiled(schemaID, schemaJSON)
	if err != nil {
		return protoerr.Wrap(protoerr.KindInternalError, err,
			fmt.Sprintf("failed to compile schema for %q", schemaID))
	}

	var instance interface{}
	if len(data) == 0 {
		instance = map[string]interface{}{}
	} else if err := json.Unmarshal(data, &instance); err != nil {
		return protoerr.WithDetails(protoerr.KindInvalidParams, "arguments must be valid JSON",
			map[string]interface{}{"schemaId": schemaID})
	}

	if err := schema.Validate(instance); err != nil {
		var valErr *jsonschema.ValidationError
		if errors.As(err, &valErr) {
			return protoerr.WithDetails(protoerr.KindInvalidParams, "arguments failed schema validation",
				map[string]interface{}{"schemaId": schemaID, "cause": valErr.Error()})
		}
		return protoerr.Wrap(protoerr.KindInvalidParams, err, "arguments failed schema validation")
	}
	return nil
}

func (v *SchemaValidator) compiled(schemaID string, schemaJSON json.RawMessage) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.cache[schemaID]; ok {
		return s, nil
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	resourceID := "mcpkit://" + schemaID
	if err := compiler.AddResource(resourceID, bytes.NewReader(schemaJSON)); err != nil {
		return nil, errors.Wrapf(err, "failed to add schema resource %q", resourceID)
	}
	schema, err := compiler.Compile(resourceID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compile schema resource %q", resourceID)
	}
	v.cache[schemaID] = schema
	v.logger.Debug("compiled tool input schema", "schemaId", schemaID)
	return schema, nil
}

// Invalidate drops a cached compiled schema, forcing recompilation on next
// use — for callers that re-register a tool under the same name with a
// different schema.
func (v *SchemaValidator) Invalidate(schemaID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.cache, schemaID)
}
