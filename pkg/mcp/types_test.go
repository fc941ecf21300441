// file: pkg/mcp/types_test.go
package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchArgs struct {
	Query string `json:"query" jsonschema:"required,description=search text"`
	Limit int    `json:"limit,omitempty"`
}

func TestSchemaFromStruct_ReflectsFields(t *testing.T) {
	raw := SchemaFromStruct(searchArgs{})
	require.NotNil(t, raw)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &schema))

	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok, "schema must have properties")
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "limit")

	required, ok := schema["required"].([]interface{})
	require.True(t, ok, "schema must have required")
	assert.Contains(t, required, "query")
}
