// file: internal/validation/validator_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/mcpkit/internal/protoerr"
)

const sampleSchema = `{
	"type": "object",
	"properties": {"x": {"type": "integer"}},
	"required": ["x"]
}`

func TestSchemaValidator_NoSchemaAlwaysPasses(t *testing.T) {
	v := New(nil)
	require.NoError(t, v.Validate("tool", nil, []byte(`{"anything":true}`)))
}

func TestSchemaValidator_ValidArgumentsPass(t *testing.T) {
	v := New(nil)
	require.NoError(t, v.Validate("tool", []byte(sampleSchema), []byte(`{"x":1}`)))
}

func TestSchemaValidator_MissingRequiredFieldFails(t *testing.T) {
	v := New(nil)
	err := v.Validate("tool", []byte(sampleSchema), []byte(`{}`))
	require.Error(t, err)
	assert.True(t, protoerr.IsKind(err, protoerr.KindInvalidParams))
}

func TestSchemaValidator_MalformedJSONArgumentsFails(t *testing.T) {
	v := New(nil)
	err := v.Validate("tool", []byte(sampleSchema), []byte(`not json`))
	require.Error(t, err)
	assert.True(t, protoerr.IsKind(err, protoerr.KindInvalidParams))
}

func TestSchemaValidator_CachesCompiledSchema(t *testing.T) {
	v := New(nil)
	require.NoError(t, v.Validate("tool", []byte(sampleSchema), []byte(`{"x":1}`)))
	_, cached := v.cache["tool"]
	assert.True(t, cached)

	v.Invalidate("tool")
	_, cached = v.cache["tool"]
	assert.False(t, cached)
}
