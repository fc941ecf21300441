// file: internal/jsonrpc/codec_test.go
package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/dkoosis/mcpkit/internal/protoerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBytes_RequestRoundTrip(t *testing.T) {
	input := []byte(`{"jsonrpc":"2.0","id":"h1","method":"tools/list","params":{"cursor":"abc"}}`)

	msg, perr := DecodeBytes(input)
	require.Nil(t, perr)
	require.True(t, msg.IsRequest())
	assert.False(t, msg.IsNotification())

	req := msg.ToRequest()
	assert.Equal(t, "tools/list", req.Method)

	var id string
	require.NoError(t, json.Unmarshal(req.ID, &id))
	assert.Equal(t, "h1", id)

	var params map[string]string
	require.NoError(t, req.ParseParams(&params))
	assert.Equal(t, "abc", params["cursor"])
}

func TestDecodeBytes_NotificationHasNoResponse(t *testing.T) {
	input := []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	msg, perr := DecodeBytes(input)
	require.Nil(t, perr)
	assert.True(t, msg.IsNotification())
	assert.False(t, msg.IsRequest())
}

func TestDecodeBytes_NullIDIsARequestNotNotification(t *testing.T) {
	input := []byte(`{"jsonrpc":"2.0","id":null,"method":"ping"}`)
	msg, perr := DecodeBytes(input)
	require.Nil(t, perr)
	assert.True(t, msg.IsRequest(), "a present-but-null id denotes a request per spec.md §3")
}

func TestDecodeBytes_ExplicitNullParamsIsPassedThroughNotOmitted(t *testing.T) {
	input := []byte(`{"jsonrpc":"2.0","id":1,"method":"ping","params":null}`)
	msg, perr := DecodeBytes(input)
	require.Nil(t, perr)
	require.NotNil(t, msg.Params, "an explicit \"params\": null must be distinguishable from absent params")
	assert.Equal(t, "null", string(msg.Params))
}

func TestDecodeBytes_AbsentParamsIsNil(t *testing.T) {
	input := []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	msg, perr := DecodeBytes(input)
	require.Nil(t, perr)
	assert.Nil(t, msg.Params)
}

func TestDecodeBytes_ParseError(t *testing.T) {
	_, perr := DecodeBytes([]byte(`{"jsonrpc":"2.0","method":}`))
	require.NotNil(t, perr)
	assert.Equal(t, protoerr.KindParseError, perr.Kind())
	assert.Equal(t, -32700, perr.Kind().Code())
}

func TestDecodeBytes_MissingMethodIsInvalidRequest(t *testing.T) {
	_, perr := DecodeBytes([]byte(`{"jsonrpc":"2.0","id":1}`))
	require.NotNil(t, perr)
	assert.Equal(t, protoerr.KindInvalidRequest, perr.Kind())
}

func TestDecodeBytes_BadVersionIsInvalidRequest(t *testing.T) {
	_, perr := DecodeBytes([]byte(`{"jsonrpc":"1.0","method":"ping"}`))
	require.NotNil(t, perr)
	assert.Equal(t, protoerr.KindInvalidRequest, perr.Kind())
}

func TestDecodeBytes_NonObjectIsInvalidRequest(t *testing.T) {
	_, perr := DecodeBytes([]byte(`[1,2,3]`))
	require.NotNil(t, perr)
	assert.Equal(t, protoerr.KindInvalidRequest, perr.Kind())
}

func TestEncodeSuccess_NullResultIsPreserved(t *testing.T) {
	resp, err := EncodeSuccess(json.RawMessage(`1`), nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(resp.Result))
}

func TestEncodeError_DataOmittedWhenAbsent(t *testing.T) {
	resp := EncodeError(json.RawMessage(`1`), protoerr.New(protoerr.KindMethodNotFound, ""), false)
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"data"`)
}

func TestEncodeError_ParseErrorHasNullID(t *testing.T) {
	resp := ParseErrorResponse([]byte(`{"jsonrpc":}`), false)
	assert.Nil(t, resp.ID)
	assert.Equal(t, -32700, resp.Error.Code)
}
