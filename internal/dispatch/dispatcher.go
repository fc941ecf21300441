// Package dispatch implements the Dispatcher of spec.md §4.5: the glue that
// takes one raw transport frame, runs it through the request gate and the
// middleware engine, and routes whatever survives to the handshake
// handlers or a primitive registry.
// file: internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkoosis/mcpkit/internal/cache"
	"github.com/dkoosis/mcpkit/internal/config"
	"github.com/dkoosis/mcpkit/internal/gate"
	"github.com/dkoosis/mcpkit/internal/handshake"
	"github.com/dkoosis/mcpkit/internal/jsonrpc"
	"github.com/dkoosis/mcpkit/internal/lifecycle"
	"github.com/dkoosis/mcpkit/internal/logging"
	"github.com/dkoosis/mcpkit/internal/middleware"
	"github.com/dkoosis/mcpkit/internal/protoerr"
	"github.com/dkoosis/mcpkit/internal/registry"
	"github.com/dkoosis/mcpkit/internal/validation"
	"github.com/dkoosis/mcpkit/pkg/mcp"
)

// resourceCacheSize and resourceCacheTTL bound the resources/read LRU
// cache front-ending resource handlers (spec.md §4.7).
const (
	resourceCacheSize = 256
	resourceCacheTTL  = 5 * time.Minute
)

// Dispatcher couples the lifecycle manager, request gate, middleware
// engine, handshake handlers, and primitive registries into the single
// entry point a transport's Dispatch callback invokes per frame
// (spec.md §4.5).
type Dispatcher struct {
	Manager    *lifecycle.Manager
	Registries *registry.Set
	Handshake  *handshake.Handlers
	Engine     *middleware.Engine
	Settings   *config.Settings
	Schemas    *validation.SchemaValidator
	Resources  *cache.ResourceStore
	logger     logging.Logger
}

// New builds a Dispatcher over the given components. engine may be nil,
// in which case an empty one (no registered middleware) is used.
func New(mgr *lifecycle.Manager, registries *registry.Set, hs *handshake.Handlers, engine *middleware.Engine, settings *config.Settings, logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	if engine == nil {
		engine = middleware.New(logger)
	}
	return &Dispatcher{
		Manager:    mgr,
		Registries: registries,
		Handshake:  hs,
		Engine:     engine,
		Settings:   settings,
		Schemas:    validation.New(logger),
		Resources:  cache.NewResourceStore(resourceCacheSize, resourceCacheTTL),
		logger:     logger.WithField("component", "dispatcher"),
	}
}

// Dispatch implements internal/transport.Dispatch: decode, gate, run the
// middleware chain around coreDispatch, and encode whatever response (if
// any) results.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) ([]byte, bool, error) {
	debug := d.Settings != nil && d.Settings.Debug

	msg, decodeErr := jsonrpc.DecodeBytes(raw)
	if decodeErr != nil {
		id := extractID(raw)
		// id is nil both when absent and when unrecoverable; either way a
		// ParseError/malformed frame responds with a literal null id
		// (spec.md §4.1).
		return encodeResponse(jsonrpc.EncodeError(id, decodeErr, debug))
	}

	switch {
	case msg.IsRequest():
		return d.dispatchRequest(ctx, msg, debug)
	case msg.IsNotification():
		d.dispatchNotification(ctx, msg)
		return nil, false, nil
	default:
		// Decoding rejects frames without a method (bare response frames
		// included), so every decoded message is a request or a
		// notification; nothing to route or answer here.
		return nil, false, nil
	}
}

func (d *Dispatcher) dispatchRequest(ctx context.Context, msg *jsonrpc.Message, debug bool) ([]byte, bool, error) {
	state := d.Manager.CurrentState()
	if admitErr := gate.Admit(state, msg.Method, d.Manager.HasBeenInitialized()); admitErr != nil {
		return encodeResponse(jsonrpc.EncodeError(msg.ID, admitErr, debug))
	}

	rc := &middleware.RequestContext{
		Method: msg.Method,
		Params: msg.Params,
		Handler: &mcp.HandlerContext{
			RequestID: msg.ID,
			State:     map[string]interface{}{},
		},
	}

	if err := d.Engine.Run(ctx, rc, d.coreDispatch); err != nil {
		return encodeResponse(jsonrpc.EncodeError(msg.ID, err, debug))
	}
	if !rc.Handled() {
		return encodeResponse(jsonrpc.EncodeError(msg.ID,
			protoerr.New(protoerr.KindInternalError, "no response written for request"), debug))
	}
	success, err := jsonrpc.EncodeSuccess(msg.ID, rc.Response)
	if err != nil {
		return encodeResponse(jsonrpc.EncodeError(msg.ID, err, debug))
	}
	return encodeResponse(success)
}

// dispatchNotification runs a notification through the same gate and
// middleware chain but never produces a response, regardless of outcome
// (spec.md §3, §8): failures are logged, not returned to the transport.
func (d *Dispatcher) dispatchNotification(ctx context.Context, msg *jsonrpc.Message) {
	state := d.Manager.CurrentState()
	if admitErr := gate.Admit(state, msg.Method, d.Manager.HasBeenInitialized()); admitErr != nil {
		d.logger.Debug("notification rejected by gate", "method", msg.Method, "error", admitErr)
		return
	}

	rc := &middleware.RequestContext{
		Method: msg.Method,
		Params: msg.Params,
		Handler: &mcp.HandlerContext{
			State: map[string]interface{}{},
		},
	}
	if err := d.Engine.Run(ctx, rc, d.coreDispatchNotification); err != nil {
		d.logger.Error("notification handling failed", "method", msg.Method, "error", err)
	}
}

// coreDispatch is the innermost Handler the middleware chain wraps: it
// routes a request by method to the handshake handlers, ping, or one of
// the three primitive registries (spec.md §4.5 step 6).
func (d *Dispatcher) coreDispatch(ctx context.Context, rc *middleware.RequestContext) error {
	switch rc.Method {
	case "initialize":
		result, err := d.Handshake.Initialize(ctx, rc.Params)
		if err != nil {
			return err
		}
		rc.SetResponse(result)
		return nil

	case "shutdown":
		result, err := d.Handshake.Shutdown(ctx, rc.Params)
		if err != nil {
			return err
		}
		rc.SetResponse(result)
		return nil

	case "ping":
		rc.SetResponse(map[string]interface{}{"pong": true})
		return nil

	case "tools/list":
		return d.handleToolsList(rc)
	case "tools/call":
		return d.handleToolsCall(ctx, rc)

	case "resources/list":
		return d.handleResourcesList(rc)
	case "resources/read":
		return d.handleResourcesRead(ctx, rc)
	case "resources/subscribe":
		// Subscriptions are advertised in capabilities but have no
		// server-push transport wired yet; acknowledge without state.
		rc.SetResponse(map[string]interface{}{})
		return nil

	case "prompts/list":
		return d.handlePromptsList(rc)
	case "prompts/get":
		return d.handlePromptsGet(ctx, rc)

	default:
		return protoerr.WithDetails(protoerr.KindMethodNotFound, "", map[string]interface{}{
			"method": rc.Method,
		})
	}
}

// coreDispatchNotification routes the one notification method the
// lifecycle manager itself consumes; any other notification is accepted
// silently (spec.md §3: unknown notifications are not errors).
func (d *Dispatcher) coreDispatchNotification(ctx context.Context, rc *middleware.RequestContext) error {
	if rc.Method == "notifications/initialized" {
		if err := d.Handshake.ClientInitialized(ctx); err != nil {
			return err
		}
	}
	rc.SetResponse(nil)
	return nil
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, rc *middleware.RequestContext) error {
	var params toolCallParams
	if len(rc.Params) == 0 {
		return protoerr.New(protoerr.KindInvalidParams, "missing params")
	}
	if err := json.Unmarshal(rc.Params, &params); err != nil {
		return protoerr.Wrap(protoerr.KindInvalidParams, err, "malformed tools/call params")
	}
	def, ok := d.Registries.Tools.Lookup(params.Name)
	if !ok {
		return protoerr.WithDetails(protoerr.KindInvalidParams, "unknown tool",
			map[string]interface{}{"name": params.Name})
	}
	if err := d.Schemas.Validate(def.Name, def.InputSchema, params.Arguments); err != nil {
		return err
	}
	result, err := def.Handler(ctx, rc.Handler, params.Arguments)
	if err != nil {
		return err
	}
	rc.SetResponse(result)
	return nil
}

func (d *Dispatcher) handleToolsList(rc *middleware.RequestContext) error {
	cursor, err := cursorParam(rc.Params)
	if err != nil {
		return err
	}
	page, err := d.Registries.Tools.List(cursor)
	if err != nil {
		return err
	}
	rc.SetResponse(map[string]interface{}{
		"tools":      page.Items,
		"nextCursor": omitEmpty(page.NextCursor),
	})
	return nil
}

type resourceReadParams struct {
	URI string `json:"uri"`
}

func (d *Dispatcher) handleResourcesRead(ctx context.Context, rc *middleware.RequestContext) error {
	var params resourceReadParams
	if len(rc.Params) == 0 {
		return protoerr.New(protoerr.KindInvalidParams, "missing params")
	}
	if err := json.Unmarshal(rc.Params, &params); err != nil {
		return protoerr.Wrap(protoerr.KindInvalidParams, err, "malformed resources/read params")
	}
	if d.Resources != nil {
		if hit, ok := d.Resources.Get(ctx, params.URI); ok {
			if content, ok := hit.Data.(*mcp.ResourceContent); ok {
				rc.SetResponse(map[string]interface{}{"contents": []*mcp.ResourceContent{content}})
				return nil
			}
		}
	}

	def, err := d.Registries.Resources.Lookup(params.URI)
	if err != nil {
		return err
	}
	content, err := def.Handler(ctx, rc.Handler, params.URI)
	if err != nil {
		return err
	}
	if d.Resources != nil {
		d.Resources.Put(params.URI, content, map[string]interface{}{"mimeType": content.MimeType})
	}
	rc.SetResponse(map[string]interface{}{"contents": []*mcp.ResourceContent{content}})
	return nil
}

func (d *Dispatcher) handleResourcesList(rc *middleware.RequestContext) error {
	cursor, err := cursorParam(rc.Params)
	if err != nil {
		return err
	}
	page, err := d.Registries.Resources.List(cursor)
	if err != nil {
		return err
	}
	rc.SetResponse(map[string]interface{}{
		"resources":  page.Items,
		"nextCursor": omitEmpty(page.NextCursor),
	})
	return nil
}

type promptGetParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

func (d *Dispatcher) handlePromptsGet(ctx context.Context, rc *middleware.RequestContext) error {
	var params promptGetParams
	if len(rc.Params) == 0 {
		return protoerr.New(protoerr.KindInvalidParams, "missing params")
	}
	if err := json.Unmarshal(rc.Params, &params); err != nil {
		return protoerr.Wrap(protoerr.KindInvalidParams, err, "malformed prompts/get params")
	}
	def, ok := d.Registries.Prompts.Lookup(params.Name)
	if !ok {
		return protoerr.WithDetails(protoerr.KindInvalidParams, "unknown prompt",
			map[string]interface{}{"name": params.Name})
	}
	messages, err := def.Handler(ctx, rc.Handler, params.Arguments)
	if err != nil {
		return err
	}
	rc.SetResponse(map[string]interface{}{"messages": messages})
	return nil
}

func (d *Dispatcher) handlePromptsList(rc *middleware.RequestContext) error {
	cursor, err := cursorParam(rc.Params)
	if err != nil {
		return err
	}
	page, err := d.Registries.Prompts.List(cursor)
	if err != nil {
		return err
	}
	rc.SetResponse(map[string]interface{}{
		"prompts":    page.Items,
		"nextCursor": omitEmpty(page.NextCursor),
	})
	return nil
}

type cursorParams struct {
	Cursor string `json:"cursor"`
}

func cursorParam(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var p cursorParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", protoerr.Wrap(protoerr.KindInvalidParams, err, "malformed cursor param")
	}
	return p.Cursor, nil
}

func omitEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func encodeResponse(resp *jsonrpc.Response) ([]byte, bool, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, false, protoerr.Wrap(protoerr.KindInternalError, err, "failed to marshal response")
	}
	return raw, true, nil
}

// extractID best-effort parses an id out of an otherwise-invalid frame, so
// a malformed-but-id-bearing request still gets its id echoed back rather
// than defaulting to null (spec.md §4.1).
func extractID(raw []byte) json.RawMessage {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil
	}
	return probe.ID
}
