// Package middleware implements the onion-composed middleware pipeline of
// spec.md §4.4: a chain of (ctx, next) functions wrapping a core dispatch,
// with short-circuit, reentrancy detection, failure attribution, and a
// per-request timeout.
// file: internal/middleware/engine.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dkoosis/mcpkit/internal/logging"
	"github.com/dkoosis/mcpkit/internal/protoerr"
	"github.com/dkoosis/mcpkit/pkg/mcp"
)

// RequestContext is threaded through one request's middleware run: the
// decoded request, the response the chain (or core) eventually writes, and
// a state bag middlewares use to pass data downstream (spec.md §4.5's
// ctx.state).
type RequestContext struct {
	Method  string
	Params  []byte
	Handler *mcp.HandlerContext

	Response interface{}
	handled  bool

	// token is a per-run reentrancy guard: Engine.Run stamps it once, and a
	// recursive call to Run on the same RequestContext is rejected rather
	// than silently re-entering the chain.
	token atomic.Value // string
}

// SetResponse records the chain's final result. Calling it marks the
// request as handled; the first call wins.
func (rc *RequestContext) SetResponse(v interface{}) {
	if !rc.handled {
		rc.Response = v
		rc.handled = true
	}
}

// Handled reports whether some middleware or the core handler has already
// written a response.
func (rc *RequestContext) Handled() bool { return rc.handled }

// Handler is one link of the chain: given a RequestContext, produce (or
// decline to produce) its response.
type Handler func(ctx context.Context, rc *RequestContext) error

// Func is a single middleware: it wraps next, the rest of the chain, and
// returns a Handler that runs its own pre-segment, optionally calls next,
// then runs its post-segment. Not calling next is the chain's short-circuit
// (spec.md §4.4).
type Func func(next Handler) Handler

// MiddlewareError attributes a failing Func to its registration index, so a
// caller can identify which middleware broke the chain.
type MiddlewareError struct {
	Index int
	Cause error
}

func (e *MiddlewareError) Error() string {
	return fmt.Sprintf("middleware[%d]: %s", e.Index, e.Cause)
}
func (e *MiddlewareError) Unwrap() error { return e.Cause }

// MiddlewareTimeoutError reports that a request's deadline elapsed while
// suspended inside middleware index Index (spec.md §4.4).
type MiddlewareTimeoutError struct {
	TimeoutMs int64
	Index     int
}

func (e *MiddlewareTimeoutError) Error() string {
	return fmt.Sprintf("middleware timeout after %dms at index %d", e.TimeoutMs, e.Index)
}

// ReentrantCallError reports that a single middleware invoked its own next
// more than once within one execution. Each stage tracks a single-flight
// token per next invocation (spec.md §4.4/§9); the second call flips it and
// this is thrown instead of letting the downstream chain run twice.
type ReentrantCallError struct {
	Index       int
	ExecutionID string
}

func (e *ReentrantCallError) Error() string {
	return fmt.Sprintf("middleware[%d] called next more than once in execution %s", e.Index, e.ExecutionID)
}

// Engine composes registered middleware, in registration order, around a
// core dispatch handler.
type Engine struct {
	chain  []Func
	logger logging.Logger
}

// New constructs an Engine with no middleware registered.
func New(logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &Engine{logger: logger.WithField("component", "middleware_engine")}
}

// Use appends mw to the chain; the first-registered middleware is
// outermost.
func (e *Engine) Use(mw Func) *Engine {
	e.chain = append(e.chain, mw)
	return e
}

// Run composes the registered chain around core and executes it against rc.
// A deadline on ctx, if any, is enforced as the request-wide timeout; the
// depth at which the deadline fires is reported on MiddlewareTimeoutError.
func (e *Engine) Run(ctx context.Context, rc *RequestContext, core Handler) error {
	start := time.Now()
	runToken := uuid.New().String()
	if prior, ok := rc.token.Load().(string); ok && prior != "" {
		return protoerr.New(protoerr.KindInternalError, "reentrant middleware invocation on one RequestContext")
	}
	rc.token.Store(runToken)
	defer rc.token.Store("")

	var depth int32 = int32(len(e.chain))
	handler := e.wrapCore(core)
	for i := len(e.chain) - 1; i >= 0; i-- {
		handler = e.wrapStage(i, e.chain[i], handler, &depth, runToken)
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- protoerr.WithDetails(protoerr.KindInternalError,
					"middleware chain panicked", map[string]interface{}{"recovered": fmt.Sprint(r)})
			}
		}()
		done <- handler(ctx, rc)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if deadline, ok := ctx.Deadline(); ok {
			return &MiddlewareTimeoutError{
				TimeoutMs: deadline.Sub(start).Milliseconds(),
				Index:     int(atomic.LoadInt32(&depth)),
			}
		}
		return ctx.Err()
	}
}

// wrapStage instruments one registered middleware so a returned error is
// attributed to its index, its entry records its index as the "deepest
// pending next" depth marker used by timeout reporting (nothing resets it
// on exit), and a second call to next
// from within mw's own body is rejected with ReentrantCallError instead of
// silently re-running the downstream chain.
func (e *Engine) wrapStage(index int, mw Func, next Handler, depth *int32, executionID string) Handler {
	var calledOnce atomic.Bool
	guardedNext := func(ctx context.Context, rc *RequestContext) error {
		if !calledOnce.CompareAndSwap(false, true) {
			return &ReentrantCallError{Index: index, ExecutionID: executionID}
		}
		atomic.StoreInt32(depth, int32(index))
		return next(ctx, rc)
	}

	instrumented := mw(guardedNext)
	return func(ctx context.Context, rc *RequestContext) error {
		atomic.StoreInt32(depth, int32(index))
		if err := instrumented(ctx, rc); err != nil {
			var re *ReentrantCallError
			if errors.As(err, &re) {
				return re
			}
			var me *MiddlewareError
			if ok := asMiddlewareError(err, &me); ok {
				return me
			}
			return &MiddlewareError{Index: index, Cause: err}
		}
		return nil
	}
}

func (e *Engine) wrapCore(core Handler) Handler {
	return func(ctx context.Context, rc *RequestContext) error {
		if err := core(ctx, rc); err != nil {
			return err
		}
		if !rc.Handled() {
			return protoerr.New(protoerr.KindInternalError, "no response written by chain or core dispatch")
		}
		return nil
	}
}

func asMiddlewareError(err error, target **MiddlewareError) bool {
	if me, ok := err.(*MiddlewareError); ok {
		*target = me
		return true
	}
	return false
}
