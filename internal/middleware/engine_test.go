// file: internal/middleware/engine_test.go
package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coreThatSetsResponse(v interface{}) Handler {
	return func(_ context.Context, rc *RequestContext) error {
		rc.SetResponse(v)
		return nil
	}
}

func TestEngine_OnionOrderingAndCoreRuns(t *testing.T) {
	var order []string
	trace := func(name string) Func {
		return func(next Handler) Handler {
			return func(ctx context.Context, rc *RequestContext) error {
				order = append(order, name+":pre")
				err := next(ctx, rc)
				order = append(order, name+":post")
				return err
			}
		}
	}

	e := New(nil)
	e.Use(trace("outer")).Use(trace("inner"))

	rc := &RequestContext{}
	err := e.Run(context.Background(), rc, coreThatSetsResponse("ok"))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer:pre", "inner:pre", "inner:post", "outer:post"}, order)
	assert.Equal(t, "ok", rc.Response)
}

func TestEngine_ShortCircuitSkipsCoreAndInnerStages(t *testing.T) {
	coreCalled := false
	core := func(_ context.Context, rc *RequestContext) error {
		coreCalled = true
		rc.SetResponse("should not happen")
		return nil
	}

	shortCircuit := func(next Handler) Handler {
		return func(_ context.Context, rc *RequestContext) error {
			rc.SetResponse("short-circuited")
			return nil
		}
	}

	e := New(nil)
	e.Use(shortCircuit)

	rc := &RequestContext{}
	err := e.Run(context.Background(), rc, core)
	require.NoError(t, err)
	assert.False(t, coreCalled)
	assert.Equal(t, "short-circuited", rc.Response)
}

func TestEngine_NoResponseWrittenIsInternalError(t *testing.T) {
	noop := func(_ context.Context, _ *RequestContext) error { return nil }
	e := New(nil)
	err := e.Run(context.Background(), &RequestContext{}, noop)
	require.Error(t, err)
}

func TestEngine_MiddlewareErrorAttributesIndex(t *testing.T) {
	failing := func(next Handler) Handler {
		return func(ctx context.Context, rc *RequestContext) error {
			return errors.New("boom")
		}
	}

	e := New(nil)
	e.Use(func(next Handler) Handler { return next }).Use(failing)

	err := e.Run(context.Background(), &RequestContext{}, coreThatSetsResponse("unused"))
	require.Error(t, err)
	var me *MiddlewareError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 1, me.Index)
}

func TestEngine_ReentrantRunIsRejected(t *testing.T) {
	e := New(nil)
	rc := &RequestContext{}

	var innerErr error
	blocking := func(next Handler) Handler {
		return func(ctx context.Context, rc *RequestContext) error {
			innerErr = e.Run(ctx, rc, coreThatSetsResponse("nested"))
			return next(ctx, rc)
		}
	}
	e.Use(blocking)

	err := e.Run(context.Background(), rc, coreThatSetsResponse("outer"))
	require.NoError(t, err)
	require.Error(t, innerErr)
}

func TestEngine_DoubleNextCallIsRejectedNotReexecuted(t *testing.T) {
	var coreCalls int
	core := func(_ context.Context, rc *RequestContext) error {
		coreCalls++
		rc.SetResponse("ok")
		return nil
	}

	var firstErr, secondErr error
	callsNextTwice := func(next Handler) Handler {
		return func(ctx context.Context, rc *RequestContext) error {
			firstErr = next(ctx, rc)
			secondErr = next(ctx, rc)
			return firstErr
		}
	}

	e := New(nil)
	e.Use(callsNextTwice)

	err := e.Run(context.Background(), &RequestContext{}, core)
	require.NoError(t, err)
	require.NoError(t, firstErr)
	require.Error(t, secondErr)

	var re *ReentrantCallError
	require.ErrorAs(t, secondErr, &re)
	assert.Equal(t, 0, re.Index)
	assert.Equal(t, 1, coreCalls, "core must run exactly once even though next was called twice")
}

func TestEngine_TimeoutSurfacesMiddlewareTimeoutError(t *testing.T) {
	slow := func(next Handler) Handler {
		return func(ctx context.Context, rc *RequestContext) error {
			time.Sleep(50 * time.Millisecond)
			return next(ctx, rc)
		}
	}

	e := New(nil)
	e.Use(slow)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	err := e.Run(ctx, &RequestContext{}, coreThatSetsResponse("too late"))
	require.Error(t, err)
	var te *MiddlewareTimeoutError
	require.ErrorAs(t, err, &te)
}
