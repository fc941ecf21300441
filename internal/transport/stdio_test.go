// file: internal/transport/stdio_test.go
package transport

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdioTransport_EchoesOneResponsePerLine(t *testing.T) {
	input := strings.NewReader("{\"a\":1}\n{\"b\":2}\n")
	var out bytes.Buffer

	tr := NewStdioTransport(input, &out, nil)

	var received [][]byte
	dispatch := func(_ context.Context, raw []byte) ([]byte, bool, error) {
		cp := append([]byte(nil), raw...)
		received = append(received, cp)
		return append([]byte("resp:"), raw...), true, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- tr.Start(ctx, dispatch) }()

	require.Eventually(t, func() bool {
		return strings.Count(out.String(), "\n") >= 2
	}, time.Second, time.Millisecond)

	require.NoError(t, tr.Stop())
	<-done

	require.Len(t, received, 2)
	assert.Equal(t, `{"a":1}`, string(received[0]))
	assert.Equal(t, `{"b":2}`, string(received[1]))
	assert.Contains(t, out.String(), `resp:{"a":1}`)
	assert.Contains(t, out.String(), `resp:{"b":2}`)
}

func TestStdioTransport_NotificationProducesNoOutput(t *testing.T) {
	input := strings.NewReader("{\"notif\":true}\n")
	var out bytes.Buffer

	tr := NewStdioTransport(input, &out, nil)
	dispatch := func(_ context.Context, _ []byte) ([]byte, bool, error) {
		return nil, false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = tr.Start(ctx, dispatch)

	assert.Empty(t, out.String())
}

func TestStdioTransport_BlankLineRoutesThroughDispatch(t *testing.T) {
	input := strings.NewReader("\n")
	var out bytes.Buffer

	tr := NewStdioTransport(input, &out, nil)
	var sawBlank bool
	dispatch := func(_ context.Context, raw []byte) ([]byte, bool, error) {
		if len(raw) == 0 {
			sawBlank = true
		}
		return []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"parse error"}}`), true, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- tr.Start(ctx, dispatch) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "parse error")
	}, time.Second, time.Millisecond)

	require.NoError(t, tr.Stop())
	<-done
	assert.True(t, sawBlank, "blank line must reach dispatch instead of being dropped")
}

func TestStdioTransport_SecondStartIsRejected(t *testing.T) {
	tr := NewStdioTransport(strings.NewReader(""), &bytes.Buffer{}, nil)
	dispatch := func(context.Context, []byte) ([]byte, bool, error) { return nil, false, nil }

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- tr.Start(ctx, dispatch) }()
	require.Eventually(t, func() bool { return tr.started.Load() }, time.Second, time.Millisecond)

	err := tr.Start(context.Background(), dispatch)
	require.Error(t, err)

	require.NoError(t, tr.Stop())
	<-done
}

func TestOrchestrator_CollectsPartialStartFailures(t *testing.T) {
	ok := NewStdioTransport(strings.NewReader(""), &bytes.Buffer{}, nil)
	failing := &failingTransport{name: "bad"}

	o := NewOrchestrator(nil, ok, failing)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	result := o.Run(ctx, func(_ context.Context, _ []byte) ([]byte, bool, error) {
		return nil, false, nil
	})

	require.NotNil(t, result)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "bad", result.Failures[0].Transport)
	assert.Equal(t, 1, result.SucceededCount)
	assert.Equal(t, 2, result.TotalCount)
}

type failingTransport struct{ name string }

func (f *failingTransport) Name() string { return f.name }
func (f *failingTransport) Start(context.Context, Dispatch) error {
	return assert.AnError
}
func (f *failingTransport) Stop() error { return nil }
