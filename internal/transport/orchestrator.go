// file: internal/transport/orchestrator.go
package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkoosis/mcpkit/internal/logging"
)

// StartFailure pairs a transport name with the error its Start returned, so
// a caller starting several transports can see exactly which ones failed.
type StartFailure struct {
	Transport string
	Err       error
}

// TransportOrchestrationError reports which transports failed to start
// out of the whole fleet (spec.md §4.8). A nil *TransportOrchestrationError
// means every transport started and ran to completion cleanly.
type TransportOrchestrationError struct {
	Failures       []StartFailure
	SucceededCount int
	TotalCount     int
}

func (e *TransportOrchestrationError) Error() string {
	return fmt.Sprintf("%d/%d transports failed to start", len(e.Failures), e.TotalCount)
}

// Orchestrator runs several Transports concurrently, collecting partial
// start failures rather than aborting the whole fleet when one fails
// (spec.md §4.8).
type Orchestrator struct {
	logger     logging.Logger
	transports []Transport
}

// NewOrchestrator builds an Orchestrator over the given transports.
func NewOrchestrator(logger logging.Logger, transports ...Transport) *Orchestrator {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &Orchestrator{
		logger:     logger.WithField("component", "transport_orchestrator"),
		transports: transports,
	}
}

// Run starts every transport with dispatch and blocks until all of them
// return (normally via ctx cancellation, or because Stop was called).
// Failures are collected and returned together rather than aborting the
// transports that started successfully.
func (o *Orchestrator) Run(ctx context.Context, dispatch Dispatch) *TransportOrchestrationError {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []StartFailure

	for _, t := range o.transports {
		wg.Add(1)
		go func(t Transport) {
			defer wg.Done()
			if err := t.Start(ctx, dispatch); err != nil {
				o.logger.Error("transport exited with error", "transport", t.Name(), "error", err)
				mu.Lock()
				failures = append(failures, StartFailure{Transport: t.Name(), Err: err})
				mu.Unlock()
			}
		}(t)
	}

	wg.Wait()
	if len(failures) == 0 {
		return nil
	}
	return &TransportOrchestrationError{
		Failures:       failures,
		SucceededCount: len(o.transports) - len(failures),
		TotalCount:     len(o.transports),
	}
}

// Stop stops every transport, collecting (not short-circuiting on) any
// individual Stop errors.
func (o *Orchestrator) Stop() error {
	var mu sync.Mutex
	var errs []error

	var wg sync.WaitGroup
	for _, t := range o.transports {
		wg.Add(1)
		go func(t Transport) {
			defer wg.Done()
			if err := t.Stop(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
				mu.Unlock()
			}
		}(t)
	}
	wg.Wait()

	if len(errs) == 0 {
		return nil
	}
	combined := errs[0]
	for _, e := range errs[1:] {
		combined = fmt.Errorf("%w; %w", combined, e)
	}
	return combined
}
