// file: internal/lifecycle/machine.go
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/dkoosis/mcpkit/internal/fsm"
	"github.com/dkoosis/mcpkit/internal/logging"
	"github.com/dkoosis/mcpkit/internal/protoerr"
)

// Listener receives lifecycle notifications. A Listener must not block; a
// panicking or slow listener must never affect state (spec.md §3).
type Listener func(n Notification)

// Manager owns the MCP handshake state machine for one server instance. It
// embeds the generic fsm.FSM, adds the one-shot hasBeenInitialized flag that
// survives a shutdown-to-IDLE reset, and fans transitions out to
// subscribed listeners.
type Manager struct {
	fsm.FSM
	logger logging.Logger

	mu                 sync.RWMutex
	hasBeenInitialized bool
	listeners          []Listener
}

// NewManager builds a Manager wired with the spec.md §3 transition table,
// starting in IDLE.
func NewManager(logger logging.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	log := logger.WithField("component", "lifecycle_manager")

	m := &Manager{logger: log}

	builder := fsm.NewFSM(StateIdle, log)
	builder.AddTransition(fsm.Transition{
		From: []fsm.State{StateIdle}, Event: EventInitializeAccepted, To: StateInitializing,
		Action: m.onInitializeAccepted,
	})
	builder.AddTransition(fsm.Transition{
		From: []fsm.State{StateInitializing}, Event: EventInitializationFailed, To: StateIdle,
		Action: m.onInitializationFailed,
	})
	builder.AddTransition(fsm.Transition{
		From: []fsm.State{StateInitializing}, Event: EventClientInitialized, To: StateReady,
		Action: m.onClientInitialized,
	})
	// READY -> SHUTTING_DOWN -> IDLE collapses to one hop: there is no
	// asynchronous drain step between the two, so the transition lands
	// directly on IDLE. Repeat shutdown from any other state is idempotent
	// per spec.md §3's transition table.
	builder.AddTransition(fsm.Transition{
		From:   []fsm.State{StateReady, StateIdle, StateInitializing, StateShuttingDown},
		Event:  EventShutdown,
		To:     StateIdle,
		Action: m.onShutdown,
	})

	if err := builder.Build(); err != nil {
		return nil, errors.Wrap(err, "failed to build lifecycle state machine")
	}
	m.FSM = builder
	return m, nil
}

// Subscribe registers a Listener for lifecycle Notifications. Listener
// panics are recovered so a faulty listener cannot corrupt a transition.
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Manager) emit(n Notification) {
	m.mu.RLock()
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.RUnlock()

	for _, l := range listeners {
		m.notifyOne(l, n)
	}
}

func (m *Manager) notifyOne(l Listener, n Notification) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("lifecycle listener panicked", "recovered", r, "kind", n.Kind)
		}
	}()
	l(n)
}

func (m *Manager) onInitializeAccepted(_ context.Context, _ fsm.Event, _ interface{}) error {
	m.emit(Notification{Kind: NotifyInitializationStarted, From: StateIdle, To: StateInitializing})
	m.emit(Notification{Kind: NotifyStateChanged, From: StateIdle, To: StateInitializing})
	return nil
}

func (m *Manager) onInitializationFailed(_ context.Context, _ fsm.Event, _ interface{}) error {
	m.emit(Notification{Kind: NotifyInitializationFailed, From: StateInitializing, To: StateIdle})
	m.emit(Notification{Kind: NotifyStateChanged, From: StateInitializing, To: StateIdle})
	return nil
}

func (m *Manager) onClientInitialized(_ context.Context, _ fsm.Event, _ interface{}) error {
	m.mu.Lock()
	m.hasBeenInitialized = true
	m.mu.Unlock()
	m.emit(Notification{Kind: NotifyInitializationCompleted, From: StateInitializing, To: StateReady})
	m.emit(Notification{Kind: NotifyReady, From: StateInitializing, To: StateReady})
	m.emit(Notification{Kind: NotifyStateChanged, From: StateInitializing, To: StateReady})
	return nil
}

// onShutdown runs once the machine has already landed on IDLE, so the
// pre-shutdown state arrives as the transition's data (see Shutdown).
func (m *Manager) onShutdown(_ context.Context, _ fsm.Event, data interface{}) error {
	from, _ := data.(fsm.State)
	m.emit(Notification{Kind: NotifyShutdownStarted, From: from, To: StateShuttingDown})
	m.emit(Notification{Kind: NotifyShutdownCompleted, From: StateShuttingDown, To: StateIdle})
	m.emit(Notification{Kind: NotifyStateChanged, From: from, To: StateIdle})
	return nil
}

// AcceptInitialize drives IDLE -> INITIALIZING. Returns AlreadyInitialized
// if called from INITIALIZING or READY (spec.md §4.9).
func (m *Manager) AcceptInitialize(ctx context.Context) error {
	switch m.CurrentState() {
	case StateInitializing, StateReady:
		return protoerr.New(protoerr.KindAlreadyInitialized, "")
	}
	return m.Transition(ctx, EventInitializeAccepted, nil)
}

// FailInitialization drives INITIALIZING -> IDLE after an initialize-time
// exception (e.g. unsupported protocol version).
func (m *Manager) FailInitialization(ctx context.Context) error {
	return m.Transition(ctx, EventInitializationFailed, nil)
}

// AcceptClientInitialized drives INITIALIZING -> READY. Any other state is
// an explicit error (spec.md §4.9).
func (m *Manager) AcceptClientInitialized(ctx context.Context) error {
	if m.CurrentState() != StateInitializing {
		return protoerr.WithDetails(protoerr.KindLifecycleViolation,
			fmt.Sprintf("notifications/initialized received in state %q", m.CurrentState()), nil)
	}
	return m.Transition(ctx, EventClientInitialized, nil)
}

// Shutdown drives the current state to IDLE via SHUTTING_DOWN, idempotently:
// a shutdown while already IDLE is a no-op that returns nil.
func (m *Manager) Shutdown(ctx context.Context) error {
	from := m.CurrentState()
	if from == StateIdle {
		return nil
	}
	return m.Transition(ctx, EventShutdown, from)
}

// HasBeenInitialized reports the one-shot flag that survives a
// shutdown-to-IDLE reset, distinguishing post-shutdown requests from
// pre-init requests (spec.md §3).
func (m *Manager) HasBeenInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasBeenInitialized
}

// ValidateOperation implements the validateOperation(method) helper of
// spec.md §3: while not READY, only ping and initialize are admissible.
// Returns a distinct protoerr Kind for pre-init, wrong-state, and
// post-shutdown cases (spec.md §7).
func (m *Manager) ValidateOperation(method string) error {
	state := m.CurrentState()
	if state == StateReady {
		return nil
	}
	if method == "ping" || method == "initialize" {
		return nil
	}

	m.mu.RLock()
	everInitialized := m.hasBeenInitialized
	m.mu.RUnlock()

	if state == StateIdle && everInitialized {
		return protoerr.New(protoerr.KindAfterShutdown, "")
	}
	if state == StateIdle {
		return protoerr.New(protoerr.KindNotInitialized, "")
	}
	return protoerr.WithDetails(protoerr.KindLifecycleViolation,
		fmt.Sprintf("method %q not allowed in state %q", method, state),
		map[string]interface{}{"method": method, "state": string(state)})
}
