// file: internal/lifecycle/events.go
package lifecycle

import "github.com/dkoosis/mcpkit/internal/fsm"

// Lifecycle-driving events, per spec.md §3's transition table.
const (
	EventInitializeAccepted   fsm.Event = "initialize_accepted"
	EventInitializationFailed fsm.Event = "initialization_failed"
	EventClientInitialized    fsm.Event = "client_initialized"
	EventShutdown             fsm.Event = "shutdown"
)

// NotificationKind distinguishes the lifecycle events a Manager publishes to
// subscribed listeners (spec.md §3) from the fsm.Event values that drive
// transitions internally.
type NotificationKind string

const (
	NotifyStateChanged            NotificationKind = "STATE_CHANGED"
	NotifyInitializationStarted   NotificationKind = "INITIALIZATION_STARTED"
	NotifyInitializationCompleted NotificationKind = "INITIALIZATION_COMPLETED"
	NotifyInitializationFailed    NotificationKind = "INITIALIZATION_FAILED"
	NotifyReady                   NotificationKind = "READY"
	NotifyShutdownStarted         NotificationKind = "SHUTDOWN_STARTED"
	NotifyShutdownCompleted       NotificationKind = "SHUTDOWN_COMPLETED"
)

// Notification is delivered to listeners subscribed via Manager.Subscribe.
type Notification struct {
	Kind     NotificationKind
	From, To fsm.State
}
