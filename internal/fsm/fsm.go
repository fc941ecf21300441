// Package fsm is a small builder over github.com/looplab/fsm: declare states,
// events, guards and actions as a list of Transition values, Build() once,
// then drive it with Transition(ctx, event, data).
// file: internal/fsm/fsm.go
package fsm

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	lfsm "github.com/looplab/fsm"

	"github.com/dkoosis/mcpkit/internal/logging"
)

type State string

type Event string

// TransitionAction runs after a transition lands on its destination state.
type TransitionAction func(ctx context.Context, event Event, data interface{}) error

// GuardCondition runs before a transition is allowed to fire; returning
// false cancels it.
type GuardCondition func(ctx context.Context, event Event, data interface{}) bool

// Transition declares one edge of the machine: From (possibly several
// source states) to To on Event, with an optional guard and action.
type Transition struct {
	From      []State
	To        State
	Event     Event
	Action    TransitionAction
	Condition GuardCondition
}

// FSM is a builder: call AddTransition for each edge, then Build once
// before driving it with Transition/CurrentState.
type FSM interface {
	AddTransition(t Transition) FSM
	Build() error
	CurrentState() State
	Transition(ctx context.Context, event Event, data interface{}) error
}

// machine adapts a Transition list onto looplab/fsm's flat EventDesc/
// Callbacks shape.
type machine struct {
	initial     State
	logger      logging.Logger
	transitions []Transition

	mu       sync.RWMutex
	built    *lfsm.FSM
	buildErr error
}

// NewFSM returns a builder starting at initial. Transitions are collected
// by AddTransition and take effect once Build is called.
func NewFSM(initial State, logger logging.Logger) FSM {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &machine{
		initial: initial,
		logger:  logger.WithField("component", "fsm"),
	}
}

func (m *machine) AddTransition(t Transition) FSM {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.built != nil {
		m.buildErr = errors.New("cannot AddTransition after Build")
		return m
	}
	if len(t.From) == 0 {
		m.buildErr = errors.New("transition definition missing 'From' states")
		return m
	}
	m.transitions = append(m.transitions, t)
	return m
}

// Build compiles the stored transitions into a looplab/fsm.FSM. Calling
// Build again is a no-op that returns whatever the first call returned.
func (m *machine) Build() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.built != nil || m.buildErr != nil {
		return m.buildErr
	}

	events := make(map[string]lfsm.EventDesc)
	callbacks := make(lfsm.Callbacks)
	seenEvent := make(map[Event]bool)

	for i, t := range m.transitions {
		name := string(t.Event)
		dst := string(t.To)
		src := make([]string, len(t.From))
		for j, s := range t.From {
			src[j] = string(s)
		}

		desc, ok := events[name]
		if !ok {
			desc = lfsm.EventDesc{Name: name, Dst: dst}
		} else if desc.Dst != dst {
			m.buildErr = errors.Newf(
				"conflicting destinations ('%s' and '%s') for the same event ('%s')",
				desc.Dst, dst, name)
			return m.buildErr
		}
		desc.Src = append(desc.Src, src...)
		events[name] = desc

		if t.Condition != nil && !seenEvent[t.Event] {
			callbacks["before_"+name] = m.guardCallback(t)
		}
		if t.Action != nil {
			enterName := "enter_" + dst
			callbacks[enterName] = m.actionCallback(i, callbacks[enterName])
		}
		seenEvent[t.Event] = true
	}

	final := make([]lfsm.EventDesc, 0, len(events))
	for _, desc := range events {
		desc.Src = dedupe(desc.Src)
		final = append(final, desc)
	}

	m.built = lfsm.NewFSM(string(m.initial), final, callbacks)
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// guardCallback wraps t.Condition as a looplab "before_<event>" hook. The
// hook fires for every transition sharing the event name, so it first
// checks the firing source state actually belongs to t.From.
func (m *machine) guardCallback(t Transition) lfsm.Callback {
	return func(ctx context.Context, e *lfsm.Event) {
		if !containsState(t.From, e.Src) {
			return
		}
		if !t.Condition(ctx, t.Event, firstArg(e.Args)) {
			e.Cancel(errors.Newf("guard condition for event '%s' from state '%s' failed", t.Event, e.Src))
		}
	}
}

// actionCallback wraps t.Action (looked up by transitions[index]) as a
// looplab "enter_<state>" hook, chained behind any earlier action already
// registered for the same destination state.
func (m *machine) actionCallback(index int, chained lfsm.Callback) lfsm.Callback {
	return func(ctx context.Context, e *lfsm.Event) {
		m.mu.RLock()
		t := m.transitions[index]
		m.mu.RUnlock()

		if string(t.Event) == e.Event && containsState(t.From, e.Src) && t.Action != nil {
			if err := t.Action(ctx, t.Event, firstArg(e.Args)); err != nil {
				m.logger.Error("transition action failed", "event", t.Event, "to", t.To, "error", err)
			}
		}
		if chained != nil {
			chained(ctx, e)
		}
	}
}

func containsState(states []State, s string) bool {
	for _, st := range states {
		if string(st) == s {
			return true
		}
	}
	return false
}

func firstArg(args []interface{}) interface{} {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

func (m *machine) CurrentState() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.built == nil {
		return ""
	}
	return State(m.built.Current())
}

// Transition fires event with data visible to guards and actions for this
// hop. The underlying looplab/fsm.Event call is internally thread-safe.
func (m *machine) Transition(ctx context.Context, event Event, data interface{}) error {
	m.mu.RLock()
	built := m.built
	m.mu.RUnlock()
	if built == nil {
		return m.buildErr
	}

	var args []interface{}
	if data != nil {
		args = []interface{}{data}
	}

	err := built.Event(ctx, string(event), args...)
	if err == nil {
		return nil
	}

	var (
		noTransition lfsm.NoTransitionError
		invalidEvent lfsm.InvalidEventError
		unknownEvent lfsm.UnknownEventError
		canceled     lfsm.CanceledError
		inTransition lfsm.InTransitionError
	)
	switch {
	case errors.As(err, &noTransition), errors.As(err, &invalidEvent), errors.As(err, &unknownEvent):
		return errors.Wrap(err, "transition not possible")
	case errors.As(err, &canceled), strings.Contains(err.Error(), "guard condition"):
		return errors.Wrap(err, "transition cancelled by guard condition")
	case errors.As(err, &inTransition):
		return errors.Wrap(err, "FSM concurrency error")
	default:
		return errors.Wrapf(err, "failed to transition on event '%s'", event)
	}
}
