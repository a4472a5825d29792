package workflow

import (
	"context"
	"fmt"
)

// GuardFunc decides whether a configured transition may fire.
type GuardFunc func(ctx context.Context) bool

// transition is one permitted move out of a state.
type transition struct {
	toState State
	guard   GuardFunc
}

// Builder configures the transition table for one process. States must
// belong to the StateSet the builder was created with; the set comes from
// the process-scoped catalog rows, so the machine stays valid when states
// are added operationally.
type Builder struct {
	states      StateSet
	transitions map[State]map[Trigger][]transition
	overrides   map[Trigger]State
}

// NewBuilder creates a builder over the enabled states of a process.
func NewBuilder(states StateSet) *Builder {
	return &Builder{
		states:      states,
		transitions: make(map[State]map[Trigger][]transition),
		overrides:   make(map[Trigger]State),
	}
}

// StateConfig configures transitions out of a single state.
type StateConfig struct {
	builder *Builder
	from    State
}

// Configure returns the configuration for transitions out of a state.
func (b *Builder) Configure(state State) *StateConfig {
	if !b.states.Contains(state) {
		panic(fmt.Sprintf("workflow: configuring disabled state %s", state))
	}
	if b.transitions[state] == nil {
		b.transitions[state] = make(map[Trigger][]transition)
	}
	return &StateConfig{builder: b, from: state}
}

// Permit allows the trigger to move from this state to the target state.
func (c *StateConfig) Permit(trigger Trigger, to State) *StateConfig {
	return c.PermitIf(trigger, to, nil)
}

// PermitIf allows the trigger to move to the target state when the guard
// passes. Multiple transitions for the same trigger are tried in order.
func (c *StateConfig) PermitIf(trigger Trigger, to State, guard GuardFunc) *StateConfig {
	if !c.builder.states.Contains(to) {
		panic(fmt.Sprintf("workflow: transition to disabled state %s", to))
	}
	c.builder.transitions[c.from][trigger] = append(
		c.builder.transitions[c.from][trigger],
		transition{toState: to, guard: guard},
	)
	return c
}

// Override registers a trigger that fires from ANY state, including states
// with no configuration, always landing on the target state. This is how
// the observed-line coupling is expressed: one named transition rather
// than an unconditional write scattered through the lifecycle.
func (b *Builder) Override(trigger Trigger, to State) *Builder {
	if !b.states.Contains(to) {
		panic(fmt.Sprintf("workflow: override to disabled state %s", to))
	}
	b.overrides[trigger] = to
	return b
}

// Build creates a machine positioned on the given state. The current
// state must be enabled for the process; reports can legitimately sit on
// states the lifecycle has no outgoing transitions for.
func (b *Builder) Build(current State) (*Machine, error) {
	if !b.states.Contains(current) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownState, current)
	}

	// Copy the tables so machines stay independent of later builder use.
	transitions := make(map[State]map[Trigger][]transition, len(b.transitions))
	for state, byTrigger := range b.transitions {
		copied := make(map[Trigger][]transition, len(byTrigger))
		for trigger, ts := range byTrigger {
			copied[trigger] = append([]transition(nil), ts...)
		}
		transitions[state] = copied
	}
	overrides := make(map[Trigger]State, len(b.overrides))
	for trigger, to := range b.overrides {
		overrides[trigger] = to
	}

	return &Machine{
		current:     current,
		states:      b.states,
		transitions: transitions,
		overrides:   overrides,
	}, nil
}

// Machine tracks the current state of one report and validates triggers
// against the configured transition table.
type Machine struct {
	current     State
	states      StateSet
	transitions map[State]map[Trigger][]transition
	overrides   map[Trigger]State
}

// State returns the current state.
func (m *Machine) State() State {
	return m.current
}

// CanFire reports whether the trigger is permitted in the current state.
func (m *Machine) CanFire(trigger Trigger) bool {
	if _, ok := m.overrides[trigger]; ok {
		return true
	}
	byTrigger, ok := m.transitions[m.current]
	if !ok {
		return false
	}
	return len(byTrigger[trigger]) > 0
}

// Fire executes the trigger, moving to the new state if permitted.
// Overrides win over per-state configuration.
func (m *Machine) Fire(ctx context.Context, trigger Trigger) error {
	if to, ok := m.overrides[trigger]; ok {
		m.current = to
		return nil
	}

	byTrigger, ok := m.transitions[m.current]
	if !ok || len(byTrigger[trigger]) == 0 {
		return fmt.Errorf("%w: trigger %s from state %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range byTrigger[trigger] {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.toState
			return nil
		}
	}
	return fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.current)
}

// PermittedTriggers returns the triggers that can fire in the current
// state, overrides included.
func (m *Machine) PermittedTriggers() []Trigger {
	var triggers []Trigger
	for trigger := range m.overrides {
		triggers = append(triggers, trigger)
	}
	if byTrigger, ok := m.transitions[m.current]; ok {
		for trigger, ts := range byTrigger {
			if _, overridden := m.overrides[trigger]; overridden {
				continue
			}
			if len(ts) > 0 {
				triggers = append(triggers, trigger)
			}
		}
	}
	return triggers
}
