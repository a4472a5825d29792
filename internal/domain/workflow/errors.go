package workflow

import "errors"

var (
	// ErrInvalidTransition indicates the trigger is not permitted in the
	// current state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed indicates a transition exists but its guard rejected it.
	ErrGuardFailed = errors.New("transition guard failed")

	// ErrUnknownState indicates a state id that is not enabled for the
	// process the machine was built for.
	ErrUnknownState = errors.New("state not enabled for process")
)
