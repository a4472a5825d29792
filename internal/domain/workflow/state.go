package workflow

import "strconv"

// State identifies a workflow state by its catalog row id. The catalog is
// open: validity of a state is decided by the StateSet the machine was
// built with, not by a closed enum.
type State int64

// String returns the decimal id of the state.
func (s State) String() string {
	return strconv.FormatInt(int64(s), 10)
}

// StateSet is the set of enabled states for one process, loaded from the
// workflow state catalog.
type StateSet map[State]bool

// NewStateSet builds a StateSet from catalog row ids.
func NewStateSet(ids ...int64) StateSet {
	set := make(StateSet, len(ids))
	for _, id := range ids {
		set[State(id)] = true
	}
	return set
}

// Contains reports whether the state is enabled in this set.
func (ss StateSet) Contains(s State) bool {
	return ss[s]
}
