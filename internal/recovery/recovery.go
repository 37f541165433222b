// Package recovery decides, once per launch, whether the previous batch ended
// cleanly and, if not, how to resume it.
package recovery

import (
	"fmt"
	"strings"

	"borderforge/internal/model"
)

type State int

const (
	StateNoState State = iota
	StateCleanExit
	StateDirtyNoFields
	StateDirtyWithFields
)

func (s State) String() string {
	switch s {
	case StateCleanExit:
		return "clean_exit"
	case StateDirtyNoFields:
		return "dirty_no_fields"
	case StateDirtyWithFields:
		return "dirty_with_fields"
	default:
		return "no_state"
	}
}

// Store is the slice of the run-state store recovery needs.
type Store interface {
	Load() (model.RunState, bool)
	Clear()
}

type Prompter interface {
	Confirm(message string) (bool, error)
}

type Inspection struct {
	State    State
	RunState model.RunState
}

// Inspect classifies the stored record without changing it.
func Inspect(store Store) Inspection {
	st, found := store.Load()
	switch {
	case !found:
		return Inspection{State: StateNoState}
	case st.Fields == 0:
		return Inspection{State: StateDirtyNoFields, RunState: st}
	case st.CleanExit:
		return Inspection{State: StateCleanExit, RunState: st}
	default:
		return Inspection{State: StateDirtyWithFields, RunState: st}
	}
}

// Decision is the outcome of the startup check.
type Decision struct {
	State           State
	Resume          bool
	LastStartedIdx  int
	LastStartedName string
}

// Resolve runs the startup check. Clean leftovers are cleared silently; an
// unexpected stop asks p whether to resume, and "no" clears the record.
// A prompt error leaves the record untouched.
func Resolve(store Store, p Prompter) (Decision, error) {
	ins := Inspect(store)
	d := Decision{State: ins.State, LastStartedIdx: -1}

	switch ins.State {
	case StateNoState:
		return d, nil
	case StateCleanExit:
		store.Clear()
		return d, nil
	}

	if ins.State == StateDirtyWithFields {
		d.LastStartedName = ins.RunState.LastStartedName
		if ins.RunState.HasStarted {
			d.LastStartedIdx = ins.RunState.LastStartedIdx
		}
	}

	yes, err := p.Confirm(PromptMessage(ins))
	if err != nil {
		return Decision{State: ins.State, LastStartedIdx: -1}, err
	}
	if !yes {
		store.Clear()
		return Decision{State: ins.State, LastStartedIdx: -1}, nil
	}
	d.Resume = true
	return d, nil
}

func PromptMessage(ins Inspection) string {
	if ins.State == StateDirtyNoFields {
		return "An unexpected stop was detected from the last run, with no detail recorded.\n" +
			"Resume from where you left off using your last saved settings?"
	}
	var b strings.Builder
	b.WriteString("An unexpected stop was detected from the last run.\n")
	if ins.RunState.LastStartedName != "" {
		fmt.Fprintf(&b, "Last started: %s\n", ins.RunState.LastStartedName)
	}
	if ins.RunState.HasStarted {
		fmt.Fprintf(&b, "Index: %d\n", ins.RunState.LastStartedIdx)
	}
	b.WriteString("Yes re-runs the last started image, overwriting its output, and continues.\n")
	b.WriteString("No clears the recovery state.\n")
	b.WriteString("Resume?")
	return b.String()
}
