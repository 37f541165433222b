package model

import "fmt"

const (
	PhaseNone      = ""
	PhaseRunning   = "running"
	PhaseCleanExit = "clean_exit"
)

const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped_existing"
	OutcomeFailed    = "failed"
)

var allowedTransitions = map[string]map[string]bool{
	PhaseNone: {
		PhaseRunning: true,
	},
	PhaseRunning: {
		PhaseRunning:   true, // heartbeat, started/done markers
		PhaseCleanExit: true,
	},
	PhaseCleanExit: {
		PhaseRunning: true, // a new batch reuses the record path
	},
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// TransitionRunPhase moves the run state to the target phase, rejecting
// transitions that would hide an interrupted run.
func TransitionRunPhase(state *RunState, to string) error {
	from := state.Phase()
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid run phase transition: %q -> %q (run_id=%s)", from, to, state.RunID)
	}
	switch to {
	case PhaseRunning:
		state.Running = true
		state.CleanExit = false
	case PhaseCleanExit:
		state.Running = false
		state.CleanExit = true
	}
	return nil
}
