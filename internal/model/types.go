package model

import (
	"path/filepath"
	"time"
)

// FileTask is one eligible input file and its position in the sorted
// enumeration of a run.
type FileTask struct {
	Index int
	Path  string
	Name  string
}

func NewFileTask(index int, path string) FileTask {
	return FileTask{Index: index, Path: path, Name: filepath.Base(path)}
}

// RunState is the crash-detection record of an in-progress batch. It is
// written before and after every unit of work.
type RunState struct {
	RunID           string
	Running         bool
	CleanExit       bool
	StartedAt       time.Time
	Heartbeat       time.Time
	EndedAt         time.Time
	InputPath       string
	OutputPath      string
	Total           int
	LastStartedIdx  int
	LastStartedName string
	LastDoneIdx     int
	LastDoneName    string

	// HasStarted reports whether the record carried a usable lastStartedIdx.
	HasStarted bool
	// Fields counts the usable keys found when the record was loaded.
	Fields int
}

// Phase derives the run phase from the persisted flags.
func (s RunState) Phase() string {
	switch {
	case s.CleanExit:
		return PhaseCleanExit
	case s.Running:
		return PhaseRunning
	default:
		return PhaseNone
	}
}

// EncodingTrial is one save attempt of the size-constrained encoder.
type EncodingTrial struct {
	Quality int
	Bytes   int64
	Score   int64
}
