package runstore

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"borderforge/internal/model"
)

const DefaultRunStateName = "runstate.txt"

var runStateHeader = []string{"BorderForge run-state", "Rewritten before and after every file; deleted on clean exit."}

const (
	keyRunID           = "runId"
	keyRunning         = "running"
	keyCleanExit       = "cleanExit"
	keyStartedAt       = "startedAt"
	keyHeartbeat       = "heartbeat"
	keyEndedAt         = "endedAt"
	keyInputPath       = "inputPath"
	keyOutputPath      = "outputPath"
	keyTotal           = "total"
	keyLastStartedIdx  = "lastStartedIdx"
	keyLastStartedName = "lastStartedName"
	keyLastDoneIdx     = "lastDoneIdx"
	keyLastDoneName    = "lastDoneName"
)

// Store persists the run-state record. It converts between the text record
// and model.RunState but never decides what the values mean.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: strings.TrimSpace(path)}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load returns the persisted state and whether a record file exists. A record
// that cannot be read or parsed is reported as found with zero usable fields.
func (s *Store) Load() (model.RunState, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.RunState{}, false
		}
		return model.RunState{LastStartedIdx: -1, LastDoneIdx: -1}, true
	}
	return decodeRunState(ParseRecord(data)), true
}

func (s *Store) Save(st model.RunState) error {
	return WriteRecord(s.path, runStateHeader, encodeRunState(st))
}

// Clear removes the record. Failures are swallowed.
func (s *Store) Clear() {
	_ = os.Remove(s.path)
}

func encodeRunState(st model.RunState) *Record {
	rec := NewRecord()
	if st.RunID != "" {
		rec.Set(keyRunID, st.RunID)
	}
	rec.Set(keyRunning, strconv.FormatBool(st.Running))
	rec.Set(keyCleanExit, strconv.FormatBool(st.CleanExit))
	rec.Set(keyStartedAt, formatTime(st.StartedAt))
	if !st.Heartbeat.IsZero() {
		rec.Set(keyHeartbeat, formatTime(st.Heartbeat))
	}
	if !st.EndedAt.IsZero() {
		rec.Set(keyEndedAt, formatTime(st.EndedAt))
	}
	rec.Set(keyInputPath, st.InputPath)
	rec.Set(keyOutputPath, st.OutputPath)
	rec.Set(keyTotal, strconv.Itoa(st.Total))
	rec.Set(keyLastStartedIdx, strconv.Itoa(st.LastStartedIdx))
	rec.Set(keyLastStartedName, st.LastStartedName)
	rec.Set(keyLastDoneIdx, strconv.Itoa(st.LastDoneIdx))
	rec.Set(keyLastDoneName, st.LastDoneName)
	return rec
}

func decodeRunState(rec *Record) model.RunState {
	st := model.RunState{
		LastStartedIdx: -1,
		LastDoneIdx:    -1,
		Fields:         rec.Len(),
	}
	st.RunID, _ = rec.Get(keyRunID)
	st.Running = recordBool(rec, keyRunning)
	st.CleanExit = recordBool(rec, keyCleanExit)
	st.StartedAt = recordTime(rec, keyStartedAt)
	st.Heartbeat = recordTime(rec, keyHeartbeat)
	st.EndedAt = recordTime(rec, keyEndedAt)
	st.InputPath, _ = rec.Get(keyInputPath)
	st.OutputPath, _ = rec.Get(keyOutputPath)
	if n, ok := recordInt(rec, keyTotal); ok {
		st.Total = n
	}
	if n, ok := recordInt(rec, keyLastStartedIdx); ok {
		st.LastStartedIdx = n
		st.HasStarted = n >= 0
	}
	st.LastStartedName, _ = rec.Get(keyLastStartedName)
	if n, ok := recordInt(rec, keyLastDoneIdx); ok {
		st.LastDoneIdx = n
	}
	st.LastDoneName, _ = rec.Get(keyLastDoneName)
	return st
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func recordBool(rec *Record, key string) bool {
	v, _ := rec.Get(key)
	return strings.EqualFold(v, "true")
}

func recordInt(rec *Record, key string) (int, bool) {
	v, ok := rec.Get(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func recordTime(rec *Record, key string) time.Time {
	v, ok := rec.Get(key)
	if !ok || v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
