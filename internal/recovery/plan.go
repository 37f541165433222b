package recovery

import (
	"errors"
	"os"
	"path/filepath"

	"borderforge/internal/model"
	"borderforge/internal/naming"
	"borderforge/internal/runstore"
	"borderforge/internal/scan"
	"borderforge/internal/settings"
)

// ResumeError explains why a resume cannot start. The run-state record is
// never modified when one is returned.
type ResumeError struct {
	Reason string
	Path   string
	Err    error
}

func (e *ResumeError) Error() string {
	msg := "resume refused: " + e.Reason
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResumeError) Unwrap() error {
	return e.Err
}

func refuse(reason, path string, err error) error {
	return &ResumeError{Reason: reason, Path: path, Err: err}
}

// Plan is everything needed to restart an interrupted batch.
type Plan struct {
	Settings   settings.Settings
	Tasks      []model.FileTask
	InputDir   string
	OutputDir  string
	StartIndex int
	// ForceRedo is rebuilt even if its output exists; it may be half written.
	ForceRedo int
}

// PlanResume rebuilds the batch from persisted settings and the run-state
// watermark.
func PlanResume(d Decision, settingsPath string, store Store) (Plan, error) {
	s, found, err := settings.Load(settingsPath)
	if err != nil {
		return Plan{}, refuse("saved settings could not be read", settingsPath, err)
	}
	if !found {
		return Plan{}, refuse("no saved settings were found", settingsPath, nil)
	}
	if !s.RememberFolders {
		return Plan{}, refuse("'remember folders' was off in the last saved settings; enable it and run once so a crash can be resumed", "", nil)
	}
	if s.InputPath == "" {
		return Plan{}, refuse("the last input folder path is missing", "", nil)
	}
	if info, err := os.Stat(s.InputPath); err != nil {
		return Plan{}, refuse("the last input folder no longer exists", s.InputPath, err)
	} else if !info.IsDir() {
		return Plan{}, refuse("the last input path is not a folder", s.InputPath, nil)
	}
	if err := s.Options.Validate(); err != nil {
		return Plan{}, refuse("saved settings are invalid", settingsPath, err)
	}

	st, stFound := store.Load()

	out, err := resumeOutputDir(s, st, stFound)
	if err != nil {
		return Plan{}, err
	}

	tasks, err := scan.Enumerate(s.InputPath)
	if err != nil {
		return Plan{}, refuse("no usable images in the saved input folder", s.InputPath, err)
	}
	if err := runstore.Mkdir(out); err != nil {
		return Plan{}, refuse("could not create output folder", out, err)
	}

	idx := -1
	if stFound && st.HasStarted {
		idx = st.LastStartedIdx
	}
	if idx < 0 {
		idx = d.LastStartedIdx
	}
	idx = max(0, min(idx, len(tasks)-1))

	return Plan{
		Settings:   s,
		Tasks:      tasks,
		InputDir:   s.InputPath,
		OutputDir:  out,
		StartIndex: idx,
		ForceRedo:  idx,
	}, nil
}

// resumeOutputDir picks the custom folder, else the numbered folder the
// interrupted run recorded when it is still there, else the next numbered
// folder.
func resumeOutputDir(s settings.Settings, st model.RunState, stFound bool) (string, error) {
	if s.UseCustomOut {
		if s.CustomOutPath == "" {
			return "", refuse("the last custom output folder path is missing", "", nil)
		}
		return s.CustomOutPath, nil
	}
	if stFound && st.OutputPath != "" && sameDir(filepath.Dir(st.OutputPath), s.InputPath) {
		if info, err := os.Stat(st.OutputPath); err == nil && info.IsDir() {
			return st.OutputPath, nil
		}
	}
	out, _, err := naming.NextNumberedFolder(s.InputPath, naming.DefaultFolderBase)
	if err != nil {
		return "", refuse("could not pick an output folder", s.InputPath, err)
	}
	return out, nil
}

func sameDir(a, b string) bool {
	ca, errA := filepath.Abs(a)
	cb, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return ca == cb
}

// IsResumeError reports whether err is a refusal rather than a failure.
func IsResumeError(err error) bool {
	var rErr *ResumeError
	return errors.As(err, &rErr)
}
