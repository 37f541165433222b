package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"borderforge/internal/model"
	"borderforge/internal/recovery"
	"borderforge/internal/runstore"
	"borderforge/internal/settings"
)

type statusReport struct {
	Home          string `json:"home"`
	SettingsSaved bool   `json:"settings_saved"`
	InputPath     string `json:"input_path,omitempty"`
	RememberPaths bool   `json:"remember_folders"`
	LogBytes      int64  `json:"log_bytes"`
	RunState      string `json:"run_state"`
	Locked        bool   `json:"locked"`
	LockPID       int    `json:"lock_pid,omitempty"`
	Phase         string `json:"phase,omitempty"`
	OutputPath    string `json:"output_path,omitempty"`
	Total         int    `json:"total,omitempty"`
	LastStarted   string `json:"last_started,omitempty"`
	LastStartedAt int    `json:"last_started_idx"`
	LastDone      string `json:"last_done,omitempty"`
	LastDoneAt    int    `json:"last_done_idx"`
	Heartbeat     string `json:"heartbeat,omitempty"`
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	home := fs.String("home", "", "state directory (default $BORDERFORGE_HOME or the user config dir)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	paths, err := resolvePaths(*home)
	if err != nil {
		return err
	}
	s, found, err := settings.Load(paths.Settings)
	if err != nil {
		return err
	}

	rep := statusReport{
		Home:          paths.Home,
		SettingsSaved: found,
		InputPath:     s.InputPath,
		RememberPaths: s.RememberFolders,
		LastStartedAt: -1,
		LastDoneAt:    -1,
	}
	if info, err := os.Stat(paths.Log); err == nil {
		rep.LogBytes = info.Size()
	}

	// A held lock means the record belongs to a live batch, not a crash.
	if held, err := runstore.RunLockHeld(paths.Home); err == nil && held {
		rep.Locked = true
		rep.LockPID = runstore.LockOwnerPID(paths.Home)
	}

	ins := recovery.Inspect(runstore.NewStore(paths.RunState))
	rep.RunState = ins.State.String()
	if ins.State != recovery.StateNoState {
		st := ins.RunState
		rep.Phase = st.Phase()
		rep.OutputPath = st.OutputPath
		rep.Total = st.Total
		rep.LastStarted = st.LastStartedName
		rep.LastStartedAt = st.LastStartedIdx
		rep.LastDone = st.LastDoneName
		rep.LastDoneAt = st.LastDoneIdx
		if !st.Heartbeat.IsZero() {
			rep.Heartbeat = st.Heartbeat.Format(time.RFC3339)
		}
	}

	if *jsonOut {
		return printJSON(rep)
	}

	fmt.Printf("home: %s\n", rep.Home)
	fmt.Printf("settings_saved: %s\n", yesNo(rep.SettingsSaved))
	fmt.Printf("remember_folders: %s\n", yesNo(rep.RememberPaths))
	fmt.Printf("input: %s\n", defaultIfEmpty(rep.InputPath, "(none)"))
	fmt.Printf("log: %s\n", humanize.IBytes(uint64(rep.LogBytes)))
	fmt.Printf("run_state: %s\n", rep.RunState)
	if ins.State == recovery.StateNoState {
		return nil
	}
	fmt.Printf("phase: %s\n", rep.Phase)
	if rep.Locked {
		if rep.LockPID > 0 {
			fmt.Printf("a batch is running right now (pid %d)\n", rep.LockPID)
		} else {
			fmt.Println("a batch is running right now")
		}
	} else if rep.Phase == model.PhaseRunning {
		fmt.Println("the last batch stopped unexpectedly; `borderforge resume` continues it")
	}
	if rep.OutputPath != "" {
		fmt.Printf("output: %s\n", rep.OutputPath)
	}
	if rep.LastStartedAt >= 0 {
		fmt.Printf("last_started: [%d/%d] %s\n", rep.LastStartedAt+1, rep.Total, rep.LastStarted)
	}
	if rep.LastDoneAt >= 0 {
		fmt.Printf("last_done: [%d/%d] %s\n", rep.LastDoneAt+1, rep.Total, rep.LastDone)
	}
	if !ins.RunState.Heartbeat.IsZero() {
		fmt.Printf("heartbeat: %s\n", humanize.Time(ins.RunState.Heartbeat))
	}
	return nil
}
