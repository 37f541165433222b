package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"borderforge/internal/runstore"
	"borderforge/internal/scan"
	"borderforge/internal/settings"
)

type doctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type doctorResult struct {
	OK     bool          `json:"ok"`
	Checks []doctorCheck `json:"checks"`
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
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
	res := doctor(paths)
	if *jsonOut {
		return printJSON(res)
	}
	for _, c := range res.Checks {
		mark := "ok  "
		if !c.OK {
			mark = "FAIL"
		}
		fmt.Printf("[%s] %s: %s\n", mark, c.Name, c.Message)
	}
	if !res.OK {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}

func doctor(paths settings.Paths) doctorResult {
	checks := make([]doctorCheck, 0, 6)
	add := func(name string, ok bool, msg string) {
		checks = append(checks, doctorCheck{Name: name, OK: ok, Message: msg})
	}

	ok, msg := ensureWritableDir(paths.Home)
	add("directory:state", ok, msg)

	s, found, err := settings.Load(paths.Settings)
	switch {
	case err != nil:
		add("settings", false, err.Error())
	case !found:
		add("settings", true, "nothing saved yet; defaults apply")
	default:
		if verr := s.Options.Validate(); verr != nil {
			add("settings", false, verr.Error())
		} else {
			add("settings", true, "valid")
		}
	}

	if strings.TrimSpace(s.InputPath) != "" {
		tasks, err := scan.Enumerate(s.InputPath)
		if err != nil {
			add("input", false, err.Error())
		} else {
			add("input", true, fmt.Sprintf("%d image(s) in %s", len(tasks), s.InputPath))
		}
		outParent := s.InputPath
		if s.UseCustomOut && strings.TrimSpace(s.CustomOutPath) != "" {
			outParent = filepath.Dir(s.CustomOutPath)
		}
		ok, msg := ensureWritableDir(outParent)
		add("directory:output", ok, msg)
	}

	ok, msg = ensureWritableDir(os.TempDir())
	add("directory:temp", ok, msg)

	switch held, err := runstore.RunLockHeld(paths.Home); {
	case err != nil:
		add("run-lock", false, err.Error())
	case held:
		add("run-lock", false, fmt.Sprintf("another batch is already running (pid %d)", runstore.LockOwnerPID(paths.Home)))
	default:
		add("run-lock", true, "free")
	}

	allOK := true
	for _, c := range checks {
		if !c.OK {
			allOK = false
			break
		}
	}
	return doctorResult{OK: allOK, Checks: checks}
}

func ensureWritableDir(path string) (bool, string) {
	if strings.TrimSpace(path) == "" {
		return false, "empty path"
	}
	if err := runstore.Mkdir(path); err != nil {
		return false, err.Error()
	}
	f, err := os.CreateTemp(path, ".borderforge-check-*.tmp")
	if err != nil {
		return false, err.Error()
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return true, "writable"
}
