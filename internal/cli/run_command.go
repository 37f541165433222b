package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"borderforge/internal/batch"
	"borderforge/internal/engine"
	"borderforge/internal/model"
	"borderforge/internal/recovery"
	"borderforge/internal/runstore"
	"borderforge/internal/scan"
	"borderforge/internal/settings"
)

func runBatch(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	home := fs.String("home", "", "state directory (default $BORDERFORGE_HOME or the user config dir)")
	input := fs.String("input", "", "input folder (default: last saved)")
	output := fs.String("output", "", "custom output folder (default: numbered folder inside the input folder)")
	preset := fs.String("preset", "", "apply a layout preset: "+presetNames())
	var sets stringList
	fs.Var(&sets, "set", "override one setting as key=value (repeatable)")
	noForm := fs.Bool("no-form", false, "skip the interactive configure form")
	fresh := fs.Bool("fresh", false, "discard an interrupted run without asking")
	yes := fs.Bool("yes", false, "resume an interrupted run without asking")
	verbose := fs.Bool("verbose", false, "mirror the log to stderr")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fresh && *yes {
		return errors.New("--fresh and --yes cannot be combined")
	}

	env, err := openEnv(*home, *verbose)
	if err != nil {
		return err
	}
	defer env.Close()

	lock, err := runstore.AcquireRunLock(env.paths.Home)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	var prompter recovery.Prompter = terminalPrompter{}
	switch {
	case *fresh:
		prompter = fixedPrompter(false)
	case *yes:
		prompter = fixedPrompter(true)
	}
	decision, err := recovery.Resolve(env.store, prompter)
	if err != nil {
		return fmt.Errorf("recovery check: %w", err)
	}
	env.log.Info("startup check", "state", decision.State.String(), "resume", decision.Resume)
	if decision.Resume {
		return resumeWithPlan(env, decision, *jsonOut)
	}

	s, _, err := settings.Load(env.paths.Settings)
	if err != nil {
		return err
	}
	if err := applyOverrides(&s, *input, *output, *preset, sets); err != nil {
		return err
	}

	if !*noForm && stdinIsTTY() {
		next, accepted, err := runConfigureForm(env.paths.Settings, s)
		if err != nil {
			return err
		}
		if !accepted {
			fmt.Println("configuration cancelled; nothing processed")
			return nil
		}
		s = next
	} else {
		if err := checkInputFolder(s.InputPath); err != nil {
			return err
		}
		if err := saveAccepted(env.paths.Settings, s); err != nil {
			return err
		}
	}

	return startFresh(env, s, *jsonOut)
}

func runResume(args []string) error {
	fs := flag.NewFlagSet("resume", flag.ContinueOnError)
	home := fs.String("home", "", "state directory (default $BORDERFORGE_HOME or the user config dir)")
	yes := fs.Bool("yes", false, "resume without asking")
	verbose := fs.Bool("verbose", false, "mirror the log to stderr")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := openEnv(*home, *verbose)
	if err != nil {
		return err
	}
	defer env.Close()

	lock, err := runstore.AcquireRunLock(env.paths.Home)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	switch recovery.Inspect(env.store).State {
	case recovery.StateNoState:
		fmt.Println("no interrupted run to resume")
		return nil
	case recovery.StateCleanExit:
		env.store.Clear()
		fmt.Println("last run finished cleanly; nothing to resume")
		return nil
	}

	var prompter recovery.Prompter = terminalPrompter{}
	if *yes {
		prompter = fixedPrompter(true)
	}
	decision, err := recovery.Resolve(env.store, prompter)
	if err != nil {
		return fmt.Errorf("recovery check: %w", err)
	}
	if !decision.Resume {
		fmt.Println("recovery state cleared")
		return nil
	}
	return resumeWithPlan(env, decision, *jsonOut)
}

func resumeWithPlan(env *appEnv, d recovery.Decision, jsonOut bool) error {
	plan, err := recovery.PlanResume(d, env.paths.Settings, env.store)
	if err != nil {
		if recovery.IsResumeError(err) {
			env.log.Warn("resume refused", "error", err.Error())
		} else {
			env.log.Error("resume failed", "error", err.Error())
		}
		return err
	}
	env.log.Info("resuming",
		"input", plan.InputDir,
		"output", plan.OutputDir,
		"start_index", plan.StartIndex,
		"file", plan.Tasks[plan.StartIndex].Name,
	)
	if !jsonOut {
		fmt.Printf("resuming at [%d/%d] %s\n", plan.StartIndex+1, len(plan.Tasks), plan.Tasks[plan.StartIndex].Name)
	}
	return executeBatch(env, plan.Tasks, plan.StartIndex, plan.OutputDir, plan.Settings.Options, plan.ForceRedo, jsonOut)
}

func startFresh(env *appEnv, s settings.Settings, jsonOut bool) error {
	if err := checkInputFolder(s.InputPath); err != nil {
		return err
	}
	tasks, err := scan.Enumerate(s.InputPath)
	if err != nil {
		return err
	}
	out, err := outputFolderFor(s)
	if err != nil {
		return err
	}
	return executeBatch(env, tasks, 0, out, s.Options, -1, jsonOut)
}

func executeBatch(env *appEnv, tasks []model.FileTask, start int, outputDir string, opts model.BatchOptions, forceRedo int, jsonOut bool) error {
	runner := &batch.Runner{
		Engine:    batch.NewImageEngine(engine.New()),
		Store:     env.store,
		Logger:    env.log.Logger,
		Reclaimer: batch.RuntimeReclaimer{},
		Progress:  !jsonOut && stdoutIsTTY(),
	}
	if !jsonOut {
		fmt.Printf("processing %d file(s) into %s\n", len(tasks)-start, outputDir)
	}

	res, err := runner.Run(tasks, start, outputDir, opts, forceRedo)
	if jsonOut {
		payload := map[string]any{"result": res}
		if err != nil {
			payload["error"] = err.Error()
		}
		if perr := printJSON(payload); perr != nil {
			return perr
		}
		return err
	}

	fmt.Printf("output_dir: %s\n", res.OutputDir)
	fmt.Printf("processed: %d\n", res.Processed)
	fmt.Printf("skipped: %d\n", res.Skipped)
	fmt.Printf("failed: %d\n", res.Failed)
	var abort *batch.AbortError
	if errors.As(err, &abort) {
		fmt.Println("run-state kept; run `borderforge resume` (or `borderforge run`) to continue from this file")
	}
	return err
}

func checkInputFolder(path string) error {
	p := strings.TrimSpace(path)
	if p == "" {
		return errors.New("input folder is required (--input or borderforge configure)")
	}
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("input folder %s: %w", p, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input folder %s is not a directory", p)
	}
	return nil
}

func runDryRun(args []string) error {
	fs := flag.NewFlagSet("dry-run", flag.ContinueOnError)
	home := fs.String("home", "", "state directory (default $BORDERFORGE_HOME or the user config dir)")
	input := fs.String("input", "", "input folder (default: last saved)")
	preset := fs.String("preset", "", "apply a layout preset: "+presetNames())
	var sets stringList
	fs.Var(&sets, "set", "override one setting as key=value (repeatable)")
	index := fs.Int("index", -1, "file index to preview (-1 picks one at random)")
	keep := fs.Bool("keep", false, "keep the exported preview file")
	tmp := fs.String("tmp", "", "temp directory for the preview (default: system temp)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := openEnv(*home, false)
	if err != nil {
		return err
	}
	defer env.Close()

	s, _, err := settings.Load(env.paths.Settings)
	if err != nil {
		return err
	}
	if err := applyOverrides(&s, *input, "", *preset, sets); err != nil {
		return err
	}
	if err := checkInputFolder(s.InputPath); err != nil {
		return err
	}
	tasks, err := scan.Enumerate(s.InputPath)
	if err != nil {
		return err
	}

	res, err := batch.DryRun(batch.NewImageEngine(engine.New()), tasks, s.Options, batch.DryRunOptions{
		Index:   *index,
		Keep:    *keep,
		TempDir: strings.TrimSpace(*tmp),
	})
	if err != nil {
		env.log.Error("dry run failed", "file", res.Name, "error", err.Error())
		return err
	}
	env.log.Info("dry run", "file", res.Name, "bytes", res.OutputBytes, "quality", res.Encoding.FinalQuality)

	if *jsonOut {
		return printJSON(res)
	}
	fmt.Println(res.Summary())
	if res.Kept {
		fmt.Printf("preview: %s\n", res.PreviewPath)
	}
	return nil
}
