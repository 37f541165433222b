package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "run":
		return runBatch(args[1:])
	case "configure":
		return runConfigure(args[1:])
	case "resume":
		return runResume(args[1:])
	case "dry-run":
		return runDryRun(args[1:])
	case "settings":
		return runSettings(args[1:])
	case "purge":
		return runPurge(args[1:])
	case "status":
		return runStatus(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("borderforge: crash-safe batch framing for photo folders")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  borderforge configure")
	fmt.Println("  borderforge run")
	fmt.Println("  borderforge run --input <folder> --preset ig-portrait --no-form")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run        check for an interrupted batch, configure, then process the folder")
	fmt.Println("  configure  edit and save settings in an interactive form")
	fmt.Println("  resume     continue an interrupted batch from the file that was in flight")
	fmt.Println("  dry-run    export one file to a temp folder to preview the settings")
	fmt.Println("  settings   show/set/reset saved settings, list presets")
	fmt.Println("  purge      delete numbered output folders (With Borders, With Borders 2, ...)")
	fmt.Println("  status     show state home, saved settings and run-state")
	fmt.Println("  doctor     check folders, settings and the run lock before a long batch")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - State lives in $BORDERFORGE_HOME (or --home); a .env file may set it")
	fmt.Println("  - Set BORDERFORGE_LOG_LEVEL=debug for chunk-level log detail")
}
