package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"borderforge/internal/settings"
)

func runSettings(args []string) error {
	if len(args) == 0 {
		printSettingsUsage()
		return nil
	}
	switch args[0] {
	case "show":
		return runSettingsShow(args[1:])
	case "set":
		return runSettingsSet(args[1:])
	case "reset":
		return runSettingsReset(args[1:])
	case "presets":
		return runSettingsPresets(args[1:])
	case "help", "-h", "--help":
		printSettingsUsage()
		return nil
	default:
		printSettingsUsage()
		return fmt.Errorf("unknown settings subcommand %q", args[0])
	}
}

func runSettingsShow(args []string) error {
	fs := flag.NewFlagSet("settings show", flag.ContinueOnError)
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
	if *jsonOut {
		values := make(map[string]string, len(settings.Keys()))
		for _, key := range settings.Keys() {
			values[key], _ = settings.Get(s, key)
		}
		return printJSON(map[string]any{
			"settings_path": paths.Settings,
			"saved":         found,
			"settings":      values,
		})
	}

	fmt.Printf("settings: %s\n", paths.Settings)
	if !found {
		fmt.Println("(nothing saved yet; showing defaults)")
	}
	for _, key := range settings.Keys() {
		v, _ := settings.Get(s, key)
		fmt.Printf("%s: %s\n", key, defaultIfEmpty(v, "(empty)"))
	}
	return nil
}

func runSettingsSet(args []string) error {
	fs := flag.NewFlagSet("settings set", flag.ContinueOnError)
	home := fs.String("home", "", "state directory (default $BORDERFORGE_HOME or the user config dir)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	pairs, err := parseAssignments(fs.Args())
	if err != nil {
		return err
	}

	paths, err := resolvePaths(*home)
	if err != nil {
		return err
	}
	s, _, err := settings.Load(paths.Settings)
	if err != nil {
		return err
	}
	if err := settings.SetAll(&s, pairs); err != nil {
		return err
	}
	if err := settings.Save(paths.Settings, s); err != nil {
		return err
	}

	updated := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		updated[pair[0]], _ = settings.Get(s, pair[0])
	}
	if *jsonOut {
		return printJSON(map[string]any{
			"settings_path": paths.Settings,
			"updated":       updated,
		})
	}
	fmt.Printf("updated settings in %s\n", paths.Settings)
	for _, pair := range pairs {
		fmt.Printf("%s: %s\n", pair[0], updated[pair[0]])
	}
	return nil
}

// parseAssignments accepts "key=value" words or a single "key value" pair.
func parseAssignments(args []string) ([][2]string, error) {
	if len(args) == 0 {
		return nil, errors.New("usage: settings set key=value [key=value ...]")
	}
	if len(args) == 2 && !strings.Contains(args[0], "=") {
		return [][2]string{{args[0], args[1]}}, nil
	}
	out := make([][2]string, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		out = append(out, [2]string{strings.TrimSpace(key), value})
	}
	return out, nil
}

func runSettingsReset(args []string) error {
	fs := flag.NewFlagSet("settings reset", flag.ContinueOnError)
	home := fs.String("home", "", "state directory (default $BORDERFORGE_HOME or the user config dir)")
	yes := fs.Bool("yes", false, "skip confirmation")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	paths, err := resolvePaths(*home)
	if err != nil {
		return err
	}
	if !*yes {
		ok, err := promptConfirm(fmt.Sprintf("Reset %s to defaults? [y/N]: ", paths.Settings))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("reset cancelled")
			return nil
		}
	}
	if err := settings.Save(paths.Settings, settings.Default()); err != nil {
		return err
	}
	fmt.Printf("settings reset to defaults in %s\n", paths.Settings)
	return nil
}

func runSettingsPresets(args []string) error {
	fs := flag.NewFlagSet("settings presets", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(settings.Presets)
	}
	for _, p := range settings.Presets {
		fmt.Printf("%-13s %s\n", p.Name, p.Label)
	}
	return nil
}

func printSettingsUsage() {
	fmt.Println("settings commands:")
	fmt.Println("  settings show")
	fmt.Println("  settings set key=value [key=value ...]")
	fmt.Println("  settings reset [--yes]")
	fmt.Println("  settings presets")
	fmt.Println()
	fmt.Printf("keys: %s\n", strings.Join(settings.Keys(), " "))
}
