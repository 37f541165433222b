package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"borderforge/internal/logging"
	"borderforge/internal/naming"
	"borderforge/internal/runstore"
	"borderforge/internal/settings"
)

// appEnv is what every command needs from the state home.
type appEnv struct {
	paths settings.Paths
	log   *logging.Logger
	store *runstore.Store
}

func resolvePaths(home string) (settings.Paths, error) {
	settings.LoadEnvFile()
	return settings.ResolvePaths(home)
}

func openEnv(home string, verbose bool) (*appEnv, error) {
	paths, err := resolvePaths(home)
	if err != nil {
		return nil, err
	}
	if err := runstore.Mkdir(paths.Home); err != nil {
		return nil, err
	}
	log, err := logging.Open(logging.Options{
		Path:    paths.Log,
		Level:   os.Getenv(settings.EnvLogLevel),
		Verbose: verbose,
	})
	if err != nil {
		return nil, err
	}
	return &appEnv{paths: paths, log: log, store: runstore.NewStore(paths.RunState)}, nil
}

func (e *appEnv) Close() {
	_ = e.log.Close()
}

// applyOverrides layers command-line flags over the saved settings and
// validates the result.
func applyOverrides(s *settings.Settings, input, output, preset string, sets []string) error {
	if p := strings.TrimSpace(preset); p != "" {
		pr, ok := settings.FindPreset(p)
		if !ok {
			return fmt.Errorf("unknown preset %q (known: %s)", p, presetNames())
		}
		pr.Apply(s)
	}
	pairs := make([][2]string, 0, len(sets))
	for _, pair := range sets {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("--set expects key=value, got %q", pair)
		}
		pairs = append(pairs, [2]string{strings.TrimSpace(key), value})
	}
	if err := settings.SetAll(s, pairs); err != nil {
		return err
	}
	if v := strings.TrimSpace(input); v != "" {
		s.InputPath = absPath(v)
	}
	if v := strings.TrimSpace(output); v != "" {
		s.UseCustomOut = true
		s.CustomOutPath = absPath(v)
	}
	return s.Options.Validate()
}

// saveAccepted persists an accepted configuration. Folder paths are only
// remembered when the user asked for it.
func saveAccepted(path string, s settings.Settings) error {
	if !s.RememberFolders {
		s.InputPath = ""
		s.CustomOutPath = ""
	}
	return settings.Save(path, s)
}

func outputFolderFor(s settings.Settings) (string, error) {
	if s.UseCustomOut {
		out := strings.TrimSpace(s.CustomOutPath)
		if out == "" {
			return "", fmt.Errorf("custom output folder is enabled but no path is set")
		}
		return out, nil
	}
	out, _, err := naming.NextNumberedFolder(s.InputPath, naming.DefaultFolderBase)
	return out, err
}

func presetNames() string {
	names := make([]string, 0, len(settings.Presets))
	for _, p := range settings.Presets {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
