package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvHome     = "BORDERFORGE_HOME"
	EnvLogLevel = "BORDERFORGE_LOG_LEVEL"

	SettingsFileName = "settings.txt"
	RunStateFileName = "runstate.txt"
	LogFileName      = "borderforge.log"
)

// Paths locates every record BorderForge keeps between launches.
type Paths struct {
	Home     string
	Settings string
	RunState string
	Log      string
}

// LoadEnvFile applies a .env from the working directory, if present.
// Variables already set in the process environment win.
func LoadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}
	_ = godotenv.Load(".env.local")
}

// ResolvePaths picks the state home: explicit override, then $BORDERFORGE_HOME,
// then the per-user config directory.
func ResolvePaths(override string) (Paths, error) {
	home := strings.TrimSpace(override)
	if home == "" {
		home = strings.TrimSpace(os.Getenv(EnvHome))
	}
	if home == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolve state home: %w", err)
		}
		home = filepath.Join(base, "borderforge")
	}
	abs, err := filepath.Abs(home)
	if err != nil {
		return Paths{}, fmt.Errorf("resolve state home %s: %w", home, err)
	}
	return Paths{
		Home:     abs,
		Settings: filepath.Join(abs, SettingsFileName),
		RunState: filepath.Join(abs, RunStateFileName),
		Log:      filepath.Join(abs, LogFileName),
	}, nil
}
