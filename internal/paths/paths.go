// Package paths resolves the configuration and data directories of the
// vibeflow tools.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appDirName is the directory created under the platform locations.
const appDirName = "vibeflow"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "VIBEFLOW_CONFIG_DIR"
	EnvDataDir   = "VIBEFLOW_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getenv        func(string) string
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getenv:        os.Getenv,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/vibeflow (fallback ~/.config/vibeflow)
// macOS:   ~/Library/Application Support/vibeflow
// Windows: %APPDATA%/vibeflow
func DefaultConfigDir() (string, error) {
	switch platformDir.goos {
	case "linux":
		return xdgDir("XDG_CONFIG_HOME", ".config")
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDirName), nil
	}
}

// DefaultDataDir returns the platform-specific default data directory, the
// one holding the project database and settings.json.
//
// Linux:   $XDG_DATA_HOME/vibeflow (fallback ~/.local/share/vibeflow)
// macOS:   ~/Library/Application Support/vibeflow
// Windows: %LOCALAPPDATA%/vibeflow (fallback %APPDATA%/vibeflow)
func DefaultDataDir() (string, error) {
	switch platformDir.goos {
	case "linux":
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	case "windows":
		if local := platformDir.getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appDirName), nil
		}
		fallthrough
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDirName), nil
	}
}

func xdgDir(env, homeRel string) (string, error) {
	if xdg := platformDir.getenv(env); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, appDirName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > VIBEFLOW_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := platformDir.getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > VIBEFLOW_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := platformDir.getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}
