// Package appdir provides platform-native directory management for Navi.
// It handles locating and creating the Navi data directory, which stores
// configuration (config.yaml) and session data (sessions/ subdirectory).
package appdir

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	// NaviDirEnv is the environment variable to override the Navi directory.
	NaviDirEnv = "NAVI_DIR"

	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "config.yaml"

	// SessionsDirName is the name of the sessions subdirectory.
	SessionsDirName = "sessions"
)

var (
	// cachedDir stores the resolved Navi directory to avoid repeated lookups.
	cachedDir string
	mu        sync.RWMutex
)

// Dir returns the Navi data directory path, determined in order:
//  1. NAVI_DIR environment variable (if set)
//  2. Platform-specific default:
//     - macOS: ~/Library/Application Support/Navi
//     - Linux: $XDG_DATA_HOME/navi or ~/.local/share/navi
//     - Windows: %APPDATA%\Navi
//
// This function only returns the path; use EnsureDir() to create it.
func Dir() (string, error) {
	mu.RLock()
	if cachedDir != "" {
		dir := cachedDir
		mu.RUnlock()
		return dir, nil
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	if cachedDir != "" {
		return cachedDir, nil
	}

	dir, err := resolveDir()
	if err != nil {
		return "", err
	}

	cachedDir = dir
	return dir, nil
}

// resolveDir calculates the Navi directory path.
func resolveDir() (string, error) {
	if envDir := os.Getenv(NaviDirEnv); envDir != "" {
		return envDir, nil
	}

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, "Library", "Application Support", "Navi"), nil

	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			appData = filepath.Join(homeDir, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Navi"), nil

	default:
		// Linux and other Unix-like systems
		dataDir := os.Getenv("XDG_DATA_HOME")
		if dataDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			dataDir = filepath.Join(homeDir, ".local", "share")
		}
		return filepath.Join(dataDir, "navi"), nil
	}
}

// EnsureDir creates the Navi data directory and the sessions subdirectory
// if they don't exist.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create Navi directory %s: %w", dir, err)
	}

	sessionsDir := filepath.Join(dir, SessionsDirName)
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return fmt.Errorf("failed to create sessions directory %s: %w", sessionsDir, err)
	}

	return nil
}

// ConfigPath returns the full path to the config.yaml file.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// SessionsDir returns the full path to the sessions directory.
func SessionsDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SessionsDirName), nil
}

// ResetCache clears the cached directory path.
// This is primarily useful for testing.
func ResetCache() {
	mu.Lock()
	defer mu.Unlock()
	cachedDir = ""
}
