package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName is the directory name used under the platform base directories.
const appName = "symlayer"

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/symlayer/
//   - Linux:   ~/.local/share/symlayer/
//   - Windows: %APPDATA%\symlayer\
// Other systems use ~/.symlayer.
func PlatformDataDir() string {
	if envDir := os.Getenv("SYMLAYER_DATA_DIR"); envDir != "" {
		return envDir
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", appName)
	case "linux":
		return xdgDir("XDG_DATA_HOME", ".local", "share")
	case "windows":
		return windowsDir("APPDATA", "Roaming")
	default:
		return filepath.Join(homeDir(), "."+appName)
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/symlayer/
//   - Linux:   ~/.config/symlayer/
//   - Windows: %APPDATA%\symlayer\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "linux":
		return xdgDir("XDG_CONFIG_HOME", ".config")
	default:
		return PlatformDataDir()
	}
}

// PlatformLogDir returns the platform-specific log directory.
//
// Platform paths:
//   - macOS:   ~/Library/Logs/symlayer/
//   - Linux:   ~/.local/share/symlayer/logs/
//   - Windows: %LOCALAPPDATA%\symlayer\logs\
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Logs", appName)
	case "windows":
		return filepath.Join(windowsDir("LOCALAPPDATA", "Local"), "logs")
	default:
		return filepath.Join(PlatformDataDir(), "logs")
	}
}

func homeDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return home
}

// xdgDir follows the XDG Base Directory Specification: $env/symlayer, or
// ~/<fallback...>/symlayer when the variable is unset.
func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	parts := append([]string{homeDir()}, fallback...)
	return filepath.Join(append(parts, appName)...)
}

func windowsDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(homeDir(), "AppData", fallback, appName)
}

// configExts lists the recognized configuration file extensions in search
// order.
var configExts = []string{".toml", ".yaml", ".yml", ".json"}

// FindConfigFile returns the configuration file the tools should use:
// $SYMLAYER_CONFIG if set, otherwise the first config.<ext> in the platform
// config directory, otherwise the first symlayer.<ext> in the working
// directory. It returns "" when none exists.
func FindConfigFile() string {
	if p := os.Getenv("SYMLAYER_CONFIG"); p != "" {
		return expandPath(p)
	}
	candidates := make([]string, 0, 2*len(configExts))
	for _, ext := range configExts {
		candidates = append(candidates, filepath.Join(PlatformConfigDir(), "config"+ext))
	}
	for _, ext := range configExts {
		candidates = append(candidates, appName+ext)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
