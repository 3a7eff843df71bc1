// Package config locates retimer's per-user files and reads its environment
// switches.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	envDir   = "RETIMER_CONFIG_DIR"
	envDebug = "RETIMER_DEBUG"
	initName = "init.lua"
)

// Dir returns the retimer configuration directory.
// RETIMER_CONFIG_DIR overrides it; otherwise it lives under XDG_CONFIG_HOME
// (~/.config) on Unix and APPDATA on Windows.
func Dir() string {
	if dir := os.Getenv(envDir); dir != "" {
		return dir
	}
	return filepath.Join(userBase(), "retimer")
}

func userBase() string {
	if runtime.GOOS == "windows" {
		if base := os.Getenv("APPDATA"); base != "" {
			return base
		}
		return filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
	}
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return base
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// InitFile returns the path of init.lua in Dir, or "" if there is no such
// regular file.
func InitFile() string {
	path := filepath.Join(Dir(), initName)
	if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
		return ""
	}
	return path
}

// DebugEnabled returns true if debug mode is active (RETIMER_DEBUG=1).
func DebugEnabled() bool {
	return os.Getenv(envDebug) == "1"
}
