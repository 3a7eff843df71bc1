package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDirRespectsXDG(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG_CONFIG_HOME is not consulted on Windows")
	}
	base := t.TempDir()
	t.Setenv(envDir, "")
	t.Setenv("XDG_CONFIG_HOME", base)

	if got, want := Dir(), filepath.Join(base, "retimer"); got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
}

func TestDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envDir, dir)

	if got := Dir(); got != dir {
		t.Errorf("Dir() = %q, want %q", got, dir)
	}
}

func TestInitFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envDir, dir)

	if got := InitFile(); got != "" {
		t.Errorf("InitFile() = %q with no init.lua, want empty", got)
	}

	// A directory named init.lua is not a script.
	if err := os.Mkdir(filepath.Join(dir, "init.lua"), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := InitFile(); got != "" {
		t.Errorf("InitFile() = %q for a directory, want empty", got)
	}
	os.Remove(filepath.Join(dir, "init.lua"))

	path := filepath.Join(dir, "init.lua")
	if err := os.WriteFile(path, []byte("-- init"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := InitFile(); got != path {
		t.Errorf("InitFile() = %q, want %q", got, path)
	}
}

func TestDebugEnabled(t *testing.T) {
	t.Setenv(envDebug, "1")
	if !DebugEnabled() {
		t.Error("expected debug on")
	}
	t.Setenv(envDebug, "")
	if DebugEnabled() {
		t.Error("expected debug off")
	}
}
