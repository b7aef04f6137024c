package install

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T) *DirManager {
	t.Helper()
	base := t.TempDir()
	return NewDirManagerAt(filepath.Join(base, "user"), filepath.Join(base, "system"))
}

func writeFontFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("font bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInstallUserScope(t *testing.T) {
	m := newTestManager(t)
	src := writeFontFile(t, "Sample.ttf")

	if err := m.Install(src, ScopeUser); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	installed, err := m.Installed()
	if err != nil {
		t.Fatal(err)
	}
	if !installed["Sample.ttf"] {
		t.Errorf("Installed() = %v, want Sample.ttf present", installed)
	}

	data, err := os.ReadFile(filepath.Join(m.userDir, "Sample.ttf"))
	if err != nil || string(data) != "font bytes" {
		t.Errorf("installed file = %q, %v", data, err)
	}
}

func TestInstallSystemScope(t *testing.T) {
	m := newTestManager(t)
	src := writeFontFile(t, "Sys.ttf")

	if err := m.Install(src, ScopeSystem); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(m.systemDir, "Sys.ttf")); err != nil {
		t.Errorf("system install missing: %v", err)
	}
}

func TestUninstall(t *testing.T) {
	m := newTestManager(t)
	src := writeFontFile(t, "Gone.ttf")

	if err := m.Install(src, ScopeUser); err != nil {
		t.Fatal(err)
	}
	if err := m.Uninstall(src); err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}

	installed, err := m.Installed()
	if err != nil {
		t.Fatal(err)
	}
	if installed["Gone.ttf"] {
		t.Error("font still reported installed after Uninstall")
	}

	// Uninstalling again is a no-op, not an error.
	if err := m.Uninstall(src); err != nil {
		t.Errorf("repeat Uninstall() error = %v", err)
	}
}

func TestInstalledMissingDirs(t *testing.T) {
	m := newTestManager(t)
	installed, err := m.Installed()
	if err != nil {
		t.Fatalf("Installed() error = %v with no directories", err)
	}
	if len(installed) != 0 {
		t.Errorf("Installed() = %v, want empty", installed)
	}
}

func TestInstallMissingSource(t *testing.T) {
	m := newTestManager(t)
	if err := m.Install(filepath.Join(t.TempDir(), "absent.ttf"), ScopeUser); err == nil {
		t.Error("installing a missing file succeeded")
	}
}

func TestScopeString(t *testing.T) {
	if ScopeUser.String() != "user" || ScopeSystem.String() != "system" {
		t.Errorf("Scope strings = %q, %q", ScopeUser, ScopeSystem)
	}
}
