// Package install abstracts per-platform font installation.
//
// The rest of the system only tracks whether a font is installed; the
// mechanics of copying files into platform font directories and notifying
// the system live behind the Manager interface.
package install

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fontproof/fontproof"
)

// Scope selects where a font is installed.
type Scope uint8

const (
	// ScopeUser installs for the current user only.
	ScopeUser Scope = iota
	// ScopeSystem installs machine-wide. Usually requires elevation.
	ScopeSystem
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeUser:
		return "user"
	case ScopeSystem:
		return "system"
	default:
		return fmt.Sprintf("Scope(%d)", s)
	}
}

// Manager installs and uninstalls fonts and reports what is installed.
//
// Implementations are queried by filename, not full path: two files with
// the same base name are considered the same font for install purposes,
// matching how platform font directories behave.
type Manager interface {
	// Install copies the font at path into the scope's font directory.
	Install(path string, scope Scope) error

	// Uninstall removes the font with path's base name from the user
	// font directory.
	Uninstall(path string) error

	// Installed reports the base names of currently installed fonts.
	Installed() (map[string]bool, error)
}

// DirManager is a Manager backed by plain directory copies. It covers
// Linux-style font directories; platform notification (cache refresh) is
// left to the system's own file watchers.
type DirManager struct {
	userDir   string
	systemDir string
}

// NewDirManager creates a manager over the platform's conventional font
// directories for the current user.
func NewDirManager() (*DirManager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("%w: resolving home directory: %v", fontproof.ErrIO, err)
	}

	m := &DirManager{
		userDir:   filepath.Join(home, ".local", "share", "fonts"),
		systemDir: "/usr/local/share/fonts",
	}
	if runtime.GOOS == "darwin" {
		m.userDir = filepath.Join(home, "Library", "Fonts")
		m.systemDir = "/Library/Fonts"
	}
	return m, nil
}

// NewDirManagerAt creates a manager over explicit directories, mainly for
// tests and non-standard layouts.
func NewDirManagerAt(userDir, systemDir string) *DirManager {
	return &DirManager{userDir: userDir, systemDir: systemDir}
}

// Install implements Manager.
func (m *DirManager) Install(path string, scope Scope) error {
	dir := m.userDir
	if scope == ScopeSystem {
		dir = m.systemDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", fontproof.ErrIO, dir, err)
	}

	dst := filepath.Join(dir, filepath.Base(path))
	if err := copyFile(path, dst); err != nil {
		return err
	}

	fontproof.Logger().Info("font installed",
		"path", path, "scope", scope.String(), "dest", dst)
	return nil
}

// Uninstall implements Manager. Only user-scope fonts are removed;
// system-scope uninstall is not attempted.
func (m *DirManager) Uninstall(path string) error {
	target := filepath.Join(m.userDir, filepath.Base(path))
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: removing %s: %v", fontproof.ErrIO, target, err)
	}

	fontproof.Logger().Info("font uninstalled", "path", target)
	return nil
}

// Installed implements Manager. Both scopes are scanned; a missing
// directory counts as empty.
func (m *DirManager) Installed() (map[string]bool, error) {
	names := make(map[string]bool)
	for _, dir := range []string{m.userDir, m.systemDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("%w: reading %s: %v", fontproof.ErrIO, dir, err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				names[e.Name()] = true
			}
		}
	}
	return names, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", fontproof.ErrIO, src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", fontproof.ErrIO, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("%w: copying to %s: %v", fontproof.ErrIO, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", fontproof.ErrIO, dst, err)
	}
	return nil
}
