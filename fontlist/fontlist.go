// Package fontlist maintains the session's set of loaded fonts.
//
// Fonts are identified by file path and are immutable for the lifetime of
// the session: metadata is extracted once at load and never re-read.
package fontlist

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fontproof/fontproof"
	"github.com/fontproof/fontproof/fontmeta"
	"github.com/fontproof/fontproof/install"
)

// ErrDuplicate reports an attempt to load a path that is already in the
// list.
var ErrDuplicate = errors.New("fontproof: font already loaded")

// List is the session font list.
//
// List is safe for concurrent use.
type List struct {
	mu    sync.RWMutex
	fonts []fontmeta.FontRecord
	byPos map[string]int // path to index in fonts
}

// New creates an empty font list.
func New() *List {
	return &List{byPos: make(map[string]int)}
}

// Add loads the font at path, extracts its metadata, and appends it to the
// list. Adding a path that is already present fails with ErrDuplicate.
// Relative paths are resolved against the current directory so that the
// same file cannot be loaded twice under different spellings.
func (l *List) Add(path string) (fontmeta.FontRecord, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fontmeta.FontRecord{}, fmt.Errorf("%w: resolving %s: %v", fontproof.ErrIO, path, err)
	}

	l.mu.RLock()
	_, dup := l.byPos[abs]
	l.mu.RUnlock()
	if dup {
		return fontmeta.FontRecord{}, fmt.Errorf("%w: %s", ErrDuplicate, abs)
	}

	rec, err := fontmeta.Extract(abs)
	if err != nil {
		return fontmeta.FontRecord{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.byPos[abs]; dup {
		return fontmeta.FontRecord{}, fmt.Errorf("%w: %s", ErrDuplicate, abs)
	}
	l.byPos[abs] = len(l.fonts)
	l.fonts = append(l.fonts, *rec)

	fontproof.Logger().Info("font loaded",
		"path", abs, "family", rec.Family, "style", rec.Style,
		"variable", rec.IsVariable())
	return *rec, nil
}

// Remove drops the font with the given path from the list. Removing an
// unknown path is a no-op returning false.
func (l *List) Remove(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.byPos[abs]
	if !ok {
		return false
	}
	l.fonts = append(l.fonts[:i], l.fonts[i+1:]...)
	delete(l.byPos, abs)
	for j := i; j < len(l.fonts); j++ {
		l.byPos[l.fonts[j].Path] = j
	}
	return true
}

// Get returns the record for path, if loaded.
func (l *List) Get(path string) (fontmeta.FontRecord, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fontmeta.FontRecord{}, false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.byPos[abs]
	if !ok {
		return fontmeta.FontRecord{}, false
	}
	return l.fonts[i], true
}

// Fonts returns a snapshot of the list in load order. The returned slice
// is the caller's to keep.
func (l *List) Fonts() []fontmeta.FontRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]fontmeta.FontRecord, len(l.fonts))
	copy(out, l.fonts)
	return out
}

// Len returns the number of loaded fonts.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.fonts)
}

// RefreshInstallState queries the manager and updates each record's
// install state. Fonts the manager cannot be asked about keep
// InstallUnknown.
func (l *List) RefreshInstallState(m install.Manager) error {
	installed, err := m.Installed()
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.fonts {
		if installed[filepath.Base(l.fonts[i].Path)] {
			l.fonts[i].Install = fontmeta.Installed
		} else {
			l.fonts[i].Install = fontmeta.NotInstalled
		}
	}
	return nil
}
