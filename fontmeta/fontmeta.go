// Package fontmeta extracts structured metadata from font files: name-table
// derived names, file size, install state, and variable-font axes.
package fontmeta

import "fmt"

// InstallState describes whether a font is installed on the host system.
// It is refreshed from the external font-installation manager; extraction
// alone cannot determine it.
type InstallState uint8

const (
	// InstallUnknown means the install state has not been refreshed yet.
	InstallUnknown InstallState = iota

	// Installed means the font is installed on the host.
	Installed

	// NotInstalled means the font is not installed on the host.
	NotInstalled
)

// String returns a human-readable install state.
func (s InstallState) String() string {
	switch s {
	case Installed:
		return "installed"
	case NotInstalled:
		return "not installed"
	default:
		return "unknown"
	}
}

// VariationAxis is one variable-font axis. It is owned by the FontRecord
// that declares it and is read-only after extraction.
//
// Invariant: Min <= Default <= Max. Malformed axis records are sanitized
// during extraction so the invariant always holds.
type VariationAxis struct {
	// Tag is the 4-character axis tag (e.g. "wght").
	Tag string

	// Name is the human-readable axis name: a fixed name for known tags,
	// the raw tag string otherwise.
	Name string

	Min     float64
	Default float64
	Max     float64
}

// Clamp returns value limited to the axis range.
func (a VariationAxis) Clamp(value float64) float64 {
	if value < a.Min {
		return a.Min
	}
	if value > a.Max {
		return a.Max
	}
	return value
}

// FontRecord represents one loaded font file. The absolute file path is its
// stable identity for the session.
//
// Records are immutable after extraction except for the install state,
// which is refreshed from the font-installation collaborator.
type FontRecord struct {
	// Path is the font file path, unique among loaded records.
	Path string

	// Family is the font family name.
	Family string

	// Style is the style/subfamily name (e.g. "Bold Italic").
	Style string

	// PostScript is the PostScript name, empty when the font has none.
	PostScript string

	// FileSize is the font file size in bytes.
	FileSize int64

	// Install is the host install state, InstallUnknown until refreshed.
	Install InstallState

	// Axes is the ordered sequence of variation axes declared by the
	// font. Empty for non-variable fonts.
	Axes []VariationAxis
}

// IsVariable reports whether the font declares any variation axes.
func (r *FontRecord) IsVariable() bool {
	return len(r.Axes) > 0
}

// Axis returns the declared axis with the given tag, if any.
func (r *FontRecord) Axis(tag string) (VariationAxis, bool) {
	for _, a := range r.Axes {
		if a.Tag == tag {
			return a, true
		}
	}
	return VariationAxis{}, false
}

// FormatFileSize renders a byte count for display (B, KB, or MB).
func FormatFileSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
	)
	switch {
	case bytes < kb:
		return fmt.Sprintf("%d B", bytes)
	case bytes < mb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	}
}
