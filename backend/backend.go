// Package backend defines the rendering backend contract and the registry
// of backends compiled into the running build.
//
// Backends register themselves from init() in their own packages (import
// the ones a build should carry); the registry filters the compiled-in set
// down to what is usable on the current host and exposes a fixed capability
// record per backend.
package backend

import (
	"context"

	"github.com/fontproof/fontproof"
)

// ID identifies a rendering backend.
type ID string

// The closed set of backend identifiers known to this build. Native is a
// registration point for platform builds (e.g. a CoreGraphics renderer
// registered behind a build tag); it is enumerated but unusable unless such
// a build registers it.
const (
	Vector   ID = "vector"
	Bitmap   ID = "bitmap"
	MetaJSON ID = "metajson"
	Native   ID = "native"
)

// Known returns the closed enumeration of backend identifiers, in
// preference order. Registration of identifiers outside this set is
// rejected, keeping platform availability a runtime predicate over a fixed
// enumeration rather than an open namespace.
func Known() []ID {
	return []ID{Vector, Native, Bitmap, MetaJSON}
}

// OutputKind describes what a backend produces.
type OutputKind uint8

const (
	// OutputRaster marks backends producing pixel output from a raster
	// pipeline.
	OutputRaster OutputKind = iota

	// OutputVector marks backends producing pixel output from an
	// outline-accurate vector pipeline.
	OutputVector

	// OutputMetadata marks non-visual backends producing diagnostic
	// metadata instead of pixels.
	OutputMetadata
)

// String returns the output kind name.
func (k OutputKind) String() string {
	switch k {
	case OutputVector:
		return "vector"
	case OutputMetadata:
		return "metadata"
	default:
		return "raster"
	}
}

// Capabilities is the fixed capability description of a backend.
type Capabilities struct {
	// Transparency reports whether the backend honors a nil background.
	Transparency bool

	// Output is the kind of output the backend produces.
	Output OutputKind

	// Variations reports whether the backend applies variable-font axis
	// coordinates.
	Variations bool

	// Preview reports whether the backend is suitable for user-facing
	// image previews. Metadata-only backends are enumerated with Preview
	// false so callers can exclude them from selection while keeping them
	// available for diagnostics.
	Preview bool

	// Description is a short human-readable summary.
	Description string
}

// Renderer is one rendering backend implementation.
//
// Render produces a RenderResult for the font file at fontPath under the
// given settings, or an error wrapping one of the fontproof sentinel kinds:
// ErrFontLoadFailed when the font cannot be loaded or shaped,
// ErrBackendUnavailable when the backend cannot run in this environment,
// ErrRenderFailed when it ran but produced no usable output.
// Renderers perform no retries; retry policy belongs to the orchestrator.
//
// Renderers must be safe for concurrent use.
type Renderer interface {
	// ID returns the backend identifier.
	ID() ID

	// Capabilities returns the backend's fixed capability record.
	Capabilities() Capabilities

	// Render renders settings.SampleText with the given font.
	Render(ctx context.Context, fontPath string, settings fontproof.RenderSettings) (*fontproof.RenderResult, error)
}
