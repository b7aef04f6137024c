package fontproof

import "errors"

// Sentinel errors for the rendering pipeline. Operations wrap these with
// context via fmt.Errorf("%w: ...") so callers can classify failures with
// errors.Is.
var (
	// ErrInvalidFont is returned when a file cannot be parsed as a
	// supported font container.
	ErrInvalidFont = errors.New("fontproof: invalid font file")

	// ErrIO is returned when a font file cannot be read.
	ErrIO = errors.New("fontproof: i/o failure")

	// ErrBackendUnavailable is returned when a requested backend is not
	// compiled in or not usable on the current host.
	ErrBackendUnavailable = errors.New("fontproof: backend unavailable")

	// ErrFontLoadFailed is returned when the rendering engine could not
	// load or shape the given font.
	ErrFontLoadFailed = errors.New("fontproof: font load failed")

	// ErrRenderFailed is returned when the engine ran but produced no
	// usable output.
	ErrRenderFailed = errors.New("fontproof: render failed")

	// ErrEmptySelection is returned when a scoped batch is requested with
	// an empty selection. It is raised before any render is attempted.
	ErrEmptySelection = errors.New("fontproof: empty selection")
)
