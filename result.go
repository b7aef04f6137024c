package fontproof

import (
	"fmt"
	"image"
	"time"
)

// FormatRGBA8 is the format label for raw 8-bit RGBA pixel output.
// Backends producing something else (e.g. the metadata backend's JSON)
// set their own label; only RGBA results are suitable for image preview.
const FormatRGBA8 = "rgba8"

// RenderResult is the output of one successful render.
//
// A result stored in the cache is owned by its cache entry and must be
// treated as read-only by consumers; use Clone before modifying pixels.
type RenderResult struct {
	// Width and Height are the pixel dimensions of the output.
	Width  int
	Height int

	// Pixels is the raw pixel buffer. For FormatRGBA8 its length is
	// exactly Width*Height*4, with straight-alpha RGBA channel order.
	Pixels []uint8

	// Backend is the identifier of the backend that produced the result.
	Backend string

	// Format is an opaque label describing the buffer layout.
	Format string

	// Elapsed is the duration of the engine call that produced the result.
	Elapsed time.Duration
}

// Validate checks the pixel-buffer invariant for raster results. Every
// result must carry a format label; formats other than FormatRGBA8 carry
// opaque payloads and are not checked further.
func (r *RenderResult) Validate() error {
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("fontproof: negative result dimensions %dx%d", r.Width, r.Height)
	}
	if r.Format == "" {
		return fmt.Errorf("fontproof: result carries no format label")
	}
	if r.Format != FormatRGBA8 {
		return nil
	}
	want := r.Width * r.Height * 4
	if len(r.Pixels) != want {
		return fmt.Errorf("fontproof: pixel buffer length mismatch (expected %d, got %d)",
			want, len(r.Pixels))
	}
	return nil
}

// Clone returns a deep copy of the result, including the pixel buffer.
func (r *RenderResult) Clone() *RenderResult {
	out := *r
	out.Pixels = make([]uint8, len(r.Pixels))
	copy(out.Pixels, r.Pixels)
	return &out
}

// Image converts a raster result into an image.NRGBA sharing no memory with
// the result, sufficient input for any downstream encoding step (e.g. PNG).
// Returns nil for non-raster results.
func (r *RenderResult) Image() *image.NRGBA {
	if err := r.Validate(); err != nil {
		return nil
	}
	if r.Format != FormatRGBA8 {
		return nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	copy(img.Pix, r.Pixels)
	return img
}
