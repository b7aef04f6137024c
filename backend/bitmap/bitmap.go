// Package bitmap implements a raster rendering backend on top of
// golang.org/x/image's opentype faces and font.Drawer.
//
// It is simpler and faster than the vector backend but performs no
// HarfBuzz shaping and ignores variable-font axis coordinates: variable
// fonts render at their default instance.
//
// Importing this package registers the "bitmap" backend.
package bitmap

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"os"
	"sync"
	"time"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/fontproof/fontproof"
	"github.com/fontproof/fontproof/backend"
)

func init() {
	backend.Register(backend.Bitmap, func() backend.Renderer { return New() })
}

// Renderer is the bitmap backend. It caches parsed fonts per path; faces
// are created per call since font.Face is not safe for concurrent use.
//
// Renderer is safe for concurrent use.
type Renderer struct {
	mu        sync.RWMutex
	fontCache map[string]*opentype.Font
}

// New creates a bitmap backend renderer.
func New() *Renderer {
	return &Renderer{fontCache: make(map[string]*opentype.Font)}
}

// ID implements backend.Renderer.
func (r *Renderer) ID() backend.ID { return backend.Bitmap }

// Capabilities implements backend.Renderer.
func (r *Renderer) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Transparency: true,
		Output:       backend.OutputRaster,
		Variations:   false,
		Preview:      true,
		Description:  "Fast raster previews without shaping; default variable-font instance only",
	}
}

// Render implements backend.Renderer.
func (r *Renderer) Render(ctx context.Context, fontPath string, settings fontproof.RenderSettings) (*fontproof.RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	parsed, err := r.getOrCreateFont(fontPath)
	if err != nil {
		return nil, err
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    settings.FontSize,
		DPI:     72,
		Hinting: xfont.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: face for %s: %v", fontproof.ErrFontLoadFailed, fontPath, err)
	}
	defer func() {
		_ = face.Close()
	}()

	pad := settings.Padding
	metrics := face.Metrics()
	advance := xfont.MeasureString(face, settings.SampleText)

	width := advance.Ceil() + 2*pad
	height := (metrics.Ascent + metrics.Descent).Ceil() + 2*pad

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if settings.Background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(settings.Background.NRGBA()), image.Point{}, draw.Src)
	}

	if settings.SampleText != "" {
		d := &xfont.Drawer{
			Dst:  img,
			Src:  image.NewUniform(settings.Foreground.NRGBA()),
			Face: face,
			Dot: fixed.Point26_6{
				X: fixed.I(pad),
				Y: fixed.I(pad) + metrics.Ascent,
			},
		}
		d.DrawString(settings.SampleText)
	}

	return &fontproof.RenderResult{
		Width:   width,
		Height:  height,
		Pixels:  img.Pix,
		Backend: string(r.ID()),
		Format:  fontproof.FormatRGBA8,
		Elapsed: time.Since(start),
	}, nil
}

func (r *Renderer) getOrCreateFont(path string) (*opentype.Font, error) {
	r.mu.RLock()
	if f, ok := r.fontCache[path]; ok {
		r.mu.RUnlock()
		return f, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.fontCache[path]; ok {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", fontproof.ErrFontLoadFailed, path, err)
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", fontproof.ErrFontLoadFailed, path, err)
	}

	r.fontCache[path] = parsed
	return parsed, nil
}
