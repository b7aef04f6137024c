// Package vector implements the outline-accurate rendering backend.
//
// Text is shaped with go-text/typesetting's HarfBuzz implementation
// (ligatures, kerning, complex scripts, right-to-left runs) and glyph
// outlines are rasterized with golang.org/x/image/vector. Variable-font
// axis coordinates are applied through the shaping face, so variation
// instances render with true interpolated outlines.
//
// Importing this package registers the "vector" backend.
package vector

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"
	"os"
	"sync"
	"time"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"golang.org/x/text/unicode/bidi"

	"github.com/fontproof/fontproof"
	"github.com/fontproof/fontproof/backend"
)

func init() {
	backend.Register(backend.Vector, func() backend.Renderer { return New() })
}

// Renderer is the vector backend.
//
// It caches parsed font.Font objects (which are thread-safe) per file path
// and creates lightweight font.Face instances per Render call (font.Face is
// NOT safe for concurrent use). The HarfbuzzShaper instances are pooled via
// sync.Pool since they also are not concurrent-safe.
//
// Renderer is safe for concurrent use.
type Renderer struct {
	// shaperPool pools HarfbuzzShaper instances for concurrent use.
	shaperPool sync.Pool

	// mu protects the font cache.
	mu sync.RWMutex

	// fontCache maps font file paths to parsed go-text Font objects.
	// Loaded fonts are treated as immutable for the session, so the path
	// is a stable cache key. font.Font is read-only and safe for
	// concurrent use, unlike font.Face.
	fontCache map[string]*font.Font
}

// New creates a vector backend renderer.
func New() *Renderer {
	return &Renderer{
		shaperPool: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
		fontCache: make(map[string]*font.Font),
	}
}

// ID implements backend.Renderer.
func (r *Renderer) ID() backend.ID { return backend.Vector }

// Capabilities implements backend.Renderer.
func (r *Renderer) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Transparency: true,
		Output:       backend.OutputVector,
		Variations:   true,
		Preview:      true,
		Description:  "HarfBuzz-shaped outline renderer; best default choice",
	}
}

// Render implements backend.Renderer.
func (r *Renderer) Render(ctx context.Context, fontPath string, settings fontproof.RenderSettings) (*fontproof.RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	fnt, err := r.getOrCreateFont(fontPath)
	if err != nil {
		return nil, err
	}

	face := font.NewFace(fnt)
	applyVariations(face, settings.Variations)

	pad := settings.Padding

	runes := []rune(settings.SampleText)
	if len(runes) == 0 {
		// Empty text is legal: a blank, near-zero-size canvas.
		return blankResult(r.ID(), pad, settings, start), nil
	}

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: detectDirection(settings.SampleText),
		Face:      face,
		Size:      fixed.Int26_6(settings.FontSize * 64),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	// HarfbuzzShaper is not concurrent-safe; each call borrows one from
	// the pool.
	hb := r.shaperPool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	r.shaperPool.Put(hb)

	if len(output.Glyphs) == 0 {
		return nil, fmt.Errorf("%w: shaping produced no glyphs for %q",
			fontproof.ErrRenderFailed, settings.SampleText)
	}

	ascent := fixedToFloat(output.LineBounds.Ascent)
	descent := fixedToFloat(output.LineBounds.Descent) // negative below baseline
	advance := fixedToFloat(output.Advance)

	width := int(math.Ceil(advance)) + 2*pad
	height := int(math.Ceil(ascent-descent)) + 2*pad

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if settings.Background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(settings.Background.NRGBA()), image.Point{}, draw.Src)
	}

	ras := vector.NewRasterizer(width, height)
	scale := float32(settings.FontSize) / float32(face.Upem())

	penX := float32(pad)
	baseline := float32(pad) + float32(ascent)
	for i := range output.Glyphs {
		g := &output.Glyphs[i]
		x := penX + fixedToFloat32(g.XOffset)
		y := baseline - fixedToFloat32(g.YOffset)

		if outline, ok := face.GlyphData(g.GlyphID).(font.GlyphOutline); ok {
			appendOutline(ras, outline, x, y, scale)
		}
		penX += fixedToFloat32(g.XAdvance)
	}
	ras.Draw(img, img.Bounds(), image.NewUniform(settings.Foreground.NRGBA()), image.Point{})

	return &fontproof.RenderResult{
		Width:   width,
		Height:  height,
		Pixels:  img.Pix,
		Backend: string(r.ID()),
		Format:  fontproof.FormatRGBA8,
		Elapsed: time.Since(start),
	}, nil
}

// getOrCreateFont returns a cached parsed font for the given path, loading
// and parsing it on first use. Double-checked locking keeps concurrent
// renders of the same font down to one parse.
func (r *Renderer) getOrCreateFont(path string) (*font.Font, error) {
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
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", fontproof.ErrFontLoadFailed, path, err)
	}

	r.fontCache[path] = face.Font
	return face.Font, nil
}

// applyVariations sets the face's design-space coordinates. Tags are
// already validated and clamped by the orchestrator; anything that is not a
// 4-byte tag is skipped rather than allowed to panic tag construction.
func applyVariations(face *font.Face, coords map[string]float64) {
	if len(coords) == 0 {
		return
	}
	vars := make([]font.Variation, 0, len(coords))
	for tag, value := range coords {
		if len(tag) != 4 {
			continue
		}
		vars = append(vars, font.Variation{
			Tag:   ot.MustNewTag(tag),
			Value: float32(value),
		})
	}
	face.SetVariations(vars)
}

// appendOutline walks the glyph outline segments into the rasterizer,
// scaling from font units to pixels and flipping Y (font outlines are
// Y-up, images are Y-down). Subpaths are closed implicitly.
func appendOutline(ras *vector.Rasterizer, outline font.GlyphOutline, x, y, scale float32) {
	for _, s := range outline.Segments {
		p0x := s.Args[0].X*scale + x
		p0y := -s.Args[0].Y*scale + y
		switch s.Op {
		case ot.SegmentOpMoveTo:
			ras.MoveTo(p0x, p0y)
		case ot.SegmentOpLineTo:
			ras.LineTo(p0x, p0y)
		case ot.SegmentOpQuadTo:
			p1x := s.Args[1].X*scale + x
			p1y := -s.Args[1].Y*scale + y
			ras.QuadTo(p0x, p0y, p1x, p1y)
		case ot.SegmentOpCubeTo:
			p1x := s.Args[1].X*scale + x
			p1y := -s.Args[1].Y*scale + y
			p2x := s.Args[2].X*scale + x
			p2y := -s.Args[2].Y*scale + y
			ras.CubeTo(p0x, p0y, p1x, p1y, p2x, p2y)
		}
	}
}

// blankResult builds the canvas for an empty sample text: padding only,
// optionally filled with the background color.
func blankResult(id backend.ID, pad int, settings fontproof.RenderSettings, start time.Time) *fontproof.RenderResult {
	side := 2 * pad
	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	if settings.Background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(settings.Background.NRGBA()), image.Point{}, draw.Src)
	}
	return &fontproof.RenderResult{
		Width:   side,
		Height:  side,
		Pixels:  img.Pix,
		Backend: string(id),
		Format:  fontproof.FormatRGBA8,
		Elapsed: time.Since(start),
	}
}

// detectDirection resolves the paragraph direction of the sample text.
// Right-to-left scripts (Arabic, Hebrew) shape with RTL glyph order.
func detectDirection(text string) di.Direction {
	var p bidi.Paragraph
	if _, err := p.SetString(text); err != nil {
		return di.DirectionLTR
	}
	if p.Direction() == bidi.RightToLeft {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// detectScript inspects the runes and returns the script of the first
// non-space character. This is a simple heuristic; preview text is a
// single run.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

// fixedToFloat converts a fixed.Int26_6 value to float64.
func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

// fixedToFloat32 converts a fixed.Int26_6 value to float32.
func fixedToFloat32(v fixed.Int26_6) float32 { return float32(v) / 64 }
