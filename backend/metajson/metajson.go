// Package metajson implements the metadata-only diagnostic backend.
//
// Instead of pixels it emits a JSON document describing the render request
// and the font file. It is enumerated by the registry but flagged as
// unsuitable for image preview, so user-facing pickers exclude it while
// diagnostic tooling can still select it.
//
// Importing this package registers the "metajson" backend.
package metajson

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fontproof/fontproof"
	"github.com/fontproof/fontproof/backend"
)

func init() {
	backend.Register(backend.MetaJSON, func() backend.Renderer { return Renderer{} })
}

// Renderer is the metadata backend. It is stateless.
type Renderer struct{}

// ID implements backend.Renderer.
func (Renderer) ID() backend.ID { return backend.MetaJSON }

// Capabilities implements backend.Renderer.
func (Renderer) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Transparency: false,
		Output:       backend.OutputMetadata,
		Variations:   false,
		Preview:      false,
		Description:  "JSON metadata output for diagnostics; no image",
	}
}

// axisValue is one resolved variation coordinate in the JSON payload.
type axisValue struct {
	Tag   string  `json:"tag"`
	Value float64 `json:"value"`
}

// payload is the JSON document emitted per render.
type payload struct {
	FontPath   string      `json:"font_path"`
	FileSize   int64       `json:"file_size"`
	SampleText string      `json:"sample_text"`
	FontSize   float64     `json:"font_size"`
	Foreground string      `json:"foreground"`
	Background string      `json:"background,omitempty"`
	Padding    int         `json:"padding"`
	Variations []axisValue `json:"variations,omitempty"`
}

// Render implements backend.Renderer. The result carries the JSON document
// in the pixel buffer with zero dimensions and format "json", mirroring how
// non-visual engine backends report.
func (r Renderer) Render(ctx context.Context, fontPath string, settings fontproof.RenderSettings) (*fontproof.RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	info, err := os.Stat(fontPath)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", fontproof.ErrFontLoadFailed, fontPath, err)
	}

	p := payload{
		FontPath:   fontPath,
		FileSize:   info.Size(),
		SampleText: settings.SampleText,
		FontSize:   settings.FontSize,
		Foreground: settings.Foreground.Hex(),
		Padding:    settings.Padding,
	}
	if settings.Background != nil {
		p.Background = settings.Background.Hex()
	}
	for tag, v := range settings.Variations {
		p.Variations = append(p.Variations, axisValue{Tag: tag, Value: v})
	}
	sort.Slice(p.Variations, func(i, j int) bool { return p.Variations[i].Tag < p.Variations[j].Tag })

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding metadata: %v", fontproof.ErrRenderFailed, err)
	}

	return &fontproof.RenderResult{
		Width:   0,
		Height:  0,
		Pixels:  data,
		Backend: string(r.ID()),
		Format:  "json",
		Elapsed: time.Since(start),
	}, nil
}
