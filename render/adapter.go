package render

import (
	"context"
	"fmt"
	"sync"

	"github.com/fontproof/fontproof"
	"github.com/fontproof/fontproof/backend"
	"github.com/fontproof/fontproof/fontmeta"
)

// Adapter wraps the rendering engine behind a uniform call, bound to the
// currently selected backend. Switching backends is a pure configuration
// change with no I/O; a failed switch leaves the previous backend active.
//
// Adapter is safe for concurrent use: renders may run while the backend is
// being switched, each call using the backend active when it started.
type Adapter struct {
	mu     sync.RWMutex
	active backend.Renderer
}

// NewAdapter creates an adapter bound to the given backend identifier.
// An empty identifier selects the preferred usable backend.
func NewAdapter(id backend.ID) (*Adapter, error) {
	var (
		r   backend.Renderer
		err error
	)
	if id == "" {
		r, err = backend.Default()
	} else {
		r, err = backend.Get(id)
	}
	if err != nil {
		return nil, err
	}
	return &Adapter{active: r}, nil
}

// SetBackend switches the active backend. It fails with a
// fontproof.ErrBackendUnavailable wrap when the identifier is not usable,
// leaving the previously active backend in effect.
func (a *Adapter) SetBackend(id backend.ID) error {
	r, err := backend.Get(id)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.active = r
	a.mu.Unlock()

	fontproof.Logger().Info("render backend switched", "backend", string(id))
	return nil
}

// ActiveID returns the identifier of the active backend.
func (a *Adapter) ActiveID() backend.ID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active.ID()
}

// Capabilities returns the capability record of the active backend.
func (a *Adapter) Capabilities() backend.Capabilities {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active.Capabilities()
}

// snapshot returns the currently active backend. Callers that derive cache
// identity from the backend must render through the same snapshot, not
// through Render, so a concurrent SetBackend cannot divorce key from engine.
func (a *Adapter) snapshot() backend.Renderer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active
}

// Render renders the sample text with the given font through the active
// backend. The failure taxonomy is the backend contract's: FontLoadFailed,
// BackendUnavailable, or RenderFailed. No retries are performed; retry
// policy belongs to the orchestrator's caller.
func (a *Adapter) Render(ctx context.Context, fontPath string, settings fontproof.RenderSettings) (*fontproof.RenderResult, error) {
	return renderThrough(a.snapshot(), ctx, fontPath, settings)
}

// renderThrough runs one render on a fixed backend instance and validates
// its output.
func renderThrough(active backend.Renderer, ctx context.Context, fontPath string, settings fontproof.RenderSettings) (*fontproof.RenderResult, error) {
	result, err := active.Render(ctx, fontPath, settings)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: backend %q returned no output",
			fontproof.ErrRenderFailed, string(active.ID()))
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", fontproof.ErrRenderFailed, err)
	}
	return result, nil
}

// SyncVariations aligns settings to the axes a font declares: it seeds
// defaults for missing axes, clamps present coordinates into the axis
// range, and drops coordinates for axes the font does not declare.
// Out-of-range coordinates are always clamped, never rejected.
//
// The input settings are not modified; the returned copy is what reaches
// the engine (cache keys are computed from the caller's settings).
func SyncVariations(settings fontproof.RenderSettings, axes []fontmeta.VariationAxis) fontproof.RenderSettings {
	out := settings.Clone()
	if len(axes) == 0 {
		out.Variations = nil
		return out
	}

	synced := make(map[string]float64, len(axes))
	for _, axis := range axes {
		value := axis.Default
		if v, ok := settings.Variations[axis.Tag]; ok {
			value = axis.Clamp(v)
		}
		synced[axis.Tag] = value
	}
	out.Variations = synced
	return out
}
