package render

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fontproof/fontproof"
	"github.com/fontproof/fontproof/fontmeta"
)

// BatchSuccess pairs a font identity with its render result.
type BatchSuccess struct {
	Path   string
	Result *fontproof.RenderResult
}

// BatchFailure pairs a font identity with its render error.
type BatchFailure struct {
	Path string
	Err  error
}

// BatchOutcome reports one batch render. Every font in the working set
// appears exactly once, in working-set order, in either Successes or
// Failures.
type BatchOutcome struct {
	Successes []BatchSuccess
	Failures  []BatchFailure

	// Elapsed is the wall-clock span of the whole batch, measured on the
	// monotonic clock. Per-font durations are on each RenderResult.
	Elapsed time.Duration
}

// Option configures an Orchestrator during creation.
type Option func(*Orchestrator)

// WithWorkers sets the maximum number of concurrent per-font renders.
// Values below 1 fall back to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// Orchestrator is the sole entry point for producing previews: it consults
// the cache, issues only the necessary renders through the adapter, and
// merges results back into the cache.
//
// Orchestrator is safe for concurrent use; overlapping batches racing on
// the same key share a single underlying render.
type Orchestrator struct {
	adapter *Adapter
	cache   *Cache
	workers int
}

// NewOrchestrator creates an orchestrator over the given adapter and cache.
func NewOrchestrator(adapter *Adapter, cache *Cache, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		adapter: adapter,
		cache:   cache,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Cache returns the orchestrator's preview cache.
func (o *Orchestrator) Cache() *Cache { return o.cache }

// Adapter returns the orchestrator's engine adapter.
func (o *Orchestrator) Adapter() *Adapter { return o.adapter }

// Cached returns a read-only view of a cached result, e.g. for export.
func (o *Orchestrator) Cached(key fontproof.CacheKey) (*fontproof.RenderResult, bool) {
	return o.cache.Lookup(key)
}

// RenderBatch renders the sample text for each font in the working set
// under one shared settings value.
//
// The working set is all fonts, or only those whose paths appear in scope
// when scope is non-nil ("render selected only"). A non-nil scope that
// selects nothing fails fast with fontproof.ErrEmptySelection before any
// render is attempted.
//
// Each font's render is independent: a failure is recorded per font and
// never aborts siblings. Renders fan out across at most the configured
// number of workers. Cancelling ctx stops the batch cooperatively: fonts
// not yet rendered are reported as failures wrapping the context error,
// while in-flight renders complete and still populate the cache (their key
// reflects the settings they were computed under).
//
// The whole batch renders through the backend that is active when it
// starts: the settings' Backend field is overwritten with that backend's
// identifier before fingerprinting, and every render in the batch goes to
// the same backend instance, so a SetBackend racing the batch can never
// store a result under a key naming a different backend. The switch takes
// effect from the next batch.
func (o *Orchestrator) RenderBatch(ctx context.Context, fonts []fontmeta.FontRecord, settings fontproof.RenderSettings, scope []string) (*BatchOutcome, error) {
	start := time.Now()

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	working, err := workingSet(fonts, scope)
	if err != nil {
		return nil, err
	}

	engine := o.adapter.snapshot()
	settings = settings.Clone()
	settings.Backend = string(engine.ID())

	type slot struct {
		result *fontproof.RenderResult
		err    error
	}
	slots := make([]slot, len(working))

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i := range working {
		rec := &working[i]
		s := &slots[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				s.err = err
				return nil
			}
			key := fontproof.Key(rec.Path, settings)
			s.result, s.err = o.cache.Do(key, func() (*fontproof.RenderResult, error) {
				return renderThrough(engine, ctx, rec.Path, SyncVariations(settings, rec.Axes))
			})
			return nil
		})
	}
	// Workers never return errors; failures are collected per slot.
	_ = g.Wait()

	outcome := &BatchOutcome{}
	for i := range working {
		if slots[i].err != nil {
			fontproof.Logger().Warn("font render failed",
				"path", working[i].Path, "error", slots[i].err)
			outcome.Failures = append(outcome.Failures, BatchFailure{
				Path: working[i].Path,
				Err:  slots[i].err,
			})
			continue
		}
		outcome.Successes = append(outcome.Successes, BatchSuccess{
			Path:   working[i].Path,
			Result: slots[i].result,
		})
	}
	outcome.Elapsed = time.Since(start)

	fontproof.Logger().Info("render batch finished",
		"fonts", len(working),
		"ok", len(outcome.Successes),
		"failed", len(outcome.Failures),
		"elapsed", outcome.Elapsed)
	return outcome, nil
}

// workingSet resolves which fonts a batch covers. A nil scope means all
// fonts; a non-nil scope restricts to the listed paths and must select at
// least one font.
func workingSet(fonts []fontmeta.FontRecord, scope []string) ([]fontmeta.FontRecord, error) {
	if scope == nil {
		return fonts, nil
	}
	if len(scope) == 0 {
		return nil, fontproof.ErrEmptySelection
	}

	selected := make(map[string]bool, len(scope))
	for _, path := range scope {
		selected[path] = true
	}

	working := make([]fontmeta.FontRecord, 0, len(scope))
	for _, rec := range fonts {
		if selected[rec.Path] {
			working = append(working, rec)
		}
	}
	if len(working) == 0 {
		return nil, fmt.Errorf("%w: scope matches no loaded font", fontproof.ErrEmptySelection)
	}
	return working, nil
}
