// Package fontproof provides the core rendering pipeline for font previews.
//
// # Overview
//
// fontproof turns a set of loaded font files plus a shared render
// configuration into rendered sample-text images. It avoids redundant
// re-renders through a fingerprint-keyed preview cache, supports multiple
// interchangeable rendering backends with different capabilities, and
// isolates per-font failures so one broken font never aborts a batch.
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/fontproof/fontproof"
//	    "github.com/fontproof/fontproof/fontmeta"
//	    "github.com/fontproof/fontproof/render"
//
//	    _ "github.com/fontproof/fontproof/backend/vector"
//	)
//
//	rec, err := fontmeta.Extract("Sample.ttf")
//	// handle err
//
//	adapter, err := render.NewAdapter("vector")
//	// handle err
//
//	orch := render.NewOrchestrator(adapter, render.NewCache(0))
//	outcome, err := orch.RenderBatch(context.Background(),
//	    []fontmeta.FontRecord{*rec}, fontproof.DefaultSettings(), nil)
//
// # Architecture
//
// The library is organized into:
//   - Root: RenderSettings, RenderResult, CacheKey, colors, error taxonomy
//   - fontmeta: font metadata extraction (names, variable-font axes)
//   - backend: backend registry and the built-in renderers
//   - render: engine adapter, preview cache, batch orchestrator
//   - fontlist, install, config: session font list and host integration
//
// Backends register themselves on import, following the database/sql driver
// pattern; import the ones a build should carry.
package fontproof
