package render

import (
	"context"
	"errors"
	"testing"

	"github.com/fontproof/fontproof"
	"github.com/fontproof/fontproof/backend"
	"github.com/fontproof/fontproof/fontmeta"
)

func testFonts(paths ...string) []fontmeta.FontRecord {
	fonts := make([]fontmeta.FontRecord, len(paths))
	for i, p := range paths {
		fonts[i] = fontmeta.FontRecord{Path: p, Family: p}
	}
	return fonts
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *stubEngine) {
	t.Helper()
	stub := installStub(t)
	adapter, err := NewAdapter(backend.Native)
	if err != nil {
		t.Fatal(err)
	}
	return NewOrchestrator(adapter, NewCache(0), WithWorkers(4)), stub
}

func TestRenderBatch(t *testing.T) {
	o, stub := newTestOrchestrator(t)
	fonts := testFonts("/a.ttf", "/b.ttf", "/c.ttf")

	outcome, err := o.RenderBatch(context.Background(), fonts, fontproof.DefaultSettings(), nil)
	if err != nil {
		t.Fatalf("RenderBatch() error = %v", err)
	}
	if len(outcome.Successes) != 3 || len(outcome.Failures) != 0 {
		t.Fatalf("outcome = %d ok / %d failed, want 3/0", len(outcome.Successes), len(outcome.Failures))
	}
	if stub.callCount() != 3 {
		t.Errorf("engine ran %d times, want 3", stub.callCount())
	}
	if outcome.Elapsed <= 0 {
		t.Error("Elapsed not recorded")
	}

	// Ordered assembly: successes follow working-set order.
	for i, want := range []string{"/a.ttf", "/b.ttf", "/c.ttf"} {
		if outcome.Successes[i].Path != want {
			t.Errorf("Successes[%d].Path = %q, want %q", i, outcome.Successes[i].Path, want)
		}
	}
}

func TestRenderBatchCachesAcrossBatches(t *testing.T) {
	o, stub := newTestOrchestrator(t)
	fonts := testFonts("/a.ttf", "/b.ttf")
	settings := fontproof.DefaultSettings()

	if _, err := o.RenderBatch(context.Background(), fonts, settings, nil); err != nil {
		t.Fatal(err)
	}
	if stub.callCount() != 2 {
		t.Fatalf("first batch ran %d renders, want 2", stub.callCount())
	}

	// Identical second batch must be served entirely from the cache.
	outcome, err := o.RenderBatch(context.Background(), fonts, settings, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stub.callCount() != 2 {
		t.Errorf("second batch ran %d extra renders, want 0", stub.callCount()-2)
	}
	if len(outcome.Successes) != 2 {
		t.Errorf("cached batch = %d successes, want 2", len(outcome.Successes))
	}
	if o.Cache().Len() != 2 {
		t.Errorf("cache holds %d entries, want 2", o.Cache().Len())
	}
}

func TestRenderBatchSettingsChangeInvalidates(t *testing.T) {
	o, stub := newTestOrchestrator(t)
	fonts := testFonts("/a.ttf")
	settings := fontproof.DefaultSettings()

	if _, err := o.RenderBatch(context.Background(), fonts, settings, nil); err != nil {
		t.Fatal(err)
	}
	settings.FontSize = 32
	if _, err := o.RenderBatch(context.Background(), fonts, settings, nil); err != nil {
		t.Fatal(err)
	}
	if stub.callCount() != 2 {
		t.Errorf("engine ran %d times, want 2 (new settings, new key)", stub.callCount())
	}
}

func TestRenderBatchClampsVariations(t *testing.T) {
	o, stub := newTestOrchestrator(t)
	fonts := []fontmeta.FontRecord{{
		Path: "/var.ttf",
		Axes: []fontmeta.VariationAxis{{Tag: "wght", Min: 100, Default: 400, Max: 900}},
	}}

	settings := fontproof.DefaultSettings()
	settings.Variations = map[string]float64{"wght": 1000}

	if _, err := o.RenderBatch(context.Background(), fonts, settings, nil); err != nil {
		t.Fatal(err)
	}

	got := stub.settingsFor("/var.ttf")
	if len(got) != 1 {
		t.Fatalf("engine ran %d times, want 1", len(got))
	}
	if v := got[0].Variations["wght"]; v != 900 {
		t.Errorf("engine received wght = %g, want clamped 900", v)
	}

	// The key is computed from the requested settings, so repeating the
	// out-of-range request is a pure cache hit.
	if _, err := o.RenderBatch(context.Background(), fonts, settings, nil); err != nil {
		t.Fatal(err)
	}
	if stub.callCount() != 1 {
		t.Errorf("repeat batch ran %d extra renders, want 0", stub.callCount()-1)
	}
}

func TestRenderBatchFailureIsolation(t *testing.T) {
	o, stub := newTestOrchestrator(t)
	stub.fail["/bad.ttf"] = fontproof.ErrFontLoadFailed
	fonts := testFonts("/a.ttf", "/bad.ttf", "/c.ttf")

	outcome, err := o.RenderBatch(context.Background(), fonts, fontproof.DefaultSettings(), nil)
	if err != nil {
		t.Fatalf("RenderBatch() error = %v, per-font failures must not abort", err)
	}
	if len(outcome.Successes) != 2 {
		t.Errorf("successes = %d, want 2", len(outcome.Successes))
	}
	if len(outcome.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(outcome.Failures))
	}
	f := outcome.Failures[0]
	if f.Path != "/bad.ttf" || !errors.Is(f.Err, fontproof.ErrFontLoadFailed) {
		t.Errorf("failure = %+v", f)
	}

	// Failures are not cached; the next batch retries the bad font.
	delete(stub.fail, "/bad.ttf")
	outcome, err = o.RenderBatch(context.Background(), fonts, fontproof.DefaultSettings(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcome.Failures) != 0 {
		t.Errorf("failures after retry = %d, want 0", len(outcome.Failures))
	}
}

func TestRenderBatchScope(t *testing.T) {
	o, stub := newTestOrchestrator(t)
	fonts := testFonts("/a.ttf", "/b.ttf", "/c.ttf")

	outcome, err := o.RenderBatch(context.Background(), fonts, fontproof.DefaultSettings(), []string{"/b.ttf"})
	if err != nil {
		t.Fatal(err)
	}
	if len(outcome.Successes) != 1 || outcome.Successes[0].Path != "/b.ttf" {
		t.Errorf("scoped outcome = %+v, want only /b.ttf", outcome.Successes)
	}
	if stub.callCount() != 1 {
		t.Errorf("engine ran %d times, want 1", stub.callCount())
	}
}

func TestRenderBatchEmptySelection(t *testing.T) {
	o, stub := newTestOrchestrator(t)
	fonts := testFonts("/a.ttf")

	// Explicitly empty selection.
	_, err := o.RenderBatch(context.Background(), fonts, fontproof.DefaultSettings(), []string{})
	if !errors.Is(err, fontproof.ErrEmptySelection) {
		t.Errorf("error = %v, want ErrEmptySelection", err)
	}

	// Selection that matches nothing.
	_, err = o.RenderBatch(context.Background(), fonts, fontproof.DefaultSettings(), []string{"/zzz.ttf"})
	if !errors.Is(err, fontproof.ErrEmptySelection) {
		t.Errorf("error = %v, want ErrEmptySelection", err)
	}

	if stub.callCount() != 0 {
		t.Errorf("engine ran %d times on empty selections, want 0", stub.callCount())
	}
}

func TestRenderBatchDuplicatePathsShareOneRender(t *testing.T) {
	o, stub := newTestOrchestrator(t)
	fonts := testFonts("/a.ttf", "/a.ttf")

	outcome, err := o.RenderBatch(context.Background(), fonts, fontproof.DefaultSettings(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if stub.callCount() != 1 {
		t.Errorf("engine ran %d times for duplicate requests, want 1", stub.callCount())
	}
	// Both occurrences still appear in the outcome, sharing the result.
	if len(outcome.Successes) != 2 {
		t.Fatalf("successes = %d, want 2", len(outcome.Successes))
	}
	if outcome.Successes[0].Result != outcome.Successes[1].Result {
		t.Error("duplicate requests did not share one result")
	}
}

func TestRenderBatchInvalidSettings(t *testing.T) {
	o, stub := newTestOrchestrator(t)
	settings := fontproof.DefaultSettings()
	settings.FontSize = 0

	if _, err := o.RenderBatch(context.Background(), testFonts("/a.ttf"), settings, nil); err == nil {
		t.Error("invalid settings accepted")
	}
	if stub.callCount() != 0 {
		t.Error("engine was invoked despite invalid settings")
	}
}

func TestRenderBatchCancelled(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := o.RenderBatch(ctx, testFonts("/a.ttf", "/b.ttf"), fontproof.DefaultSettings(), nil)
	if err != nil {
		t.Fatalf("RenderBatch() error = %v, cancellation reports per-font failures", err)
	}
	if len(outcome.Failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(outcome.Failures))
	}
	for _, f := range outcome.Failures {
		if !errors.Is(f.Err, context.Canceled) {
			t.Errorf("failure %q = %v, want context.Canceled", f.Path, f.Err)
		}
	}
}

func TestRenderBatchBackendSwitchMidBatch(t *testing.T) {
	stub := installStub(t)
	other := newStubEngine()
	other.id = backend.Bitmap
	backend.Register(backend.Bitmap, func() backend.Renderer { return other })
	t.Cleanup(func() { backend.Unregister(backend.Bitmap) })

	adapter, err := NewAdapter(backend.Native)
	if err != nil {
		t.Fatal(err)
	}
	o := NewOrchestrator(adapter, NewCache(0), WithWorkers(1))

	// Block the first font's render so the backend switch lands while the
	// batch is in flight.
	started := make(chan struct{})
	release := make(chan struct{})
	stub.gate = func(path string) {
		if path == "/a.ttf" {
			close(started)
			<-release
		}
	}

	settings := fontproof.DefaultSettings()
	done := make(chan *BatchOutcome, 1)
	go func() {
		outcome, err := o.RenderBatch(context.Background(), testFonts("/a.ttf", "/b.ttf"), settings, nil)
		if err != nil {
			t.Error(err)
		}
		done <- outcome
	}()

	<-started
	if err := adapter.SetBackend(backend.Bitmap); err != nil {
		t.Fatal(err)
	}
	close(release)
	outcome := <-done

	// The whole batch must have rendered through the backend active at its
	// start; the switch only affects later batches.
	if other.callCount() != 0 {
		t.Errorf("switched-to backend received %d renders from the in-flight batch", other.callCount())
	}
	for _, s := range outcome.Successes {
		if s.Result.Backend != string(backend.Native) {
			t.Errorf("%s rendered by %q, want %q", s.Path, s.Result.Backend, backend.Native)
		}
	}

	// Cached entries must match the backend their key fingerprints.
	keyed := settings.Clone()
	keyed.Backend = string(backend.Native)
	res, ok := o.Cached(fontproof.Key("/b.ttf", keyed))
	if !ok {
		t.Fatal("second font missing under the starting backend's key")
	}
	if res.Backend != string(backend.Native) {
		t.Errorf("cached result from %q stored under a %q key", res.Backend, backend.Native)
	}
}

func TestRenderBatchNormalizesBackendKey(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	fonts := testFonts("/a.ttf")

	settings := fontproof.DefaultSettings() // Backend left empty
	if _, err := o.RenderBatch(context.Background(), fonts, settings, nil); err != nil {
		t.Fatal(err)
	}

	keyed := settings.Clone()
	keyed.Backend = string(backend.Native)
	if _, ok := o.Cached(fontproof.Key("/a.ttf", keyed)); !ok {
		t.Error("cache key was not normalized to the active backend")
	}
}
