package vector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/fontproof/fontproof"
	"github.com/fontproof/fontproof/backend"
)

func writeTestFont(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "GoRegular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRegistered(t *testing.T) {
	if !backend.IsUsable(backend.Vector) {
		t.Fatal("vector backend not registered on import")
	}
}

func TestRender(t *testing.T) {
	path := writeTestFont(t)
	r := New()
	settings := fontproof.DefaultSettings()
	settings.SampleText = "Hamburgefonstiv"

	res, err := r.Render(context.Background(), path, settings)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if err := res.Validate(); err != nil {
		t.Fatalf("result invalid: %v", err)
	}
	if res.Width <= 2*settings.Padding || res.Height <= 2*settings.Padding {
		t.Errorf("dimensions %dx%d, want larger than padding alone", res.Width, res.Height)
	}
	if res.Backend != string(backend.Vector) {
		t.Errorf("Backend = %q, want %q", res.Backend, backend.Vector)
	}
	if res.Format != fontproof.FormatRGBA8 {
		t.Errorf("Format = %q, want %q", res.Format, fontproof.FormatRGBA8)
	}
	if res.Elapsed <= 0 {
		t.Error("Elapsed not recorded")
	}

	// Some pixel must carry the foreground color.
	inked := false
	for i := 3; i < len(res.Pixels); i += 4 {
		if res.Pixels[i] != 0 {
			inked = true
			break
		}
	}
	if !inked {
		t.Error("canvas is fully transparent, no glyph coverage")
	}
}

func TestRenderBackground(t *testing.T) {
	path := writeTestFont(t)
	r := New()
	settings := fontproof.DefaultSettings()
	bg := fontproof.White
	settings.Background = &bg

	res, err := r.Render(context.Background(), path, settings)
	if err != nil {
		t.Fatal(err)
	}
	// Corner pixel is inside the padding border, so it must be background.
	if res.Pixels[0] != 255 || res.Pixels[3] != 255 {
		t.Errorf("corner pixel = %v, want white", res.Pixels[0:4])
	}
}

func TestRenderEmptyText(t *testing.T) {
	path := writeTestFont(t)
	r := New()
	settings := fontproof.DefaultSettings()
	settings.SampleText = ""

	res, err := r.Render(context.Background(), path, settings)
	if err != nil {
		t.Fatalf("empty text must not fail, got %v", err)
	}
	want := 2 * settings.Padding
	if res.Width != want || res.Height != want {
		t.Errorf("blank canvas = %dx%d, want %dx%d", res.Width, res.Height, want, want)
	}
}

func TestRenderMissingFont(t *testing.T) {
	r := New()
	_, err := r.Render(context.Background(), filepath.Join(t.TempDir(), "nope.ttf"), fontproof.DefaultSettings())
	if !errors.Is(err, fontproof.ErrFontLoadFailed) {
		t.Errorf("error = %v, want ErrFontLoadFailed", err)
	}
}

func TestRenderInvalidFont(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.ttf")
	if err := os.WriteFile(path, []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := New()
	_, err := r.Render(context.Background(), path, fontproof.DefaultSettings())
	if !errors.Is(err, fontproof.ErrFontLoadFailed) {
		t.Errorf("error = %v, want ErrFontLoadFailed", err)
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New()
	if _, err := r.Render(ctx, writeTestFont(t), fontproof.DefaultSettings()); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestFontCacheReuse(t *testing.T) {
	path := writeTestFont(t)
	r := New()
	if _, err := r.Render(context.Background(), path, fontproof.DefaultSettings()); err != nil {
		t.Fatal(err)
	}

	// Second render must hit the parse cache even if the file disappears.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Render(context.Background(), path, fontproof.DefaultSettings()); err != nil {
		t.Errorf("cached font not reused: %v", err)
	}
}
