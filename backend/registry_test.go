package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/fontproof/fontproof"
)

// stubRenderer is a minimal backend for registry tests.
type stubRenderer struct {
	id      ID
	preview bool
}

func (s stubRenderer) ID() ID { return s.id }

func (s stubRenderer) Capabilities() Capabilities {
	return Capabilities{Preview: s.preview, Description: "test stub"}
}

func (s stubRenderer) Render(ctx context.Context, fontPath string, settings fontproof.RenderSettings) (*fontproof.RenderResult, error) {
	return &fontproof.RenderResult{Backend: string(s.id), Format: fontproof.FormatRGBA8}, nil
}

func TestRegisterAndGet(t *testing.T) {
	Register(Native, func() Renderer { return stubRenderer{id: Native, preview: true} })
	defer Unregister(Native)

	r, err := Get(Native)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if r.ID() != Native {
		t.Errorf("ID() = %q, want %q", r.ID(), Native)
	}
	if !IsUsable(Native) {
		t.Error("IsUsable() = false after Register")
	}
}

func TestGetUnregistered(t *testing.T) {
	_, err := Get(Vector)
	if !errors.Is(err, fontproof.ErrBackendUnavailable) {
		t.Errorf("Get() error = %v, want ErrBackendUnavailable", err)
	}
}

func TestRegisterUnknownIgnored(t *testing.T) {
	Register(ID("sparkle"), func() Renderer { return stubRenderer{id: "sparkle"} })
	if IsUsable(ID("sparkle")) {
		t.Error("registry accepted an identifier outside the enumeration")
	}
}

func TestUsableOrder(t *testing.T) {
	Register(MetaJSON, func() Renderer { return stubRenderer{id: MetaJSON} })
	Register(Native, func() Renderer { return stubRenderer{id: Native, preview: true} })
	defer Unregister(MetaJSON)
	defer Unregister(Native)

	got := Usable()
	want := []ID{Native, MetaJSON}
	if len(got) != len(want) {
		t.Fatalf("Usable() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Usable() = %v, want %v", got, want)
		}
	}
}

func TestDefaultPrefersPreview(t *testing.T) {
	// Highest-preference registered backend is not preview-capable; Default
	// must skip it for one that is.
	Register(Native, func() Renderer { return stubRenderer{id: Native, preview: false} })
	Register(Bitmap, func() Renderer { return stubRenderer{id: Bitmap, preview: true} })
	defer Unregister(Native)
	defer Unregister(Bitmap)

	r, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if r.ID() != Bitmap {
		t.Errorf("Default() = %q, want %q", r.ID(), Bitmap)
	}
}

func TestDefaultFallsBack(t *testing.T) {
	Register(MetaJSON, func() Renderer { return stubRenderer{id: MetaJSON, preview: false} })
	defer Unregister(MetaJSON)

	r, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if r.ID() != MetaJSON {
		t.Errorf("Default() = %q, want fallback %q", r.ID(), MetaJSON)
	}
}

func TestDefaultEmptyRegistry(t *testing.T) {
	if _, err := Default(); !errors.Is(err, fontproof.ErrBackendUnavailable) {
		t.Errorf("Default() error = %v, want ErrBackendUnavailable", err)
	}
}

func TestDescribe(t *testing.T) {
	Register(Native, func() Renderer { return stubRenderer{id: Native} })
	defer Unregister(Native)

	caps, err := Describe(Native)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if caps.Description != "test stub" {
		t.Errorf("Description = %q", caps.Description)
	}
}
