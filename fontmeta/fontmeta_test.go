package fontmeta

import "testing"

func TestAxisClamp(t *testing.T) {
	a := VariationAxis{Tag: "wght", Min: 100, Default: 400, Max: 900}
	tests := []struct {
		in, want float64
	}{
		{50, 100},
		{100, 100},
		{400, 400},
		{900, 900},
		{1000, 900},
	}
	for _, tt := range tests {
		if got := a.Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestInstallStateString(t *testing.T) {
	tests := []struct {
		state InstallState
		want  string
	}{
		{InstallUnknown, "unknown"},
		{Installed, "installed"},
		{NotInstalled, "not installed"},
		{InstallState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFontRecordAxis(t *testing.T) {
	rec := FontRecord{Axes: []VariationAxis{
		{Tag: "wght", Min: 100, Default: 400, Max: 900},
		{Tag: "wdth", Min: 75, Default: 100, Max: 125},
	}}

	if !rec.IsVariable() {
		t.Error("IsVariable() = false with two axes")
	}
	a, ok := rec.Axis("wdth")
	if !ok || a.Default != 100 {
		t.Errorf("Axis(wdth) = %+v, %v", a, ok)
	}
	if _, ok := rec.Axis("slnt"); ok {
		t.Error("Axis(slnt) = ok for undeclared axis")
	}

	static := FontRecord{}
	if static.IsVariable() {
		t.Error("IsVariable() = true with no axes")
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{2 * 1024 * 1024, "2.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.bytes); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestAxisName(t *testing.T) {
	tests := []struct {
		tag, want string
	}{
		{"wght", "Weight"},
		{"wdth", "Width"},
		{"opsz", "Optical Size"},
		{"GRAD", "GRAD"},
	}
	for _, tt := range tests {
		if got := AxisName(tt.tag); got != tt.want {
			t.Errorf("AxisName(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}
