package fontproof

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/twmb/murmur3"
)

// DefaultSampleText is the sample string rendered when the caller does not
// provide one.
const DefaultSampleText = "The quick brown fox jumps over the lazy dog"

// RenderSettings describes one rendering request shared across a batch.
//
// A RenderSettings value is treated as immutable once constructed: it is
// shared by reference across cache keys and batch steps, and mutating it
// after use would corrupt cache identity. Use Clone when a modified copy
// is needed.
type RenderSettings struct {
	// SampleText is the text to render. Empty text is legal and yields a
	// zero or near-zero-size result, not an error.
	SampleText string

	// FontSize is the font size in points. Must be > 0.
	FontSize float64

	// Foreground is the text color.
	Foreground Color

	// Background is the canvas color. nil means transparent.
	Background *Color

	// Backend is the identifier of the rendering backend to use.
	Backend string

	// Variations maps a 4-character axis tag to the chosen design-space
	// coordinate. Entries are only meaningful for axes the font declares;
	// out-of-range coordinates are clamped against the axis bounds before
	// reaching the engine, never rejected.
	Variations map[string]float64

	// Padding is the border around the rendered text, in pixels. Must be >= 0.
	Padding int
}

// DefaultSettings returns the default render configuration: the classic
// pangram at 16pt, black on transparent, 10px padding. The backend is left
// empty; the orchestrator fills in the adapter's active backend.
func DefaultSettings() RenderSettings {
	return RenderSettings{
		SampleText: DefaultSampleText,
		FontSize:   16,
		Foreground: Black,
		Background: nil,
		Padding:    10,
	}
}

// Validate reports whether the settings satisfy their invariants.
func (s RenderSettings) Validate() error {
	if s.FontSize <= 0 {
		return fmt.Errorf("fontproof: font size must be > 0, got %v", s.FontSize)
	}
	if s.Padding < 0 {
		return fmt.Errorf("fontproof: padding must be >= 0, got %d", s.Padding)
	}
	return nil
}

// Clone returns a deep copy of the settings, including the variation map.
func (s RenderSettings) Clone() RenderSettings {
	out := s
	if s.Background != nil {
		bg := *s.Background
		out.Background = &bg
	}
	if s.Variations != nil {
		out.Variations = make(map[string]float64, len(s.Variations))
		for tag, v := range s.Variations {
			out.Variations[tag] = v
		}
	}
	return out
}

// Equal reports whether two settings values are equal for caching purposes:
// every field must match, with the variation map compared
// order-independently.
func (s RenderSettings) Equal(other RenderSettings) bool {
	if s.SampleText != other.SampleText ||
		s.FontSize != other.FontSize ||
		s.Foreground != other.Foreground ||
		s.Backend != other.Backend ||
		s.Padding != other.Padding {
		return false
	}
	if (s.Background == nil) != (other.Background == nil) {
		return false
	}
	if s.Background != nil && *s.Background != *other.Background {
		return false
	}
	if len(s.Variations) != len(other.Variations) {
		return false
	}
	for tag, v := range s.Variations {
		ov, ok := other.Variations[tag]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// sortedTags returns the variation axis tags in lexicographic order, giving
// the fingerprint a canonical, insertion-order-independent form.
func (s RenderSettings) sortedTags() []string {
	tags := make([]string, 0, len(s.Variations))
	for tag := range s.Variations {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// fingerprint serializes the settings into a canonical byte form. Equal
// settings (per Equal) always serialize identically, and unequal settings
// never do: variable-length fields (sample text, backend id, axis tags) are
// length-prefixed, so no field content can forge a field boundary.
func (s RenderSettings) fingerprint() []byte {
	buf := make([]byte, 0, 64+len(s.SampleText))

	buf = appendString(buf, s.SampleText)
	buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(s.FontSize))
	buf = append(buf, s.Foreground.R, s.Foreground.G, s.Foreground.B, s.Foreground.A)
	if s.Background != nil {
		buf = append(buf, 1, s.Background.R, s.Background.G, s.Background.B, s.Background.A)
	} else {
		buf = append(buf, 0)
	}
	buf = appendString(buf, s.Backend)
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.Padding))

	for _, tag := range s.sortedTags() {
		buf = appendString(buf, tag)
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(s.Variations[tag]))
	}
	return buf
}

// appendString appends a length-prefixed string.
func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint64(buf, uint64(len(s)))
	return append(buf, s...)
}

// CacheKey is the fingerprint of (font identity, render settings) used to
// index the preview cache. Two requests with the same font path and equal
// settings always map to the same key. CacheKey is comparable and usable as
// a map key.
//
// The font path is carried verbatim so that distinct fonts can never
// collide; the settings contribute a 128-bit murmur3 digest of their
// canonical serialization.
type CacheKey struct {
	Path   string
	d1, d2 uint64
}

// Key computes the cache key for a font path under the given settings.
func Key(fontPath string, settings RenderSettings) CacheKey {
	h := murmur3.New128()
	h.Write(settings.fingerprint())
	d1, d2 := h.Sum128()
	return CacheKey{Path: fontPath, d1: d1, d2: d2}
}

// String renders the key in a stable textual form, suitable for logging and
// for keying string-indexed structures such as singleflight groups.
func (k CacheKey) String() string {
	return fmt.Sprintf("%016x%016x:%s", k.d1, k.d2, k.Path)
}
