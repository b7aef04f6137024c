package fontmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/font/opentype/tables"

	"github.com/fontproof/fontproof"
)

// Name table IDs used for metadata extraction.
const (
	nameFontFamily         tables.NameID = 1
	nameFontSubfamily      tables.NameID = 2
	namePostScript         tables.NameID = 6
	namePreferredFamily    tables.NameID = 16
	namePreferredSubfamily tables.NameID = 17
)

// Extract parses the font file at path and returns its metadata record.
//
// It fails with a fontproof.ErrIO wrap when the file cannot be read and
// with a fontproof.ErrInvalidFont wrap when the data is not a supported
// font container. Non-variable fonts yield an empty axis sequence, not an
// error. Extraction has no side effects beyond reading the file.
//
// For font collections (.ttc/.otc) the first face is used.
func Extract(path string) (*FontRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", fontproof.ErrIO, path, err)
	}

	lds, err := ot.NewLoaders(bytes.NewReader(data))
	if err != nil || len(lds) == 0 {
		return nil, fmt.Errorf("%w: %s: %v", fontproof.ErrInvalidFont, path, err)
	}
	ld := lds[0]

	rec := &FontRecord{
		Path:     path,
		FileSize: int64(len(data)),
		Install:  InstallUnknown,
	}

	family, style, psName := extractNames(ld)
	if family == "" {
		// Fonts with unusable name tables fall back to the file stem.
		family = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if style == "" {
		style = "Regular"
	}
	rec.Family = family
	rec.Style = style
	rec.PostScript = psName

	axes, err := extractAxes(ld)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", fontproof.ErrInvalidFont, path, err)
	}
	rec.Axes = axes

	fontproof.Logger().Debug("font metadata extracted",
		"path", path, "family", rec.Family, "style", rec.Style, "axes", len(rec.Axes))
	return rec, nil
}

// extractNames reads the name table and resolves the family, subfamily and
// PostScript names, preferring the typographic (16/17) entries over the
// legacy (1/2) ones. A missing or unreadable name table yields empty
// strings; callers apply fallbacks.
func extractNames(ld *ot.Loader) (family, style, psName string) {
	raw, err := ld.RawTableTo(ot.MustNewTag("name"), nil)
	if err != nil {
		return "", "", ""
	}
	names, _, err := tables.ParseName(raw)
	if err != nil {
		return "", "", ""
	}

	family = names.Name(namePreferredFamily)
	if family == "" {
		family = names.Name(nameFontFamily)
	}
	style = names.Name(namePreferredSubfamily)
	if style == "" {
		style = names.Name(nameFontSubfamily)
	}
	psName = names.Name(namePostScript)
	return family, style, psName
}

// fvar binary layout constants. The table is read directly because the
// parsing libraries in use do not surface a public fvar view.
const (
	fvarHeaderLen = 16
	fvarAxisLen   = 20
)

// extractAxes reads the fvar table, if present, and returns the declared
// variation axes in table order. Fonts without an fvar table produce a nil
// slice. A structurally truncated fvar table is an error; individually
// malformed axis ranges are sanitized instead (min/max swapped back into
// order, default clamped into range).
func extractAxes(ld *ot.Loader) ([]VariationAxis, error) {
	raw, err := ld.RawTableTo(ot.MustNewTag("fvar"), nil)
	if err != nil {
		// Not a variable font.
		return nil, nil
	}
	return parseFvar(raw)
}

// parseFvar decodes the fvar table bytes.
func parseFvar(raw []byte) ([]VariationAxis, error) {
	if len(raw) < fvarHeaderLen {
		return nil, fmt.Errorf("fvar table too short: %d bytes", len(raw))
	}

	axesOffset := int(binary.BigEndian.Uint16(raw[4:6]))
	axisCount := int(binary.BigEndian.Uint16(raw[8:10]))
	axisSize := int(binary.BigEndian.Uint16(raw[10:12]))
	if axisSize < fvarAxisLen {
		return nil, fmt.Errorf("fvar axis record size %d below minimum", axisSize)
	}
	if end := axesOffset + axisCount*axisSize; end > len(raw) {
		return nil, fmt.Errorf("fvar axis array exceeds table bounds (%d > %d)", end, len(raw))
	}

	axes := make([]VariationAxis, 0, axisCount)
	for i := 0; i < axisCount; i++ {
		rec := raw[axesOffset+i*axisSize:]
		tag := string(rec[0:4])
		axis := VariationAxis{
			Tag:     tag,
			Name:    AxisName(tag),
			Min:     fixedToFloat(rec[4:8]),
			Default: fixedToFloat(rec[8:12]),
			Max:     fixedToFloat(rec[12:16]),
		}
		axes = append(axes, sanitizeAxis(axis))
	}
	return axes, nil
}

// sanitizeAxis restores the Min <= Default <= Max invariant on malformed
// axis records rather than rejecting the whole font.
func sanitizeAxis(a VariationAxis) VariationAxis {
	if a.Min > a.Max {
		fontproof.Logger().Warn("malformed variation axis range, swapping bounds",
			"tag", a.Tag, "min", a.Min, "max", a.Max)
		a.Min, a.Max = a.Max, a.Min
	}
	a.Default = a.Clamp(a.Default)
	return a
}

// fixedToFloat decodes a big-endian 16.16 fixed-point value.
func fixedToFloat(b []byte) float64 {
	return float64(int32(binary.BigEndian.Uint32(b))) / 65536
}
