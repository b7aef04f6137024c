package fontmeta

// knownAxisNames maps the registered OpenType design-variation axis tags to
// fixed human-readable names. Unknown tags fall back to the raw tag string.
var knownAxisNames = map[string]string{
	"wght": "Weight",
	"wdth": "Width",
	"ital": "Italic",
	"slnt": "Slant",
	"opsz": "Optical Size",
}

// AxisName resolves a 4-character axis tag to its display name.
func AxisName(tag string) string {
	if name, ok := knownAxisNames[tag]; ok {
		return name
	}
	return tag
}
