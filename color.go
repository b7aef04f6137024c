package fontproof

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is an 8-bit-per-channel RGBA color with straight (non-premultiplied)
// alpha, matching the channel layout of RenderResult pixel buffers.
type Color struct {
	R, G, B, A uint8
}

// Common colors.
var (
	Black = Color{0, 0, 0, 255}
	White = Color{255, 255, 255, 255}
)

// RGBA constructs a Color from individual channels.
func RGBA(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// NRGBA converts the color to the standard library representation.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Hex returns the color as "#RRGGBBAA".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// ParseHex parses "#RRGGBB" or "#RRGGBBAA" (the leading '#' is optional).
// A six-digit value gets full alpha.
func ParseHex(value string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, fmt.Errorf("fontproof: invalid hex color %q", value)
	}

	channels := make([]uint8, 0, 4)
	for i := 0; i < len(hex); i += 2 {
		v, err := strconv.ParseUint(hex[i:i+2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("fontproof: invalid hex color %q", value)
		}
		channels = append(channels, uint8(v))
	}

	c := Color{R: channels[0], G: channels[1], B: channels[2], A: 255}
	if len(channels) == 4 {
		c.A = channels[3]
	}
	return c, nil
}
