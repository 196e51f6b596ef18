package render

import (
	"image/color"

	"github.com/taigrr/facet/pkg/math3d"
)

// Color is an alias for color.RGBA. A zero alpha marks a vertex color as
// unset; the rasterizer then treats it as white.
type Color = color.RGBA

// Colors for convenience.
var (
	ColorBlack = color.RGBA{0, 0, 0, 255}
	ColorWhite = color.RGBA{255, 255, 255, 255}
	ColorRed   = color.RGBA{255, 0, 0, 255}
	ColorGreen = color.RGBA{0, 255, 0, 255}
	ColorBlue  = color.RGBA{0, 0, 255, 255}
	ColorGray  = color.RGBA{128, 128, 128, 255}
)

// RGB creates an opaque color.
func RGB(r, g, b uint8) Color {
	return color.RGBA{r, g, b, 255}
}

// PackRGB packs a color into the frame buffer format 0x00RRGGBB.
func PackRGB(c Color) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// UnpackRGB expands a 0x00RRGGBB cell into an opaque color.
func UnpackRGB(p uint32) Color {
	return RGB(uint8(p>>16), uint8(p>>8), uint8(p))
}

// colorVec converts a color into a 0..255 float vector, mapping unset
// colors to white.
func colorVec(c Color) math3d.Vec3 {
	if c.A == 0 {
		return math3d.V3(255, 255, 255)
	}
	return math3d.V3(float64(c.R), float64(c.G), float64(c.B))
}

// packVec clamps a 0..255 float color and packs it.
func packVec(v math3d.Vec3) uint32 {
	return uint32(channel(v.X))<<16 | uint32(channel(v.Y))<<8 | uint32(channel(v.Z))
}

// channel rounds a 0..255 float to the nearest byte.
func channel(f float64) uint8 {
	switch {
	case f >= 255:
		return 255
	case f > 0:
		return uint8(f + 0.5)
	default:
		// also catches NaN
		return 0
	}
}
