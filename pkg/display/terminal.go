// Package display presents rasterizer output: on a terminal as half-block
// cells, or as PNG and WebP snapshots.
package display

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// halfBlock is drawn with the upper pixel as foreground and the lower pixel
// as background.
const halfBlock = "▀"

// CellSetter is the part of a uv.Screen the presenter writes to.
type CellSetter interface {
	SetCell(x, y int, c *uv.Cell)
}

// FramebufferSize returns the pixel size that fills a terminal of cols×rows
// cells. Each cell shows two pixel rows.
func FramebufferSize(cols, rows int) (width, height int) {
	return cols, rows * 2
}

// Draw paints a bottom-up 0x00RRGGBB pixel buffer of width×height onto area.
// Terminal row 0 shows the top two pixel rows.
func Draw(scr CellSetter, area uv.Rectangle, pixels []uint32, width, height int) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		top := height - 1 - (row-area.Min.Y)*2
		bot := top - 1
		if top < 0 {
			break
		}

		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= width {
				break
			}
			cell := &uv.Cell{
				Content: halfBlock,
				Width:   1,
				Style: uv.Style{
					Fg: pixelColor(pixels, width, x, top),
					Bg: pixelColor(pixels, width, x, bot),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// pixelColor returns nil below the buffer so an odd height leaves the
// terminal background showing.
func pixelColor(pixels []uint32, width, x, y int) color.Color {
	if y < 0 {
		return nil
	}
	p := pixels[y*width+x]
	return color.RGBA{R: uint8(p >> 16), G: uint8(p >> 8), B: uint8(p), A: 0xFF}
}
