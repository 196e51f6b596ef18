// Package render implements a parallel software triangle rasterizer.
//
// Geometry is transformed to screen space on the calling goroutine, lines are
// drawn there too, and triangle fill is split into work units that run on a
// workpool.Pool. Every frame buffer cell is a single 64-bit word holding depth
// and color together, so concurrent units resolve overlaps with one atomic
// compare-and-swap and the final image does not depend on scheduling.
package render

import (
	"image"
	"math"
	"sync/atomic"
)

// FrameBuffer is one set of depth and color cells, width×height, row-major
// with row 0 at the bottom of the screen.
//
// Each cell packs an orderable encoding of the float32 depth into the high
// 32 bits and the color (0x00RRGGBB) into the low 32 bits. Comparing two
// cells as integers therefore compares depth first and color second.
type FrameBuffer struct {
	width, height int
	cells         []atomic.Uint64
	pixels        []uint32

	// background the cells were last cleared to
	clearedTo uint32
}

// NewFrameBuffer allocates a frame buffer cleared to black at infinite
// depth.
func NewFrameBuffer(width, height int) *FrameBuffer {
	width, height = max(width, 0), max(height, 0)
	fb := &FrameBuffer{
		width:  width,
		height: height,
		cells:  make([]atomic.Uint64, width*height),
		pixels: make([]uint32, width*height),
	}
	fb.clearRows(0, height, 0)
	fb.resolveRows(0, height)
	return fb
}

// Width returns the width in pixels.
func (fb *FrameBuffer) Width() int { return fb.width }

// Height returns the height in pixels.
func (fb *FrameBuffer) Height() int { return fb.height }

// Pixels returns the resolved colors, one 0x00RRGGBB word per pixel.
func (fb *FrameBuffer) Pixels() []uint32 { return fb.pixels }

// Depth returns the stored depth at (x, y), or +Inf outside the buffer.
func (fb *FrameBuffer) Depth(x, y int) float32 {
	if !fb.inside(x, y) {
		return float32(math.Inf(1))
	}
	depth, _ := unpackCell(fb.cells[y*fb.width+x].Load())
	return depth
}

// Color returns the color stored in the cell at (x, y). Unlike the
// resolved Pixels it reflects writes made during the current frame.
func (fb *FrameBuffer) Color(x, y int) uint32 {
	if !fb.inside(x, y) {
		return 0
	}
	_, rgb := unpackCell(fb.cells[y*fb.width+x].Load())
	return rgb
}

// Image converts the resolved pixels to an image with the conventional
// top-down row order.
func (fb *FrameBuffer) Image() *image.RGBA {
	return PixelsToImage(fb.pixels, fb.width, fb.height)
}

// PixelsToImage converts a bottom-up 0x00RRGGBB buffer, as returned by
// Rasterizer.Draw, into a top-down opaque image.
func PixelsToImage(pixels []uint32, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		row := pixels[(height-1-y)*width : (height-y)*width]
		off := img.PixOffset(0, y)
		for x, p := range row {
			img.Pix[off+x*4] = uint8(p >> 16)
			img.Pix[off+x*4+1] = uint8(p >> 8)
			img.Pix[off+x*4+2] = uint8(p)
			img.Pix[off+x*4+3] = 0xFF
		}
	}
	return img
}

func (fb *FrameBuffer) inside(x, y int) bool {
	return x >= 0 && x < fb.width && y >= 0 && y < fb.height
}

// depthTest writes cell as the minimum of itself and the stored value. It
// reports whether cell won.
func (fb *FrameBuffer) depthTest(idx int, cell uint64) bool {
	c := &fb.cells[idx]
	for {
		old := c.Load()
		if cell >= old {
			return false
		}
		if c.CompareAndSwap(old, cell) {
			return true
		}
	}
}

// depthTestLE replaces the stored cell whenever the new depth is less than
// or equal to the stored depth, regardless of color. Only used by the
// sequential line pass.
func (fb *FrameBuffer) depthTestLE(idx int, cell uint64) bool {
	c := &fb.cells[idx]
	for {
		old := c.Load()
		if cell>>32 > old>>32 {
			return false
		}
		if c.CompareAndSwap(old, cell) {
			return true
		}
	}
}

func (fb *FrameBuffer) clearRows(from, to int, background uint32) {
	cell := packCell(float32(math.Inf(1)), background)
	for i := from * fb.width; i < to*fb.width; i++ {
		fb.cells[i].Store(cell)
	}
}

func (fb *FrameBuffer) resolveRows(from, to int) {
	for i := from * fb.width; i < to*fb.width; i++ {
		fb.pixels[i] = uint32(fb.cells[i].Load()) & 0xFFFFFF
	}
}

// rowBands splits [0,height) into at most n contiguous bands.
func (fb *FrameBuffer) rowBands(n int) [][2]int {
	n = max(1, min(n, fb.height))
	bands := make([][2]int, 0, n)
	for i := range n {
		from := fb.height * i / n
		to := fb.height * (i + 1) / n
		if to > from {
			bands = append(bands, [2]int{from, to})
		}
	}
	return bands
}

// packCell builds the 64-bit cell for a depth and color.
func packCell(depth float32, rgb uint32) uint64 {
	return uint64(orderedDepth(depth))<<32 | uint64(rgb&0xFFFFFF)
}

func unpackCell(cell uint64) (float32, uint32) {
	return depthFromOrdered(uint32(cell >> 32)), uint32(cell)
}

// orderedDepth maps float32 bits to a uint32 whose unsigned order matches
// the numeric order of the floats. NaN sorts above +Inf and never wins.
func orderedDepth(f float32) uint32 {
	b := math.Float32bits(f)
	if b&0x80000000 != 0 {
		return ^b
	}
	return b | 0x80000000
}

func depthFromOrdered(u uint32) float32 {
	if u&0x80000000 != 0 {
		return math.Float32frombits(u &^ 0x80000000)
	}
	return math.Float32frombits(^u)
}
