package render

import (
	"math"

	"github.com/taigrr/facet/pkg/math3d"
)

// lineDepthBias pulls line depth toward the viewer so wireframes stay
// visible on top of coplanar faces.
const lineDepthBias = 1e-4

// drawLine plots a depth-tested line between two screen-space points with
// an integer error-term walk along the major axis. It must only run while
// no triangle units are in flight.
func drawLine(fb *FrameBuffer, a, b math3d.Vec3, rgb uint32) int {
	if !finite(a.X, a.Y, b.X, b.Y) {
		return 0
	}
	length := math.Hypot(b.X-a.X, b.Y-a.Y)
	plotted := 0

	plot := func(x, y int) {
		if !fb.inside(x, y) {
			return
		}
		k := 0.0
		if length > 0 {
			k = math.Hypot(float64(x)-a.X, float64(y)-a.Y) / length
		}
		z := -float32((1-k)*a.Z+k*b.Z) - lineDepthBias
		if fb.depthTestLE(y*fb.width+x, packCell(z, rgb)) {
			plotted++
		}
	}

	dx := int(b.X - a.X)
	dy := int(b.Y - a.Y)
	adx, ady := abs(dx), abs(dy)
	sameSign := (dx < 0 && dy < 0) || (dx > 0 && dy > 0)

	if ady <= adx {
		x, y, xe := int(a.X), int(a.Y), int(b.X)
		if dx < 0 {
			x, y, xe = int(b.X), int(b.Y), int(a.X)
		}
		e := 2*ady - adx
		plot(x, y)
		for x < xe {
			x++
			if e < 0 {
				e += 2 * ady
			} else {
				if sameSign {
					y++
				} else {
					y--
				}
				e += 2 * (ady - adx)
			}
			plot(x, y)
		}
		return plotted
	}

	x, y, ye := int(a.X), int(a.Y), int(b.Y)
	if dy < 0 {
		x, y, ye = int(b.X), int(b.Y), int(a.Y)
	}
	e := 2*adx - ady
	plot(x, y)
	for y < ye {
		y++
		if e <= 0 {
			e += 2 * adx
		} else {
			if sameSign {
				x++
			} else {
				x--
			}
			e += 2 * (adx - ady)
		}
		plot(x, y)
	}
	return plotted
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
