package render

import (
	"github.com/taigrr/facet/pkg/math3d"
)

// WireframeSegments returns the unique edges of the triangles as segments
// of one color. Edges shared by two triangles appear once.
func WireframeSegments(tris []Triangle, color Color) []Segment {
	type edge struct{ a, b math3d.Vec3 }
	key := func(a, b math3d.Vec3) edge {
		if b.X < a.X || (b.X == a.X && (b.Y < a.Y || (b.Y == a.Y && b.Z < a.Z))) {
			a, b = b, a
		}
		return edge{a, b}
	}

	seen := make(map[edge]struct{}, len(tris)*3/2)
	segs := make([]Segment, 0, len(tris)*3/2)
	for _, t := range tris {
		for i := range 3 {
			a, b := t.V[i].Position, t.V[(i+1)%3].Position
			k := key(a, b)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			segs = append(segs, Segment{A: a, B: b, Color: color})
		}
	}
	return segs
}

// BoxSegments returns the twelve edges of box.
func BoxSegments(box AABB, color Color) []Segment {
	var c [8]math3d.Vec3
	for i := range c {
		c[i] = math3d.V3(
			pick(i&1 != 0, box.Max.X, box.Min.X),
			pick(i&2 != 0, box.Max.Y, box.Min.Y),
			pick(i&4 != 0, box.Max.Z, box.Min.Z),
		)
	}
	segs := make([]Segment, 0, 12)
	for i := range c {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				segs = append(segs, Segment{A: c[i], B: c[i|bit], Color: color})
			}
		}
	}
	return segs
}

// AxesSegments returns the X, Y and Z axes from the origin in red, green
// and blue.
func AxesSegments(length float64) []Segment {
	o := math3d.Zero3()
	return []Segment{
		{A: o, B: math3d.V3(length, 0, 0), Color: ColorRed},
		{A: o, B: math3d.V3(0, length, 0), Color: ColorGreen},
		{A: o, B: math3d.V3(0, 0, length), Color: ColorBlue},
	}
}

// GridSegments returns a square grid on the XZ plane at height y.
func GridSegments(size, step, y float64, color Color) []Segment {
	if step <= 0 {
		return nil
	}
	half := size / 2
	n := int(size/step) + 1
	segs := make([]Segment, 0, 2*n)
	for i := range n {
		d := -half + float64(i)*step
		segs = append(segs,
			Segment{A: math3d.V3(d, y, -half), B: math3d.V3(d, y, half), Color: color},
			Segment{A: math3d.V3(-half, y, d), B: math3d.V3(half, y, d), Color: color},
		)
	}
	return segs
}
