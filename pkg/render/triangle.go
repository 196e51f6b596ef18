package render

import (
	"math"

	"github.com/taigrr/facet/pkg/math3d"
)

// FillRule decides which pixels lying exactly on a triangle edge are
// covered.
type FillRule int

const (
	// FillTopLeft covers edge pixels only on top and left edges, so two
	// triangles sharing an edge never both shade it.
	FillTopLeft FillRule = iota
	// FillInclusive covers every pixel whose barycentric weights are all
	// non-negative. Shared edges are shaded by both triangles.
	FillInclusive
)

func (f FillRule) String() string {
	switch f {
	case FillTopLeft:
		return "top-left"
	case FillInclusive:
		return "inclusive"
	default:
		return "unknown"
	}
}

// shading is the per-frame state every fragment reads.
type shading struct {
	fb       *FrameBuffer
	lighting Lighting
	viewer   math3d.Vec3
}

// setup is a screen triangle with its edge ownership resolved.
type setup struct {
	*screenTriangle
	// inclusive[i] reports whether pixels on the edge opposite vertex i
	// are covered when that weight is exactly zero.
	inclusive [3]bool
}

func newSetup(st *screenTriangle, rule FillRule) setup {
	s := setup{screenTriangle: st}
	if rule == FillInclusive {
		s.inclusive = [3]bool{true, true, true}
		return s
	}

	p := st.screen
	area := (p[1].X-p[0].X)*(p[2].Y-p[0].Y) - (p[2].X-p[0].X)*(p[1].Y-p[0].Y)
	for i := range 3 {
		// walk the edge opposite i counter-clockwise (y up)
		a, b := p[(i+1)%3], p[(i+2)%3]
		if area < 0 {
			a, b = b, a
		}
		dx, dy := b.X-a.X, b.Y-a.Y
		// left edges run downward, top edges run toward -x
		s.inclusive[i] = dy < 0 || (dy == 0 && dx < 0)
	}
	return s
}

// barycentric solves the weights of pixel (x, y) against the screen
// triangle directly. A degenerate triangle yields non-finite weights.
func (st *screenTriangle) barycentric(x, y float64) (w0, w1, w2 float64) {
	xa, ya := st.screen[0].X, st.screen[0].Y
	xb, yb := st.screen[1].X, st.screen[1].Y
	xc, yc := st.screen[2].X, st.screen[2].Y

	w0 = (x*(yb-yc) + (xc-xb)*y + xb*yc - xc*yb) / (xa*(yb-yc) + (xc-xb)*ya + xb*yc - xc*yb)
	w1 = (x*(yc-ya) + (xa-xc)*y + xc*ya - xa*yc) / (xb*(yc-ya) + (xa-xc)*yb + xc*ya - xa*yc)
	w2 = (x*(ya-yb) + (xb-xa)*y + xa*yb - xb*ya) / (xc*(ya-yb) + (xb-xa)*yc + xa*yb - xb*ya)
	return w0, w1, w2
}

func (s *setup) covers(w0, w1, w2 float64) bool {
	return owns(w0, s.inclusive[0]) && owns(w1, s.inclusive[1]) && owns(w2, s.inclusive[2])
}

// owns fails for NaN.
func owns(w float64, inclusive bool) bool {
	return w > 0 || (w == 0 && inclusive)
}

// columnSpan intersects the vertical line x with the triangle's edges and
// returns the covered row range clamped to [0, height).
func (st *screenTriangle) columnSpan(x, height int) (lo, hi int, ok bool) {
	c := float64(x)
	ymin, ymax := math.Inf(1), math.Inf(-1)
	hit := false

	add := func(y float64) {
		hit = true
		ymin = math.Min(ymin, y)
		ymax = math.Max(ymax, y)
	}

	for i := range 3 {
		p1, p2 := st.screen[i], st.screen[(i+1)%3]
		if p1.X == p2.X {
			if p1.X == c {
				add(p1.Y)
				add(p2.Y)
			}
			continue
		}
		if (p1.X-c)*(p2.X-c) <= 0 {
			add(p1.Y + (p2.Y-p1.Y)*(c-p1.X)/(p2.X-p1.X))
		}
	}
	if !hit {
		return 0, 0, false
	}

	ymin = math.Max(math.Ceil(ymin), 0)
	ymax = math.Min(math.Floor(ymax), float64(height-1))
	if !(ymin <= ymax) {
		return 0, 0, false
	}
	return int(ymin), int(ymax), true
}

// fillColumn shades rows lo..hi of column x.
func (sh *shading) fillColumn(s *setup, x, lo, hi int) {
	fb := sh.fb
	for y := lo; y <= hi; y++ {
		w0, w1, w2 := s.barycentric(float64(x), float64(y))
		if !s.covers(w0, w1, w2) {
			continue
		}

		p := math3d.Blend3(s.screen[0], s.screen[1], s.screen[2], w0, w1, w2)
		depth := float32(-p.Z)
		idx := y*fb.width + x

		// a strictly farther fragment can never win, skip shading it
		if orderedDepth(depth) > uint32(fb.cells[idx].Load()>>32) {
			continue
		}

		rgb := packVec(sh.shade(s, w0, w1, w2))
		fb.depthTest(idx, packCell(depth, rgb))
	}
}

// fillColumns runs the whole column loop of a triangle as one unit.
func (sh *shading) fillColumns(s *setup, minX, maxX int) {
	for x := minX; x <= maxX; x++ {
		if lo, hi, ok := s.columnSpan(x, sh.fb.height); ok {
			sh.fillColumn(s, x, lo, hi)
		}
	}
}

func (sh *shading) shade(s *setup, w0, w1, w2 float64) math3d.Vec3 {
	var base math3d.Vec3
	if s.tex != nil {
		uv := math3d.Blend2(s.uv[0], s.uv[1], s.uv[2], w0, w1, w2)
		c := s.tex.Sample(uv.X, uv.Y)
		base = math3d.V3(float64(c.R), float64(c.G), float64(c.B))
	} else {
		base = math3d.Blend3(s.color[0], s.color[1], s.color[2], w0, w1, w2)
	}
	if len(sh.lighting.Lights) == 0 {
		return base
	}

	n := math3d.Blend3(s.normal[0], s.normal[1], s.normal[2], w0, w1, w2).Normalize()
	frag := math3d.Blend3(s.view[0], s.view[1], s.view[2], w0, w1, w2)
	return sh.lighting.Shade(frag, n, sh.viewer, base)
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
