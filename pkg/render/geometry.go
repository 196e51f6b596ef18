package render

import (
	"math"

	"github.com/taigrr/facet/pkg/math3d"
)

// VertexNormal is an optional per-vertex normal. The zero value means the
// normal is not authored and the face normal is derived from the triangle.
type VertexNormal struct {
	dir      math3d.Vec3
	authored bool
}

// Authored returns an authored model-space normal.
func Authored(n math3d.Vec3) VertexNormal {
	return VertexNormal{dir: n, authored: true}
}

// Get returns the authored normal and whether one was set.
func (n VertexNormal) Get() (math3d.Vec3, bool) {
	return n.dir, n.authored
}

// Vertex carries the per-vertex attributes of a triangle.
type Vertex struct {
	Position math3d.Vec3
	Normal   VertexNormal
	UV       math3d.Vec2
	Color    Color
}

// Triangle is three model-space vertices.
type Triangle struct {
	V [3]Vertex
}

// Segment is a model-space line. An unset Color draws white.
type Segment struct {
	A, B  math3d.Vec3
	Color Color
}

// Sampler maps texture coordinates to a base color.
type Sampler interface {
	Sample(u, v float64) Color
}

// Model is a list of triangles and segments with a model-to-world transform.
// The rasterizer only reads a Model and never retains it past Draw, but the
// caller must not mutate it while Draw runs.
type Model struct {
	Triangles []Triangle
	Segments  []Segment

	// Transform maps model space to world space. The zero matrix is
	// treated as identity.
	Transform math3d.Mat4

	// Texture, when set, supplies the base color instead of vertex colors.
	Texture Sampler

	// Bounds is the optional model-space bounding box used to skip models
	// entirely outside the view volume.
	Bounds *AABB
}

// NewModel returns an empty model with an identity transform.
func NewModel() *Model {
	return &Model{Transform: math3d.Identity()}
}

func (m *Model) transform() math3d.Mat4 {
	if m.Transform == (math3d.Mat4{}) {
		return math3d.Identity()
	}
	return m.Transform
}

// modelTransform holds the two matrices a model needs per frame.
type modelTransform struct {
	mvpv math3d.Mat4 // model -> screen
	mv   math3d.Mat4 // model -> view
}

func newModelTransform(vpv, view, model math3d.Mat4) modelTransform {
	return modelTransform{
		mvpv: vpv.Mul(model),
		mv:   view.Mul(model),
	}
}

// screenTriangle is a triangle ready for rasterization: screen-space
// positions for coverage and depth, view-space positions and normals for
// shading.
type screenTriangle struct {
	screen [3]math3d.Vec3
	view   [3]math3d.Vec3
	normal [3]math3d.Vec3
	uv     [3]math3d.Vec2
	color  [3]math3d.Vec3
	tex    Sampler
}

func (mt modelTransform) triangle(tri *Triangle, tex Sampler) screenTriangle {
	st := screenTriangle{tex: tex}
	for i, v := range tri.V {
		p := math3d.Point(v.Position)
		st.screen[i] = mt.mvpv.MulVec4(p).Homogenize().Vec3()
		st.view[i] = mt.mv.MulVec4(p).Homogenize().Vec3()
		st.uv[i] = v.UV
		st.color[i] = colorVec(v.Color)
	}

	var face math3d.Vec3
	faceDone := false
	for i, v := range tri.V {
		if n, ok := v.Normal.Get(); ok {
			st.normal[i] = mt.mv.MulVec3Dir(n).Normalize()
			continue
		}
		if !faceDone {
			face = st.view[1].Sub(st.view[0]).Cross(st.view[2].Sub(st.view[0])).Normalize()
			faceDone = true
		}
		st.normal[i] = face
	}
	return st
}

func (mt modelTransform) segment(s *Segment) (a, b math3d.Vec3) {
	a = mt.mvpv.MulVec4(math3d.Point(s.A)).Homogenize().Vec3()
	b = mt.mvpv.MulVec4(math3d.Point(s.B)).Homogenize().Vec3()
	return a, b
}

// bounds returns the integer bounding box of the screen triangle clamped to
// the viewport. ok is false when nothing of it lies inside.
func (st *screenTriangle) bounds(width, height int) (minX, maxX, minY, maxY int, ok bool) {
	fx0, fx1 := min3(st.screen[0].X, st.screen[1].X, st.screen[2].X), max3(st.screen[0].X, st.screen[1].X, st.screen[2].X)
	fy0, fy1 := min3(st.screen[0].Y, st.screen[1].Y, st.screen[2].Y), max3(st.screen[0].Y, st.screen[1].Y, st.screen[2].Y)

	// non-finite coordinates fail every comparison below
	if !(fx0 <= fx1 && fy0 <= fy1) {
		return 0, 0, 0, 0, false
	}
	if fx1 < 0 || fy1 < 0 || fx0 > float64(width-1) || fy0 > float64(height-1) {
		return 0, 0, 0, 0, false
	}
	minX = int(math.Floor(math.Max(fx0, 0)))
	maxX = int(math.Floor(math.Min(fx1, float64(width-1))))
	minY = int(math.Floor(math.Max(fy0, 0)))
	maxY = int(math.Floor(math.Min(fy1, float64(height-1))))
	return minX, maxX, minY, maxY, minX <= maxX && minY <= maxY
}
