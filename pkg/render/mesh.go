package render

import (
	"github.com/taigrr/facet/pkg/math3d"
)

// MeshSource is an indexed triangle mesh. models.Mesh implements it; the
// interface keeps render free of a dependency on the loaders.
type MeshSource interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	GetFace(i int) [3]int
}

// BoundedMeshSource also reports its model-space bounds.
type BoundedMeshSource interface {
	MeshSource
	GetBounds() (min, max math3d.Vec3)
}

// ColoredMeshSource also reports a per-face material color.
type ColoredMeshSource interface {
	MeshSource
	FaceColor(i int) (Color, bool)
}

// ModelFromMesh builds a Model from a mesh. Vertices with a zero normal get
// the derived face normal. Faces take their material color when the mesh
// has one, else fallback.
func ModelFromMesh(mesh MeshSource, fallback Color) *Model {
	m := NewModel()
	m.Triangles = make([]Triangle, 0, mesh.TriangleCount())

	colored, hasColors := mesh.(ColoredMeshSource)
	for i := range mesh.TriangleCount() {
		face := mesh.GetFace(i)
		col := fallback
		if hasColors {
			if c, ok := colored.FaceColor(i); ok {
				col = c
			}
		}

		var tri Triangle
		for k, idx := range face {
			pos, n, uv := mesh.GetVertex(idx)
			tri.V[k] = Vertex{Position: pos, UV: uv, Color: col}
			if n != (math3d.Vec3{}) {
				tri.V[k].Normal = Authored(n)
			}
		}
		m.Triangles = append(m.Triangles, tri)
	}

	if b, ok := mesh.(BoundedMeshSource); ok {
		lo, hi := b.GetBounds()
		m.Bounds = &AABB{Min: lo, Max: hi}
	}
	return m
}
