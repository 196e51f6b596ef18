package models

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// quadDocument builds a unit quad made of two indexed triangles, the first
// with a red material.
func quadDocument(withNormals bool) *gltf.Document {
	doc := gltf.NewDocument()
	attrs := map[string]int{
		gltf.POSITION: modeler.WritePosition(doc, [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		}),
		gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, [][2]float32{
			{0, 1}, {1, 1}, {1, 0}, {0, 0},
		}),
	}
	if withNormals {
		attrs[gltf.NORMAL] = modeler.WriteNormal(doc, [][3]float32{
			{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1},
		})
	}

	red := [4]float64{1, 0, 0, 1}
	doc.Materials = []*gltf.Material{{
		Name:                 "red",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorFactor: &red},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "quad",
		Primitives: []*gltf.Primitive{
			{
				Indices:    gltf.Index(modeler.WriteIndices(doc, []uint16{0, 1, 2})),
				Attributes: attrs,
				Material:   gltf.Index(0),
			},
			{
				Indices:    gltf.Index(modeler.WriteIndices(doc, []uint16{0, 2, 3})),
				Attributes: attrs,
			},
		},
	}}
	return doc
}

func saveGLB(t *testing.T, doc *gltf.Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quad.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("SaveBinary() error = %v", err)
	}
	return path
}

func writeQuadGLB(t *testing.T, withNormals bool) string {
	t.Helper()
	return saveGLB(t, quadDocument(withNormals))
}

// withBaseMap gives the red material a base color texture showing image img.
func withBaseMap(doc *gltf.Document, img int) {
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(img)}}
	doc.Materials[0].PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: 0}
}

func TestLoadGLTF(t *testing.T) {
	mesh, err := Load(writeQuadGLB(t, true))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if mesh.TriangleCount() != 2 {
		t.Errorf("TriangleCount() = %d, want 2", mesh.TriangleCount())
	}
	// two primitives sharing one accessor set still append their own
	// vertices
	if mesh.VertexCount() != 8 {
		t.Errorf("VertexCount() = %d, want 8", mesh.VertexCount())
	}
	if mesh.BoundsMax.X != 1 || mesh.BoundsMax.Y != 1 {
		t.Errorf("BoundsMax = %v, want (1,1,0)", mesh.BoundsMax)
	}

	_, n, uv := mesh.GetVertex(mesh.GetFace(0)[2])
	if n.Z != 1 {
		t.Errorf("normal = %v, want +Z", n)
	}
	// v is flipped so that 0 is the bottom of the image
	if uv.X != 1 || uv.Y != 1 {
		t.Errorf("uv = %v, want (1,1)", uv)
	}

	c, ok := mesh.FaceColor(0)
	if !ok || c != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("FaceColor(0) = %v, %v, want red", c, ok)
	}
	if _, ok := mesh.FaceColor(1); ok {
		t.Error("FaceColor(1) should report no material")
	}
}

func TestLoadGLTFDerivesNormals(t *testing.T) {
	mesh, err := Load(writeQuadGLB(t, false))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for i := range mesh.TriangleCount() {
		for _, idx := range mesh.GetFace(i) {
			if n := mesh.Vertices[idx].Normal; math.Abs(n.Z-1) > 1e-9 {
				t.Errorf("vertex %d normal = %v, want +Z", idx, n)
			}
		}
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load("/nonexistent/path.glb"); err == nil {
		t.Error("expected error for nonexistent file")
	}
	if _, err := Load("model.stl"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(.stl) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestMaterialColor(t *testing.T) {
	tests := []struct {
		name string
		base [4]float64
		want color.RGBA
	}{
		{"white", [4]float64{1, 1, 1, 1}, color.RGBA{255, 255, 255, 255}},
		{"half", [4]float64{0.5, 0.5, 0.5, 1}, color.RGBA{128, 128, 128, 255}},
		{"clamped", [4]float64{2, -1, 0, 0.5}, color.RGBA{255, 0, 0, 128}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := (Material{BaseColor: tc.base}).Color(); got != tc.want {
				t.Errorf("Color() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGetMaterial(t *testing.T) {
	mesh := NewMesh("test")
	mesh.Materials = []Material{{Name: "red"}, {Name: "green"}}
	mesh.Faces = []Face{{Material: 1}, {Material: -1}}

	if m := mesh.GetMaterial(1); m == nil || m.Name != "green" {
		t.Errorf("GetMaterial(1) = %v, want green", m)
	}
	if mesh.GetMaterial(-1) != nil || mesh.GetMaterial(5) != nil {
		t.Error("out of range materials should be nil")
	}
	if _, ok := mesh.FaceColor(1); ok {
		t.Error("face without material should have no color")
	}
}

func TestFit(t *testing.T) {
	mesh := NewMesh("box")
	mesh.Vertices = []MeshVertex{{Position: vec3([3]float32{2, 2, 2})}, {Position: vec3([3]float32{6, 4, 3})}}
	mesh.CalculateBounds()

	m := mesh.Fit(2)
	lo, hi := m.MulVec3(mesh.BoundsMin), m.MulVec3(mesh.BoundsMax)
	if math.Abs(lo.X+1) > 1e-9 || math.Abs(hi.X-1) > 1e-9 {
		t.Errorf("fitted x range = %v..%v, want -1..1", lo.X, hi.X)
	}
	if math.Abs(lo.Y+hi.Y) > 1e-9 {
		t.Errorf("fitted y range %v..%v not centered", lo.Y, hi.Y)
	}
}

func TestLoadGLTFTextures(t *testing.T) {
	t.Run("embedded png", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 2, 2))
		src.SetRGBA(0, 0, color.RGBA{0, 0, 255, 255})
		var buf bytes.Buffer
		if err := png.Encode(&buf, src); err != nil {
			t.Fatal(err)
		}

		doc := quadDocument(true)
		idx, err := modeler.WriteImage(doc, "tex", "image/png", &buf)
		if err != nil {
			t.Fatalf("WriteImage() error = %v", err)
		}
		withBaseMap(doc, idx)

		mesh, err := LoadGLTF(saveGLB(t, doc))
		if err != nil {
			t.Fatalf("LoadGLTF() error = %v", err)
		}
		img := mesh.BaseMap()
		if img == nil {
			t.Fatal("BaseMap() = nil, want the embedded png")
		}
		if r, g, b, _ := img.At(0, 0).RGBA(); r != 0 || g != 0 || b != 0xFFFF {
			t.Errorf("texel (0,0) = %d,%d,%d, want blue", r, g, b)
		}
	})

	t.Run("missing external file", func(t *testing.T) {
		doc := quadDocument(true)
		doc.Images = []*gltf.Image{{URI: "missing.png"}}
		withBaseMap(doc, 0)

		_, err := LoadGLTF(saveGLB(t, doc))
		if err == nil || !strings.Contains(err.Error(), "read texture") {
			t.Errorf("LoadGLTF() error = %v, want read texture failure", err)
		}
	})
}
