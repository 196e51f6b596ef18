package models

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/facet/pkg/math3d"
	"github.com/taigrr/facet/pkg/render"
)

// LoadGLTF loads every triangle primitive of a .gltf or .glb file into one
// mesh, with materials and their decoded base color textures.
func LoadGLTF(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return meshFromDocument(doc, filepath.Base(path), filepath.Dir(path))
}

func meshFromDocument(doc *gltf.Document, name, dir string) (*Mesh, error) {
	mesh := NewMesh(name)

	images := make(map[int]image.Image)
	for _, mat := range doc.Materials {
		m, err := material(doc, mat, dir, images)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", mat.Name, err)
		}
		mesh.Materials = append(mesh.Materials, m)
	}

	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			if err := addPrimitive(doc, prim, mesh); err != nil {
				return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
			}
		}
	}
	mesh.CalculateBounds()
	return mesh, nil
}

func addPrimitive(doc *gltf.Document, prim *gltf.Primitive, mesh *Mesh) error {
	// lines and points have nothing to fill
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}

	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("read normals: %w", err)
		}
	}

	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("read uvs: %w", err)
		}
	}

	base := len(mesh.Vertices)
	for i, p := range positions {
		v := MeshVertex{Position: vec3(p)}
		if i < len(normals) {
			v.Normal = vec3(normals[i])
		}
		if i < len(uvs) {
			// glTF puts v = 0 at the top of the image
			v.UV = math3d.V2(float64(uvs[i][0]), 1-float64(uvs[i][1]))
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}

	matIdx := -1
	if prim.Material != nil {
		matIdx = *prim.Material
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		face := Face{Material: matIdx}
		for k := range 3 {
			idx := int(indices[i+k])
			if idx >= len(positions) {
				return fmt.Errorf("index %d out of range (%d vertices)", idx, len(positions))
			}
			face.V[k] = base + idx
		}
		mesh.Faces = append(mesh.Faces, face)
	}
	return nil
}

func material(doc *gltf.Document, mat *gltf.Material, dir string, cache map[int]image.Image) (Material, error) {
	out := Material{
		Name:      mat.Name,
		BaseColor: [4]float64{1, 1, 1, 1},
		Metallic:  1,
		Roughness: 1,
	}
	pbr := mat.PBRMetallicRoughness
	if pbr == nil {
		return out, nil
	}
	if pbr.BaseColorFactor != nil {
		out.BaseColor = *pbr.BaseColorFactor
	}
	if pbr.MetallicFactor != nil {
		out.Metallic = *pbr.MetallicFactor
	}
	if pbr.RoughnessFactor != nil {
		out.Roughness = *pbr.RoughnessFactor
	}
	if pbr.BaseColorTexture != nil {
		img, err := textureImage(doc, pbr.BaseColorTexture.Index, dir, cache)
		if err != nil {
			return out, err
		}
		out.BaseMap = img
	}
	return out, nil
}

// textureImage decodes the image behind a texture, embedded or external.
// A missing external file is an error; undecodable images are skipped.
func textureImage(doc *gltf.Document, texIdx int, dir string, cache map[int]image.Image) (image.Image, error) {
	if texIdx < 0 || texIdx >= len(doc.Textures) || doc.Textures[texIdx].Source == nil {
		return nil, nil
	}
	imgIdx := *doc.Textures[texIdx].Source
	if img, ok := cache[imgIdx]; ok {
		return img, nil
	}
	if imgIdx < 0 || imgIdx >= len(doc.Images) {
		return nil, nil
	}

	var data []byte
	src := doc.Images[imgIdx]
	switch {
	case src.BufferView != nil:
		bv := doc.BufferViews[*src.BufferView]
		buf := doc.Buffers[bv.Buffer].Data
		if bv.ByteOffset+bv.ByteLength <= len(buf) {
			data = buf[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
		}
	case src.URI != "" && !strings.HasPrefix(src.URI, "data:"):
		var err error
		if data, err = os.ReadFile(filepath.Join(dir, src.URI)); err != nil {
			return nil, fmt.Errorf("read texture: %w", err)
		}
	}

	img, _, err := render.DecodeImage(bytes.NewReader(data), src.URI)
	if err != nil {
		img = nil
	}
	cache[imgIdx] = img
	return img, nil
}

func vec3(v [3]float32) math3d.Vec3 {
	return math3d.V3(float64(v[0]), float64(v[1]), float64(v[2]))
}
