package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by Load for unknown file extensions.
var ErrUnsupportedFormat = errors.New("models: unsupported format")

// Load reads a .glb, .gltf or .obj file, picking the loader from the
// extension. Meshes without normals get smooth normals.
func Load(path string) (*Mesh, error) {
	var (
		mesh *Mesh
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".glb", ".gltf":
		mesh, err = LoadGLTF(path)
	case ".obj":
		mesh, err = LoadOBJ(path)
	default:
		return nil, fmt.Errorf("%w: %q (use .obj, .gltf or .glb)", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	if !mesh.HasNormals() {
		mesh.CalculateSmoothNormals()
	}
	mesh.CalculateBounds()
	return mesh, nil
}
