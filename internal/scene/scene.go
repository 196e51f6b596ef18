// Package scene loads a model and its texture into rasterizer models and
// animates their rotation.
package scene

import (
	"fmt"
	"path/filepath"

	"github.com/taigrr/facet/pkg/math3d"
	"github.com/taigrr/facet/pkg/models"
	"github.com/taigrr/facet/pkg/render"
	"golang.org/x/sync/errgroup"
)

// Mode selects what the viewer draws.
type Mode int

const (
	ModeShaded    Mode = iota // Lit triangles, textured when a texture exists
	ModeFlat                  // Lit triangles in the material color
	ModeWireframe             // Triangle edges only
)

// FitSize is the extent of a loaded model's largest dimension in world
// units.
const FitSize = 2.0

var (
	fallbackColor  = render.RGB(200, 200, 200)
	wireframeColor = render.RGB(0, 255, 128)
)

// Scene is one loaded model prepared for drawing.
type Scene struct {
	Name    string
	Mesh    *models.Mesh
	Texture *render.Texture // Explicit or embedded texture, nil if none

	shaded *render.Model
	flat   *render.Model
	wire   *render.Model
	fit    math3d.Mat4
}

// Load reads the model and the optional texture concurrently. Without an
// explicit texture, the model's first embedded base color map is used.
func Load(modelPath, texturePath string) (*Scene, error) {
	var (
		g    errgroup.Group
		mesh *models.Mesh
		tex  *render.Texture
	)
	g.Go(func() error {
		m, err := models.Load(modelPath)
		if err != nil {
			return fmt.Errorf("load model: %w", err)
		}
		mesh = m
		return nil
	})
	if texturePath != "" {
		g.Go(func() error {
			t, err := render.LoadTexture(texturePath)
			if err != nil {
				return fmt.Errorf("load texture: %w", err)
			}
			tex = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if tex == nil {
		if img := mesh.BaseMap(); img != nil {
			tex = render.NewTexture(img)
		}
	}
	return New(filepath.Base(modelPath), mesh, tex), nil
}

// New prepares a mesh for drawing. tex may be nil.
func New(name string, mesh *models.Mesh, tex *render.Texture) *Scene {
	s := &Scene{
		Name:    name,
		Mesh:    mesh,
		Texture: tex,
		flat:    render.ModelFromMesh(mesh, fallbackColor),
		fit:     mesh.Fit(FitSize),
	}

	s.shaded = s.flat
	if tex != nil {
		shaded := *s.flat
		shaded.Texture = tex
		s.shaded = &shaded
	}

	s.wire = render.NewModel()
	s.wire.Segments = render.WireframeSegments(s.flat.Triangles, wireframeColor)
	s.wire.Bounds = s.flat.Bounds

	s.SetRotation(0, 0, 0)
	return s
}

// SetRotation orients the fitted model by pitch, yaw and roll in radians.
func (s *Scene) SetRotation(pitch, yaw, roll float64) {
	rot := math3d.RotateX(pitch).Mul(math3d.RotateY(yaw)).Mul(math3d.RotateZ(roll))
	t := rot.Mul(s.fit)
	s.shaded.Transform = t
	s.flat.Transform = t
	s.wire.Transform = t
}

// Model returns the model to draw in mode.
func (s *Scene) Model(mode Mode) *render.Model {
	switch mode {
	case ModeFlat:
		return s.flat
	case ModeWireframe:
		return s.wire
	default:
		return s.shaded
	}
}

// Show replaces the rasterizer's models with the scene in mode.
func (s *Scene) Show(r *render.Rasterizer, mode Mode) {
	r.ClearModels()
	r.PushModel(s.Model(mode))
}

// Lights adds every light to the rasterizer, replacing any existing ones.
func Lights(r *render.Rasterizer, lights []math3d.Vec3) {
	r.ClearLights()
	for _, l := range lights {
		r.AddLight(l)
	}
}
