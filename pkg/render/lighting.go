package render

import (
	"math"

	"github.com/taigrr/facet/pkg/math3d"
)

// Phong constants for the white point lights.
const (
	AmbientStrength  = 0.1
	SpecularStrength = 0.5
	Shininess        = 32
)

// Terms is the contribution of a single light at a fragment.
type Terms struct {
	Ambient  float64
	Diffuse  float64
	Specular float64
}

// Sum returns the total intensity.
func (t Terms) Sum() float64 {
	return t.Ambient + t.Diffuse + t.Specular
}

// Lighting evaluates ambient, diffuse and specular terms for a set of
// full-intensity white point lights. All positions must share one space;
// the rasterizer uses view space.
type Lighting struct {
	Lights []math3d.Vec3
}

// Contribution returns the terms of the light at lightPos for a fragment
// at frag with unit normal n, seen from viewer.
func Contribution(frag, n, viewer, lightPos math3d.Vec3) Terms {
	l := lightPos.Sub(frag).Normalize()
	v := viewer.Sub(frag).Normalize()
	r := l.Negate().Reflect(n)

	return Terms{
		Ambient:  AmbientStrength,
		Diffuse:  math.Max(n.Dot(l), 0),
		Specular: SpecularStrength * math.Pow(math.Max(r.Dot(v), 0), Shininess),
	}
}

// Intensity sums the contribution of every light.
func (lg Lighting) Intensity(frag, n, viewer math3d.Vec3) float64 {
	var total float64
	for _, lp := range lg.Lights {
		total += Contribution(frag, n, viewer, lp).Sum()
	}
	return total
}

// Shade returns the lit color for a base color in 0..255, clamped to
// 0..255. With no lights the base color is returned unchanged.
func (lg Lighting) Shade(frag, n, viewer, base math3d.Vec3) math3d.Vec3 {
	if len(lg.Lights) == 0 {
		return base
	}
	i := lg.Intensity(frag, n, viewer)
	return math3d.V3(
		math.Min(base.X*i, 255),
		math.Min(base.Y*i, 255),
		math.Min(base.Z*i, 255),
	)
}
