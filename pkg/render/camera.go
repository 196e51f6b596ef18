package render

import (
	"math"

	"github.com/taigrr/facet/pkg/math3d"
)

// Camera supplies the view and projection for a frame. The rasterizer
// queries it once per Draw and calls Resize once after its target size
// changes.
//
// Projections must map nearer geometry to larger NDC z; the rasterizer
// stores -z so that smaller depth is nearer.
type Camera interface {
	ViewMatrix() math3d.Mat4
	ProjectionMatrix() math3d.Mat4
	WorldPosition() math3d.Vec3
	Resize(width, height int)
}

// PerspectiveCamera is a free-look camera with a perspective projection.
type PerspectiveCamera struct {
	// Position in world space
	Position math3d.Vec3

	// Orientation (Euler angles in radians)
	Pitch float64 // Rotation around X axis (look up/down)
	Yaw   float64 // Rotation around Y axis (look left/right)

	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64
	Far         float64

	viewMatrix math3d.Mat4
	projMatrix math3d.Mat4
	viewDirty  bool
	projDirty  bool
}

var _ Camera = (*PerspectiveCamera)(nil)

// NewPerspectiveCamera creates a camera at pos looking down -Z.
// fov is in radians.
func NewPerspectiveCamera(pos math3d.Vec3, fov, near, far float64) *PerspectiveCamera {
	return &PerspectiveCamera{
		Position:    pos,
		FOV:         fov,
		AspectRatio: 1,
		Near:        near,
		Far:         far,
		viewDirty:   true,
		projDirty:   true,
	}
}

// WorldPosition returns the eye position.
func (c *PerspectiveCamera) WorldPosition() math3d.Vec3 {
	return c.Position
}

// Resize adapts the aspect ratio to a new target size.
func (c *PerspectiveCamera) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.AspectRatio = float64(width) / float64(height)
	c.projDirty = true
}

// SetPosition moves the camera.
func (c *PerspectiveCamera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.viewDirty = true
}

// Forward returns the viewing direction.
func (c *PerspectiveCamera) Forward() math3d.Vec3 {
	return math3d.V3(
		-math.Sin(c.Yaw)*math.Cos(c.Pitch),
		math.Sin(c.Pitch),
		-math.Cos(c.Yaw)*math.Cos(c.Pitch),
	)
}

// Right returns the horizontal right vector.
func (c *PerspectiveCamera) Right() math3d.Vec3 {
	return math3d.V3(math.Cos(c.Yaw), 0, -math.Sin(c.Yaw))
}

// MoveForward moves along the viewing direction.
func (c *PerspectiveCamera) MoveForward(distance float64) {
	c.SetPosition(c.Position.Add(c.Forward().Scale(distance)))
}

// MoveRight strafes sideways.
func (c *PerspectiveCamera) MoveRight(distance float64) {
	c.SetPosition(c.Position.Add(c.Right().Scale(distance)))
}

// Rotate turns the camera, clamping pitch short of straight up or down.
func (c *PerspectiveCamera) Rotate(deltaPitch, deltaYaw float64) {
	const maxPitch = math.Pi/2 - 0.01
	c.Pitch = math.Max(-maxPitch, math.Min(maxPitch, c.Pitch+deltaPitch))
	c.Yaw += deltaYaw
	c.viewDirty = true
}

// LookAt orients the camera toward target.
func (c *PerspectiveCamera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position).Normalize()
	c.Pitch = math.Asin(dir.Y)
	c.Yaw = math.Atan2(-dir.X, -dir.Z)
	c.viewDirty = true
}

// ViewMatrix returns the world-to-view transform.
func (c *PerspectiveCamera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		rot := math3d.RotateX(-c.Pitch).Mul(math3d.RotateY(-c.Yaw))
		c.viewMatrix = rot.Mul(math3d.Translate(c.Position.Negate()))
		c.viewDirty = false
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the perspective projection with its depth axis
// flipped, so nearer points get larger NDC z.
func (c *PerspectiveCamera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.projMatrix = math3d.Scale(math3d.V3(1, 1, -1)).
			Mul(math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far))
		c.projDirty = false
	}
	return c.projMatrix
}

// Frustum returns the world-space view volume.
func (c *PerspectiveCamera) Frustum() Frustum {
	return NewFrustumFromMatrix(c.ProjectionMatrix().Mul(c.ViewMatrix()))
}
