package scene

import "github.com/charmbracelet/harmonica"

// Axis is one rotation axis whose velocity springs back to rest.
type Axis struct {
	Position float64
	Velocity float64

	spring harmonica.Spring
	accel  float64 // spring velocity of Velocity itself
}

// NewAxis returns an axis at rest, stepped fps times per second.
func NewAxis(fps int) Axis {
	// critically damped, so the spin slows without reversing
	return Axis{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

// Update advances one frame.
func (a *Axis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
}

// Spin tracks pitch, yaw and roll under spring-damped impulses.
type Spin struct {
	Pitch, Yaw, Roll Axis
	fps              int
}

// NewSpin returns a spin at rest.
func NewSpin(fps int) *Spin {
	s := &Spin{fps: fps}
	s.Reset()
	return s
}

// Update advances every axis one frame.
func (s *Spin) Update() {
	s.Pitch.Update()
	s.Yaw.Update()
	s.Roll.Update()
}

// Impulse adds to each axis velocity.
func (s *Spin) Impulse(pitch, yaw, roll float64) {
	s.Pitch.Velocity += pitch
	s.Yaw.Velocity += yaw
	s.Roll.Velocity += roll
}

// Reset returns every axis to rest at zero.
func (s *Spin) Reset() {
	s.Pitch = NewAxis(s.fps)
	s.Yaw = NewAxis(s.fps)
	s.Roll = NewAxis(s.fps)
}

// Apply sets the scene rotation to the current angles.
func (s *Spin) Apply(sc *Scene) {
	sc.SetRotation(s.Pitch.Position, s.Yaw.Position, s.Roll.Position)
}
