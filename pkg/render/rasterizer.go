package render

import (
	"fmt"

	"github.com/taigrr/facet/pkg/math3d"
	"github.com/taigrr/facet/pkg/workpool"
)

// DefaultColumnThreshold is the bounding-box height, in rows, above which a
// triangle is split into one work unit per column.
const DefaultColumnThreshold = 100

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithColumnThreshold sets the bounding-box height above which triangles
// are split per column. Zero splits every triangle; negative values are
// ignored.
func WithColumnThreshold(rows int) Option {
	return func(r *Rasterizer) {
		if rows >= 0 {
			r.threshold = rows
		}
	}
}

// WithFillRule selects how edge pixels are assigned.
func WithFillRule(rule FillRule) Option {
	return func(r *Rasterizer) {
		r.fill = rule
	}
}

// Stats describes the last frame.
type Stats struct {
	Frame         uint64
	ModelsTested  int // models with bounds checked against the frustum
	ModelsCulled  int // models skipped entirely
	Segments      int
	LinePixels    int // line pixels that passed the depth test
	Triangles     int
	Offscreen     int // triangles with no pixel inside the viewport
	ColumnUnits   int // per-column work units
	TriangleUnits int // whole-triangle work units
	DroppedFrames uint64
}

// Rasterizer renders registered models into a pair of frame buffers. The
// back buffer is drawn while the front holds the last completed frame;
// after each Draw they swap and the new back buffer is cleared on the pool
// while the caller presents.
//
// A Rasterizer is driven from a single goroutine. Only the work it submits
// to its pool runs concurrently.
type Rasterizer struct {
	pool      *workpool.Pool
	threshold int
	fill      FillRule

	width, height int
	viewport      math3d.Mat4
	front, back   *FrameBuffer
	pending       *workpool.Group
	background    uint32

	camera       Camera
	resizeCamera bool
	lights       []math3d.Vec3
	viewLights   []math3d.Vec3
	models       []*Model

	scratch []screenTriangle
	frame   uint64
	dropped uint64
	stats   Stats
}

// NewRasterizer creates a rasterizer of the given size. Work runs on pool,
// which the caller owns and closes; a nil pool runs everything on the
// calling goroutine.
func NewRasterizer(width, height int, pool *workpool.Pool, opts ...Option) *Rasterizer {
	r := &Rasterizer{
		pool:      pool,
		threshold: DefaultColumnThreshold,
		fill:      FillTopLeft,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.allocate(width, height)

	Logger().Info("rasterizer created",
		"width", r.width, "height", r.height,
		"workers", pool.Workers(), "threshold", r.threshold, "fill", r.fill)
	return r
}

// Width returns the target width in pixels.
func (r *Rasterizer) Width() int { return r.width }

// Height returns the target height in pixels.
func (r *Rasterizer) Height() int { return r.height }

// Stats returns statistics of the last Draw.
func (r *Rasterizer) Stats() Stats { return r.stats }

// SetSize resizes both frame buffers. It waits for any pending clear
// first, and the bound camera is resized on the next Draw.
func (r *Rasterizer) SetSize(width, height int) {
	r.awaitClear()
	if width == r.width && height == r.height {
		return
	}
	r.allocate(width, height)
	r.resizeCamera = true
	Logger().Debug("rasterizer resized", "width", r.width, "height", r.height)
}

// SetCamera binds the camera used by subsequent frames. A nil camera
// renders with identity view and projection.
func (r *Rasterizer) SetCamera(c Camera) {
	r.camera = c
	r.resizeCamera = true
}

// AddLight adds a white point light at a world-space position.
func (r *Rasterizer) AddLight(pos math3d.Vec3) {
	r.lights = append(r.lights, pos)
}

// ClearLights removes every light.
func (r *Rasterizer) ClearLights() {
	r.lights = r.lights[:0]
}

// PushModel registers a model for subsequent frames. The rasterizer keeps
// the pointer but never modifies the model.
func (r *Rasterizer) PushModel(m *Model) {
	r.models = append(r.models, m)
}

// ClearModels unregisters every model.
func (r *Rasterizer) ClearModels() {
	clear(r.models)
	r.models = r.models[:0]
}

// SetBackgroundColor sets the clear color, applied from the next Draw.
func (r *Rasterizer) SetBackgroundColor(red, green, blue uint8) {
	r.background = PackRGB(RGB(red, green, blue))
}

// Front returns the buffer holding the last completed frame.
func (r *Rasterizer) Front() *FrameBuffer { return r.front }

// DepthAt returns the depth of the last completed frame at (x, y); +Inf
// where nothing was drawn.
func (r *Rasterizer) DepthAt(x, y int) float32 {
	return r.front.Depth(x, y)
}

// PixelAt returns the color of the last completed frame at (x, y).
func (r *Rasterizer) PixelAt(x, y int) Color {
	return UnpackRGB(r.front.Color(x, y))
}

// Close waits for the pending clear. It does not close the pool.
func (r *Rasterizer) Close() {
	r.awaitClear()
}

// Draw renders one frame and returns its pixels: row-major, row 0 at the
// bottom, one 0x00RRGGBB word per pixel. The slice stays valid until the
// next Draw.
//
// If a work unit fails the partially drawn frame is discarded: Draw logs
// the failure, returns the previous frame unchanged and an error wrapping
// the cause.
func (r *Rasterizer) Draw() ([]uint32, error) {
	r.awaitClear()
	if r.back.clearedTo != r.background {
		r.clear(r.back).Wait()
	}

	r.frame++
	stats := Stats{Frame: r.frame, DroppedFrames: r.dropped}

	view, proj := math3d.Identity(), math3d.Identity()
	viewer := math3d.V3(0, 0, 1)
	if r.camera != nil {
		if r.resizeCamera {
			r.camera.Resize(r.width, r.height)
			r.resizeCamera = false
		}
		view = r.camera.ViewMatrix()
		proj = r.camera.ProjectionMatrix()
		viewer = view.MulVec3(r.camera.WorldPosition())
	}
	vpv := r.viewport.Mul(proj).Mul(view)
	frustum := NewFrustumFromMatrix(proj.Mul(view))

	r.viewLights = r.viewLights[:0]
	for _, l := range r.lights {
		r.viewLights = append(r.viewLights, view.MulVec3(l))
	}
	sh := &shading{
		fb:       r.back,
		lighting: Lighting{Lights: r.viewLights},
		viewer:   viewer,
	}

	// transform everything and draw lines on this goroutine
	r.scratch = r.scratch[:0]
	for _, m := range r.models {
		model := m.transform()
		if m.Bounds != nil && r.camera != nil {
			stats.ModelsTested++
			if !frustum.IntersectAABB(m.Bounds.Transform(model)) {
				stats.ModelsCulled++
				continue
			}
		}

		mt := newModelTransform(vpv, view, model)
		for i := range m.Segments {
			seg := &m.Segments[i]
			col := seg.Color
			if col.A == 0 {
				col = ColorWhite
			}
			a, b := mt.segment(seg)
			stats.LinePixels += drawLine(r.back, a, b, PackRGB(col))
		}
		stats.Segments += len(m.Segments)

		for i := range m.Triangles {
			r.scratch = append(r.scratch, mt.triangle(&m.Triangles[i], m.Texture))
		}
	}
	stats.Triangles = len(r.scratch)

	// fan triangle fill out to the pool
	g := r.pool.Group()
	for i := range r.scratch {
		s := newSetup(&r.scratch[i], r.fill)
		minX, maxX, minY, maxY, ok := s.bounds(r.width, r.height)
		if !ok {
			stats.Offscreen++
			continue
		}
		if maxY-minY+1 <= r.threshold {
			g.Go(func() error {
				sh.fillColumns(&s, minX, maxX)
				return nil
			})
			stats.TriangleUnits++
			continue
		}
		for x := minX; x <= maxX; x++ {
			lo, hi, ok := s.columnSpan(x, r.height)
			if !ok {
				continue
			}
			g.Go(func() error {
				sh.fillColumn(&s, x, lo, hi)
				return nil
			})
			stats.ColumnUnits++
		}
	}
	if err := g.Wait(); err != nil {
		return r.dropFrame(stats, err)
	}

	g = r.pool.Group()
	for _, band := range r.back.rowBands(r.bands()) {
		g.Go(func() error {
			r.back.resolveRows(band[0], band[1])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return r.dropFrame(stats, err)
	}

	r.front, r.back = r.back, r.front
	r.pending = r.clear(r.back)
	r.stats = stats

	Logger().Debug("frame drawn",
		"frame", stats.Frame,
		"triangles", stats.Triangles,
		"column_units", stats.ColumnUnits,
		"triangle_units", stats.TriangleUnits,
		"culled", stats.ModelsCulled)
	return r.front.pixels, nil
}

// dropFrame discards the back buffer after a failed unit.
func (r *Rasterizer) dropFrame(stats Stats, err error) ([]uint32, error) {
	r.dropped++
	stats.DroppedFrames = r.dropped
	r.stats = stats
	Logger().Warn("dropping frame", "frame", stats.Frame, "err", err)

	r.pending = r.clear(r.back)
	return r.front.pixels, fmt.Errorf("render: frame %d: %w", stats.Frame, err)
}

func (r *Rasterizer) allocate(width, height int) {
	r.width, r.height = max(width, 0), max(height, 0)
	r.viewport = math3d.Viewport(r.width, r.height)
	r.front = NewFrameBuffer(r.width, r.height)
	r.back = NewFrameBuffer(r.width, r.height)

	r.clear(r.front).Wait()
	r.front.resolveRows(0, r.height)
	r.clear(r.back).Wait()
}

// clear starts clearing fb to the background color on the pool.
func (r *Rasterizer) clear(fb *FrameBuffer) *workpool.Group {
	bg := r.background
	fb.clearedTo = bg
	g := r.pool.Group()
	for _, band := range fb.rowBands(r.bands()) {
		g.Go(func() error {
			fb.clearRows(band[0], band[1], bg)
			return nil
		})
	}
	return g
}

func (r *Rasterizer) awaitClear() {
	if r.pending == nil {
		return
	}
	err := r.pending.Wait()
	r.pending = nil
	if err != nil {
		Logger().Warn("background clear failed, clearing inline", "err", err)
		r.back.clearRows(0, r.back.height, r.back.clearedTo)
	}
}

func (r *Rasterizer) bands() int {
	return max(1, r.pool.Workers())
}
