// facetwin - Windowed 3D Model Viewer
// Shows the same software-rasterized view as facet in a desktop window.
//
// Controls:
//
//	Mouse drag  - Rotate model
//	Wheel       - Zoom in/out
//	W/S/A/D     - Pitch and yaw
//	Q/E         - Roll left/right
//	R           - Reset rotation
//	T           - Toggle texture
//	X           - Toggle wireframe
//	Esc         - Quit
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/taigrr/facet/internal/config"
	"github.com/taigrr/facet/internal/scene"
	"github.com/taigrr/facet/pkg/math3d"
	"github.com/taigrr/facet/pkg/render"
	"github.com/taigrr/facet/pkg/workpool"
)

var (
	configPath  = flag.String("config", "", "Path to a JSON config file")
	texturePath = flag.String("texture", "", "Path to texture image (PNG/JPG/TGA)")
	width       = flag.Int("width", 320, "Render width in pixels")
	height      = flag.Int("height", 180, "Render height in pixels")
	scale       = flag.Int("scale", 3, "Window pixels per rendered pixel")
	workers     = flag.Int("workers", 0, "Rasterizer workers (default NumCPU)")
	fillRule    = flag.String("fill", "", "Edge fill rule: top-left or inclusive")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error")
)

const torqueStrength = 3.0

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: facetwin [options] <model.obj|model.gltf|model.glb>\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(modelPath string) error {
	var cfg config.Config
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	cfg.Resolve(config.Flags{
		Width:    *width,
		Height:   *height,
		Workers:  *workers,
		FillRule: *fillRule,
		Texture:  *texturePath,
		LogLevel: *logLevel,
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.Level()
	render.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	sc, err := scene.Load(modelPath, cfg.Texture)
	if err != nil {
		return err
	}

	pool := workpool.New(cfg.Workers)
	defer pool.Close()

	g := newGame(cfg, sc, pool)
	defer g.r.Close()

	ebiten.SetWindowTitle("facet - " + sc.Name)
	ebiten.SetWindowSize(cfg.Width*(*scale), cfg.Height*(*scale))
	ebiten.SetTPS(cfg.FPS)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}

// game adapts the rasterizer to ebiten's update/draw loop.
type game struct {
	cfg  config.Config
	sc   *scene.Scene
	r    *render.Rasterizer
	cam  *render.PerspectiveCamera
	spin *scene.Spin

	wireframe bool
	textured  bool
	cameraZ   float64

	dragging     bool
	lastX, lastY int
}

func newGame(cfg config.Config, sc *scene.Scene, pool *workpool.Pool) *game {
	r := render.NewRasterizer(cfg.Width, cfg.Height, pool, cfg.RenderOptions()...)
	bgR, bgG, bgB, _ := cfg.BackgroundRGB()
	r.SetBackgroundColor(bgR, bgG, bgB)
	scene.Lights(r, cfg.LightPositions())

	cam := render.NewPerspectiveCamera(math3d.V3(0, 0, cfg.CameraDistance), cfg.FOV*math.Pi/180, 0.1, 100)
	r.SetCamera(cam)

	return &game{
		cfg:      cfg,
		sc:       sc,
		r:        r,
		cam:      cam,
		spin:     scene.NewSpin(cfg.FPS),
		textured: true,
		cameraZ:  cfg.CameraDistance,
	}
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		g.textured = !g.textured
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyX) {
		g.wireframe = !g.wireframe
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.spin.Reset()
		g.cameraZ = g.cfg.CameraDistance
	}

	dt := 1 / float64(ebiten.TPS())
	axis := func(neg, pos ebiten.Key) float64 {
		v := 0.0
		if ebiten.IsKeyPressed(neg) {
			v -= torqueStrength
		}
		if ebiten.IsKeyPressed(pos) {
			v += torqueStrength
		}
		return v * dt
	}
	g.spin.Impulse(axis(ebiten.KeyW, ebiten.KeyS), axis(ebiten.KeyA, ebiten.KeyD), axis(ebiten.KeyQ, ebiten.KeyE))

	x, y := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if g.dragging {
			g.spin.Impulse(float64(y-g.lastY)*0.01, float64(x-g.lastX)*0.01, 0)
		}
		g.dragging = true
		g.lastX, g.lastY = x, y
	} else {
		g.dragging = false
	}

	if _, wheel := ebiten.Wheel(); wheel != 0 {
		g.cameraZ = math.Max(1, math.Min(20, g.cameraZ-wheel*0.5))
	}
	g.cam.SetPosition(math3d.V3(0, 0, g.cameraZ))

	g.spin.Update()
	g.spin.Apply(g.sc)
	return nil
}

func (g *game) mode() scene.Mode {
	switch {
	case g.wireframe:
		return scene.ModeWireframe
	case g.textured:
		return scene.ModeShaded
	default:
		return scene.ModeFlat
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	g.sc.Show(g.r, g.mode())

	// a dropped frame still returns the last good one
	pixels, _ := g.r.Draw()
	img := render.PixelsToImage(pixels, g.r.Width(), g.r.Height())
	screen.WritePixels(img.Pix)
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.r.Width(), g.r.Height()
}
