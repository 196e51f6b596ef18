// facet - Terminal 3D Model Viewer
// View OBJ and glTF/GLB files in your terminal, drawn by a parallel
// software rasterizer.
//
// Controls:
//
//	Mouse drag  - Rotate model (yaw/pitch)
//	Scroll      - Zoom in/out
//	W/S         - Pitch up/down
//	A/D         - Yaw left/right
//	Q/E         - Roll left/right
//	Space       - Apply random impulse
//	R           - Reset rotation
//	T           - Toggle texture on/off
//	X           - Toggle wireframe mode
//	L           - Light positioning mode (move mouse, click to set, Esc to cancel)
//	?           - Toggle HUD overlay
//	+/-         - Adjust zoom
//	Esc         - Quit (or cancel light mode)
//
// With -o the model is rendered once to a PNG or WebP file instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/taigrr/facet/internal/config"
	"github.com/taigrr/facet/internal/scene"
	"github.com/taigrr/facet/pkg/display"
	"github.com/taigrr/facet/pkg/math3d"
	"github.com/taigrr/facet/pkg/render"
	"github.com/taigrr/facet/pkg/workpool"
)

var (
	configPath  = flag.String("config", "", "Path to a JSON config file")
	texturePath = flag.String("texture", "", "Path to texture image (PNG/JPG/TGA)")
	outPath     = flag.String("o", "", "Render one frame to this .png or .webp file and exit")
	targetFPS   = flag.Int("fps", 0, "Target FPS (default 60)")
	bgColor     = flag.String("bg", "", "Background color R,G,B (default 30,30,40)")
	workers     = flag.Int("workers", 0, "Rasterizer workers (default NumCPU)")
	threshold   = flag.Int("threshold", 0, "Rows above which a triangle is split into columns (default 100)")
	fillRule    = flag.String("fill", "", "Edge fill rule: top-left or inclusive")
	width       = flag.Int("width", 0, "Snapshot width in pixels (default 160)")
	height      = flag.Int("height", 0, "Snapshot height in pixels (default 90)")
	supersample = flag.Int("supersample", 0, "Snapshot supersampling factor (default 1)")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFile     = flag.String("log-file", "", "Write logs to this file")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "facet - Terminal 3D Model Viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: facet [options] <model.obj|model.gltf|model.glb>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Rotate model\n")
		fmt.Fprintf(os.Stderr, "  Scroll      - Zoom in/out\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Pitch and yaw\n")
		fmt.Fprintf(os.Stderr, "  Q/E         - Roll left/right\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  T           - Toggle texture\n")
		fmt.Fprintf(os.Stderr, "  X           - Toggle wireframe\n")
		fmt.Fprintf(os.Stderr, "  L           - Position light (mouse to aim, click to set)\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	var cfg config.Config
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return cfg, err
		}
	}
	cfg.Resolve(config.Flags{
		Width:       *width,
		Height:      *height,
		Supersample: *supersample,
		FPS:         *targetFPS,
		Workers:     *workers,
		Threshold:   *threshold,
		FillRule:    *fillRule,
		Background:  *bgColor,
		Texture:     *texturePath,
		LogLevel:    *logLevel,
		LogFile:     *logFile,
	})
	return cfg, cfg.Validate()
}

// setupLogger installs the render logger and returns a func that closes
// its output. The interactive viewer owns the terminal, so without a log
// file its logs are discarded.
func setupLogger(cfg config.Config, interactive bool) (func(), error) {
	level, _ := cfg.Level()
	opts := &slog.HandlerOptions{Level: level}

	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		render.SetLogger(slog.New(slog.NewTextHandler(f, opts)))
		return func() { f.Close() }, nil
	case interactive:
		render.SetLogger(slog.New(slog.DiscardHandler))
	default:
		render.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	}
	return func() {}, nil
}

func run(modelPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	closeLog, err := setupLogger(cfg, *outPath == "")
	if err != nil {
		return err
	}
	defer closeLog()

	sc, err := scene.Load(modelPath, cfg.Texture)
	if err != nil {
		return err
	}
	render.Logger().Info("model loaded",
		"name", sc.Name, "vertices", sc.Mesh.VertexCount(), "triangles", sc.Mesh.TriangleCount(),
		"textured", sc.Texture != nil)

	pool := workpool.New(cfg.Workers)
	defer pool.Close()

	if *outPath != "" {
		return snapshot(cfg, sc, pool, *outPath)
	}
	return view(cfg, sc, pool)
}

func newRasterizer(cfg config.Config, w, h int, pool *workpool.Pool) (*render.Rasterizer, *render.PerspectiveCamera) {
	r := render.NewRasterizer(w, h, pool, cfg.RenderOptions()...)
	bgR, bgG, bgB, _ := cfg.BackgroundRGB()
	r.SetBackgroundColor(bgR, bgG, bgB)

	cam := render.NewPerspectiveCamera(math3d.V3(0, 0, cfg.CameraDistance), cfg.FOV*math.Pi/180, 0.1, 100)
	r.SetCamera(cam)
	scene.Lights(r, cfg.LightPositions())
	return r, cam
}

// snapshot renders one supersampled frame to path.
func snapshot(cfg config.Config, sc *scene.Scene, pool *workpool.Pool, path string) error {
	w, h := cfg.Width*cfg.Supersample, cfg.Height*cfg.Supersample
	r, _ := newRasterizer(cfg, w, h, pool)
	defer r.Close()

	sc.Show(r, scene.ModeShaded)
	if _, err := r.Draw(); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	img := display.Downsample(r.Front().Image(), cfg.Supersample)
	if err := display.Save(path, img); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	render.Logger().Info("snapshot saved", "path", path, "width", cfg.Width, "height", cfg.Height)
	return nil
}

func view(cfg config.Config, sc *scene.Scene, pool *workpool.Pool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	v, err := newViewer(cfg, sc, pool)
	if err != nil {
		return err
	}
	defer v.close()
	return v.loop(ctx, cancel)
}
