package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/facet/internal/config"
	"github.com/taigrr/facet/internal/scene"
	"github.com/taigrr/facet/pkg/display"
	"github.com/taigrr/facet/pkg/math3d"
	"github.com/taigrr/facet/pkg/render"
	"github.com/taigrr/facet/pkg/workpool"
)

const (
	torqueStrength = 3.0
	lightDistance  = 10.0
	minZoom        = 1.0
	maxZoom        = 20.0
)

// viewState holds UI toggles.
type viewState struct {
	wireframe    bool
	textured     bool
	lightMode    bool        // Mouse positions the key light
	lightDir     math3d.Vec3 // Direction toward the key light
	pendingLight math3d.Vec3 // Light direction while positioning
	showHUD      bool
}

// mode returns the scene mode for the current toggles.
func (s *viewState) mode() scene.Mode {
	switch {
	case s.wireframe:
		return scene.ModeWireframe
	case s.textured:
		return scene.ModeShaded
	default:
		return scene.ModeFlat
	}
}

// screenToLightDir maps a terminal cell to a direction on the hemisphere
// facing the viewer.
func screenToLightDir(x, y, width, height int) math3d.Vec3 {
	nx := (float64(x)/float64(width))*2 - 1
	ny := (float64(y)/float64(height))*2 - 1

	lenSq := nx*nx + ny*ny
	if lenSq > 1 {
		l := math.Sqrt(lenSq)
		nx /= l
		ny /= l
		lenSq = 1
	}
	return math3d.V3(nx, -ny, math.Sqrt(1-lenSq)).Normalize()
}

type viewer struct {
	cfg  config.Config
	sc   *scene.Scene
	term *uv.Terminal
	r    *render.Rasterizer
	cam  *render.PerspectiveCamera
	spin *scene.Spin
	hud  *hud

	state      viewState
	cols, rows int
	fbW, fbH   int
	cameraZ    float64

	torque       struct{ pitch, yaw, roll float64 }
	mouseDown    bool
	lastX, lastY int
}

func newViewer(cfg config.Config, sc *scene.Scene, pool *workpool.Pool) (*viewer, error) {
	term := uv.DefaultTerminal()

	cols, rows, err := term.GetSize()
	if err != nil {
		return nil, fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return nil, fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(cols, rows)

	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	fbW, fbH := display.FramebufferSize(cols, rows)
	r, cam := newRasterizer(cfg, fbW, fbH, pool)

	lightDir := math3d.V3(0.5, 1, 0.3).Normalize()
	if lights := cfg.LightPositions(); len(lights) > 0 {
		lightDir = lights[0].Normalize()
	}

	return &viewer{
		cfg:     cfg,
		sc:      sc,
		term:    term,
		r:       r,
		cam:     cam,
		spin:    scene.NewSpin(cfg.FPS),
		hud:     newHUD(sc.Name, sc.Mesh.TriangleCount()),
		state:   viewState{textured: true, lightDir: lightDir},
		cols:    cols,
		rows:    rows,
		fbW:     fbW,
		fbH:     fbH,
		cameraZ: cfg.CameraDistance,
	}, nil
}

func (v *viewer) close() {
	v.r.Close()
	fmt.Fprint(os.Stdout, "\x1b[?1003l")
	fmt.Fprint(os.Stdout, "\x1b[?1006l")
	v.term.ExitAltScreen()
	v.term.ShowCursor()
	v.term.Shutdown(context.Background())
}

func (v *viewer) loop(ctx context.Context, cancel context.CancelFunc) error {
	events := v.term.Events()
	frameTime := time.Second / time.Duration(v.cfg.FPS)
	lastFrame := time.Now()

	for {
		// handle every pending event before drawing
	drain:
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				v.handle(ev, cancel)
			default:
				break drain
			}
		}

		now := time.Now()
		dt := min(now.Sub(lastFrame).Seconds(), 0.1)
		lastFrame = now

		if err := v.frame(dt); err != nil {
			return err
		}

		if elapsed := time.Since(now); elapsed < frameTime {
			time.Sleep(frameTime - elapsed)
		}
	}
}

// frame advances the spin, draws and presents one frame.
func (v *viewer) frame(dt float64) error {
	// key release events are unreliable, so held torque decays
	v.spin.Impulse(v.torque.pitch*dt, v.torque.yaw*dt, v.torque.roll*dt)
	v.torque.pitch *= 0.9
	v.torque.yaw *= 0.9
	v.torque.roll *= 0.9

	v.spin.Update()
	v.spin.Apply(v.sc)
	v.sc.Show(v.r, v.state.mode())

	lightDir := v.state.lightDir
	if v.state.lightMode {
		lightDir = v.state.pendingLight
	}
	v.placeLight(lightDir)

	// a dropped frame still returns the last good one
	pixels, _ := v.r.Draw()
	display.Draw(v.term, uv.Rect(0, 0, v.cols, v.rows), pixels, v.fbW, v.fbH)

	v.hud.update()
	v.hud.draw(v.term, v.cols, v.rows, &v.state, v.r.Stats())

	if err := v.term.Display(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

// placeLight moves the first configured light to dir, keeping the rest.
func (v *viewer) placeLight(dir math3d.Vec3) {
	lights := v.cfg.LightPositions()
	key := dir.Scale(lightDistance)
	if len(lights) == 0 {
		lights = []math3d.Vec3{key}
	} else {
		lights[0] = key
	}
	scene.Lights(v.r, lights)
}

func (v *viewer) zoom(delta float64) {
	v.cameraZ = math.Max(minZoom, math.Min(maxZoom, v.cameraZ+delta))
	v.cam.SetPosition(math3d.V3(0, 0, v.cameraZ))
}

func (v *viewer) resize(cols, rows int) {
	v.cols, v.rows = cols, rows
	v.term.Erase()
	v.term.Resize(cols, rows)
	v.fbW, v.fbH = display.FramebufferSize(cols, rows)
	v.r.SetSize(v.fbW, v.fbH)
}

func (v *viewer) handle(ev uv.Event, cancel context.CancelFunc) {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		v.resize(ev.Width, ev.Height)

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("escape"):
			if v.state.lightMode {
				v.state.lightMode = false
			} else {
				cancel()
			}
		case ev.MatchString("ctrl+c"):
			cancel()
		case ev.MatchString("q"):
			v.torque.roll = -torqueStrength
		case ev.MatchString("e"):
			v.torque.roll = torqueStrength
		case ev.MatchString("r"):
			v.spin.Reset()
			v.cameraZ = v.cfg.CameraDistance
			v.zoom(0)
		case ev.MatchString("w", "up"):
			v.torque.pitch = -torqueStrength
		case ev.MatchString("s", "down"):
			v.torque.pitch = torqueStrength
		case ev.MatchString("a", "left"):
			v.torque.yaw = -torqueStrength
		case ev.MatchString("d", "right"):
			v.torque.yaw = torqueStrength
		case ev.MatchString("space"):
			v.spin.Impulse(
				(rand.Float64()-0.5)*1.5,
				(rand.Float64()-0.5)*1.5,
				(rand.Float64()-0.5)*1.5,
			)
		case ev.MatchString("+", "="):
			v.zoom(-0.5)
		case ev.MatchString("-", "_"):
			v.zoom(0.5)
		case ev.MatchString("t"):
			v.state.textured = !v.state.textured
		case ev.MatchString("x"):
			v.state.wireframe = !v.state.wireframe
		case ev.MatchString("l"):
			v.state.lightMode = true
			v.state.pendingLight = v.state.lightDir
		case ev.MatchString("?", "shift+/"):
			v.state.showHUD = !v.state.showHUD
		}

	case uv.KeyReleaseEvent:
		switch {
		case ev.MatchString("w", "up", "s", "down"):
			v.torque.pitch = 0
		case ev.MatchString("a", "left", "d", "right"):
			v.torque.yaw = 0
		case ev.MatchString("q", "e"):
			v.torque.roll = 0
		}

	case uv.MouseClickEvent:
		if v.state.lightMode {
			v.state.lightDir = v.state.pendingLight
			v.state.lightMode = false
		} else {
			v.mouseDown = true
			v.lastX, v.lastY = ev.X, ev.Y
		}

	case uv.MouseReleaseEvent:
		v.mouseDown = false

	case uv.MouseMotionEvent:
		if v.state.lightMode {
			v.state.pendingLight = screenToLightDir(ev.X, ev.Y, v.cols, v.rows)
		} else if v.mouseDown {
			dx, dy := ev.X-v.lastX, ev.Y-v.lastY
			v.spin.Impulse(float64(dy)*0.03, float64(dx)*0.03, 0)
			v.lastX, v.lastY = ev.X, ev.Y
		}

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			v.zoom(-0.5)
		case uv.MouseWheelDown:
			v.zoom(0.5)
		}
	}
}
