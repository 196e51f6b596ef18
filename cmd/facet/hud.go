package main

import (
	"fmt"
	"image/color"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/facet/pkg/display"
	"github.com/taigrr/facet/pkg/render"
)

var (
	hudBg     = color.RGBA{0, 0, 0, 255}
	hudWhite  = color.RGBA{255, 255, 255, 255}
	hudGreen  = color.RGBA{80, 255, 120, 255}
	hudYellow = color.RGBA{255, 230, 80, 255}
	hudCyan   = color.RGBA{80, 230, 255, 255}
)

// hud overlays model info and frame stats on the top and bottom rows.
type hud struct {
	filename  string
	polyCount int
	fps       float64
	frames    int
	since     time.Time
}

func newHUD(filename string, polyCount int) *hud {
	return &hud{filename: filename, polyCount: polyCount, since: time.Now()}
}

// update counts one frame toward the FPS reading.
func (h *hud) update() {
	h.frames++
	if elapsed := time.Since(h.since); elapsed >= time.Second {
		h.fps = float64(h.frames) / elapsed.Seconds()
		h.frames = 0
		h.since = time.Now()
	}
}

func (h *hud) draw(scr display.CellSetter, cols, rows int, state *viewState, stats render.Stats) {
	if state.lightMode {
		msg := " LIGHT MODE - move mouse to position, click to set, Esc to cancel "
		drawText(scr, max((cols-len(msg))/2, 0), rows-1, msg, hudYellow)
		return
	}
	if !state.showHUD {
		return
	}

	drawText(scr, 0, 0, fmt.Sprintf(" %.0f FPS ", h.fps), hudGreen)
	drawText(scr, max((cols-len(h.filename)-2)/2, 0), 0, " "+h.filename+" ", hudWhite)
	polys := fmt.Sprintf(" %d polys ", h.polyCount)
	drawText(scr, max(cols-len(polys), 0), 0, polys, hudCyan)

	modes := fmt.Sprintf(" %s Texture  %s Wireframe ", check(state.textured && !state.wireframe), check(state.wireframe))
	drawText(scr, 0, rows-1, modes, hudWhite)
	info := fmt.Sprintf(" %d tris  %d culled  %d dropped ", stats.Triangles, stats.ModelsCulled, stats.DroppedFrames)
	drawText(scr, max(cols-len(info), 0), rows-1, info, hudYellow)
}

func check(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func drawText(scr display.CellSetter, x, y int, s string, fg color.Color) {
	for _, ch := range s {
		scr.SetCell(x, y, &uv.Cell{
			Content: string(ch),
			Width:   1,
			Style:   uv.Style{Fg: fg, Bg: hudBg},
		})
		x++
	}
}
