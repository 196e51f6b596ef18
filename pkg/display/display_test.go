package display

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	uv "github.com/charmbracelet/ultraviolet"
)

type cellGrid map[[2]int]*uv.Cell

func (g cellGrid) SetCell(x, y int, c *uv.Cell) { g[[2]int{x, y}] = c }

func TestFramebufferSize(t *testing.T) {
	w, h := FramebufferSize(80, 24)
	if w != 80 || h != 48 {
		t.Errorf("FramebufferSize(80, 24) = %d, %d, want 80, 48", w, h)
	}
}

func TestDraw(t *testing.T) {
	// 2x4 buffer, bottom-up: rows are red, green, blue, white
	pixels := []uint32{
		0xFF0000, 0xFF0000,
		0x00FF00, 0x00FF00,
		0x0000FF, 0x0000FF,
		0xFFFFFF, 0xFFFFFF,
	}
	grid := cellGrid{}
	Draw(grid, uv.Rect(0, 0, 2, 2), pixels, 2, 4)

	if len(grid) != 4 {
		t.Fatalf("drew %d cells, want 4", len(grid))
	}

	tests := []struct {
		name   string
		x, y   int
		fg, bg color.Color
	}{
		{"top row", 0, 0, color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 255, 255}},
		{"bottom row", 1, 1, color.RGBA{0, 255, 0, 255}, color.RGBA{255, 0, 0, 255}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := grid[[2]int{tc.x, tc.y}]
			if c == nil {
				t.Fatal("cell not drawn")
			}
			if c.Content != halfBlock {
				t.Errorf("Content = %q, want %q", c.Content, halfBlock)
			}
			if c.Style.Fg != tc.fg || c.Style.Bg != tc.bg {
				t.Errorf("style = %v/%v, want %v/%v", c.Style.Fg, c.Style.Bg, tc.fg, tc.bg)
			}
		})
	}
}

func TestDrawClipsToBuffer(t *testing.T) {
	pixels := make([]uint32, 3*3)
	grid := cellGrid{}
	Draw(grid, uv.Rect(0, 0, 10, 10), pixels, 3, 3)

	// three columns, two rows, the last with no lower pixel
	if len(grid) != 6 {
		t.Fatalf("drew %d cells, want 6", len(grid))
	}
	if bg := grid[[2]int{0, 1}].Style.Bg; bg != nil {
		t.Errorf("missing lower pixel should leave Bg unset, got %v", bg)
	}
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestEncode(t *testing.T) {
	img := solid(4, 4, color.RGBA{10, 20, 30, 255})

	var buf bytes.Buffer
	if err := Encode(&buf, img, "png"); err != nil {
		t.Fatalf("Encode(png) error = %v", err)
	}
	got, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if r, g, b, _ := got.At(2, 2).RGBA(); r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("decoded pixel = %d,%d,%d", r>>8, g>>8, b>>8)
	}

	buf.Reset()
	if err := Encode(&buf, img, "webp"); err != nil {
		t.Fatalf("Encode(webp) error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("RIFF")) {
		t.Error("webp output should start with a RIFF header")
	}

	if err := Encode(&buf, img, "bmp"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Encode(bmp) error = %v, want ErrUnknownFormat", err)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	img := solid(2, 2, color.RGBA{255, 0, 0, 255})

	for _, name := range []string{"a.png", "sub/b.webp"} {
		path := filepath.Join(dir, name)
		if err := Save(path, img); err != nil {
			t.Fatalf("Save(%s) error = %v", name, err)
		}
		if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
			t.Errorf("Save(%s) wrote nothing", name)
		}
	}

	if err := Save(filepath.Join(dir, "c.gif"), img); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Save(gif) error = %v, want ErrUnknownFormat", err)
	}
}

func TestDownsample(t *testing.T) {
	img := solid(8, 6, color.RGBA{100, 150, 200, 255})

	out := Downsample(img, 2)
	if b := out.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("size = %v, want 4x3", b)
	}
	r, g, b, _ := out.At(1, 1).RGBA()
	if !near(r>>8, 100) || !near(g>>8, 150) || !near(b>>8, 200) {
		t.Errorf("pixel = %d,%d,%d, want 100,150,200", r>>8, g>>8, b>>8)
	}

	if Downsample(img, 1) != image.Image(img) {
		t.Error("factor 1 should return the input")
	}
}

func near(got, want uint32) bool {
	return got+1 >= want && got <= want+1
}
