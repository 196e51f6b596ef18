package render

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taigrr/facet/pkg/math3d"
)

func TestTextureSample(t *testing.T) {
	// 2x2: top row red/green, bottom row blue/white
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, ColorRed)
	img.SetRGBA(1, 0, ColorGreen)
	img.SetRGBA(0, 1, ColorBlue)
	img.SetRGBA(1, 1, ColorWhite)
	tex := NewTexture(img)

	tests := []struct {
		name string
		u, v float64
		want Color
	}{
		{"bottom left", 0.25, 0.25, ColorBlue},
		{"bottom right", 0.75, 0.25, ColorWhite},
		{"top left", 0.25, 0.75, ColorRed},
		{"top right", 0.75, 0.75, ColorGreen},
		{"wraps", 1.25, 1.75, ColorRed},
		{"wraps negative", -0.25, -0.75, ColorWhite},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tex.Sample(tc.u, tc.v); got != tc.want {
				t.Errorf("Sample(%v, %v) = %v, want %v", tc.u, tc.v, got, tc.want)
			}
		})
	}

	tex.Wrap = WrapClamp
	if got := tex.Sample(5, 5); got != ColorGreen {
		t.Errorf("clamped Sample(5, 5) = %v, want green", got)
	}
}

func TestTextureBilinear(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, RGB(0, 0, 0))
	img.SetRGBA(1, 0, RGB(200, 200, 200))
	tex := NewTexture(img)
	tex.Filter = FilterBilinear
	tex.Wrap = WrapClamp

	got := tex.Sample(0.5, 0.5)
	if got.R < 95 || got.R > 105 {
		t.Errorf("midpoint R = %d, want about 100", got.R)
	}
}

func TestCheckerTexture(t *testing.T) {
	tex := NewCheckerTexture(8, 4, ColorBlack, ColorWhite)
	if tex.Width() != 8 || tex.Height() != 8 {
		t.Fatalf("size = %dx%d, want 8x8", tex.Width(), tex.Height())
	}
	if tex.Sample(0.1, 0.9) != ColorBlack || tex.Sample(0.9, 0.9) != ColorWhite {
		t.Error("unexpected checker colors")
	}
}

func TestLoadTexture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, ColorRed)
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tex, err := LoadTexture(path)
	if err != nil {
		t.Fatalf("LoadTexture() error = %v", err)
	}
	if got := tex.Sample(0.5, 0.5); got != ColorRed {
		t.Errorf("Sample() = %v, want red", got)
	}

	if _, err := LoadTexture(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("LoadTexture() of a missing file should fail")
	}
}

func TestLoadTextureTGA(t *testing.T) {
	// 1x1 uncompressed true-color image, one BGR pixel
	header := []byte{0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 1, 0, 24, 0}
	data := append(header, 0, 0, 255)

	path := filepath.Join(t.TempDir(), "tex.TGA")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	tex, err := LoadTexture(path)
	if err != nil {
		t.Fatalf("LoadTexture() error = %v", err)
	}
	if got := tex.Sample(0.5, 0.5); got != ColorRed {
		t.Errorf("Sample() = %v, want red", got)
	}
}

func TestDecodeImage(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	// the name does not override the content
	if _, format, err := DecodeImage(&buf, "tex.tga"); err != nil || format != "png" {
		t.Errorf("DecodeImage() = %q, %v, want png", format, err)
	}

	if _, _, err := DecodeImage(strings.NewReader("not an image"), "notes.txt"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("DecodeImage() error = %v, want ErrUnknownFormat", err)
	}
}

func TestWireframeSegments(t *testing.T) {
	a, b := math3d.V3(0, 0, 0), math3d.V3(1, 0, 0)
	c, d := math3d.V3(1, 1, 0), math3d.V3(0, 1, 0)
	tris := []Triangle{
		{V: [3]Vertex{{Position: a}, {Position: b}, {Position: c}}},
		{V: [3]Vertex{{Position: a}, {Position: c}, {Position: d}}},
	}

	segs := WireframeSegments(tris, ColorGreen)
	// four sides plus the shared diagonal
	if len(segs) != 5 {
		t.Errorf("len(segs) = %d, want 5", len(segs))
	}
	for _, s := range segs {
		if s.Color != ColorGreen {
			t.Errorf("segment color = %v, want green", s.Color)
		}
	}
}

func TestHelperSegments(t *testing.T) {
	box := AABB{Min: math3d.V3(-1, -1, -1), Max: math3d.V3(1, 1, 1)}
	if n := len(BoxSegments(box, ColorWhite)); n != 12 {
		t.Errorf("BoxSegments() = %d edges, want 12", n)
	}
	for _, s := range BoxSegments(box, ColorWhite) {
		if l := s.B.Sub(s.A).Len(); l != 2 {
			t.Errorf("box edge length = %v, want 2", l)
		}
	}

	axes := AxesSegments(2)
	if len(axes) != 3 || axes[0].B != math3d.V3(2, 0, 0) || axes[1].Color != ColorGreen {
		t.Errorf("AxesSegments() = %v", axes)
	}

	if n := len(GridSegments(4, 1, 0, ColorGray)); n != 10 {
		t.Errorf("GridSegments() = %d lines, want 10", n)
	}
	if GridSegments(4, 0, 0, ColorGray) != nil {
		t.Error("GridSegments() with zero step should be empty")
	}
}
