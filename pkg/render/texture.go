package render

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
)

// WrapMode determines how texture coordinates outside [0,1] are handled.
type WrapMode int

const (
	WrapRepeat WrapMode = iota // Tile the texture
	WrapClamp                  // Clamp to edge
)

// FilterMode determines how texture sampling is performed.
type FilterMode int

const (
	FilterNearest  FilterMode = iota // Nearest-neighbor (pixelated)
	FilterBilinear                   // Bilinear interpolation (smooth)
)

// Texture is an RGBA image sampled with (u, v) in [0,1], v growing upward.
// It implements Sampler and is safe for concurrent sampling.
type Texture struct {
	img    *image.RGBA
	Wrap   WrapMode
	Filter FilterMode
}

var _ Sampler = (*Texture)(nil)

// NewTexture wraps a copy of img.
func NewTexture(img image.Image) *Texture {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Texture{img: dst}
}

// ErrUnknownFormat is returned by DecodeImage for data that is neither PNG
// nor JPEG and not named as a TGA file.
var ErrUnknownFormat = errors.New("unknown image format")

const (
	pngMagic  = "\x89PNG\r\n\x1a\n"
	jpegMagic = "\xff\xd8"
)

// DecodeImage decodes PNG and JPEG by their magic numbers and TGA by the
// extension of name, and returns the format name. It does not go through
// image.Decode: the tga package registers an empty magic there, which
// matches every input once the package is linked in.
func DecodeImage(r io.Reader, name string) (image.Image, string, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(pngMagic))

	switch {
	case bytes.HasPrefix(head, []byte(pngMagic)):
		img, err := png.Decode(br)
		return img, "png", err
	case bytes.HasPrefix(head, []byte(jpegMagic)):
		img, err := jpeg.Decode(br)
		return img, "jpeg", err
	case strings.EqualFold(filepath.Ext(name), ".tga"):
		img, err := tga.Decode(br)
		return img, "tga", err
	}
	return nil, "", ErrUnknownFormat
}

// LoadTexture decodes a PNG, JPEG or TGA file.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, _, err := DecodeImage(f, path)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", path, err)
	}
	return NewTexture(img), nil
}

// NewCheckerTexture creates a procedural checkerboard.
func NewCheckerTexture(size, check int, c1, c2 Color) *Texture {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			if (x/check+y/check)%2 == 0 {
				img.SetRGBA(x, y, c1)
			} else {
				img.SetRGBA(x, y, c2)
			}
		}
	}
	return &Texture{img: img}
}

// Width returns the texture width in texels.
func (t *Texture) Width() int { return t.img.Rect.Dx() }

// Height returns the texture height in texels.
func (t *Texture) Height() int { return t.img.Rect.Dy() }

// Sample returns the color at (u, v).
func (t *Texture) Sample(u, v float64) Color {
	w, h := t.Width(), t.Height()
	if w == 0 || h == 0 {
		return Color{}
	}
	u = wrapCoord(u, t.Wrap)
	// image rows grow downward
	v = 1 - wrapCoord(v, t.Wrap)

	if t.Filter == FilterBilinear {
		return t.sampleBilinear(u*float64(w)-0.5, v*float64(h)-0.5)
	}
	x := min(int(u*float64(w)), w-1)
	y := min(int(v*float64(h)), h-1)
	return t.img.RGBAAt(x, y)
}

func (t *Texture) sampleBilinear(fx, fy float64) Color {
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	tx, ty := fx-float64(x0), fy-float64(y0)

	at := func(x, y int) Color {
		return t.img.RGBAAt(wrapTexel(x, t.Width(), t.Wrap), wrapTexel(y, t.Height(), t.Wrap))
	}
	top := lerpColor(at(x0, y0), at(x0+1, y0), tx)
	bot := lerpColor(at(x0, y0+1), at(x0+1, y0+1), tx)
	return lerpColor(top, bot, ty)
}

func wrapCoord(c float64, mode WrapMode) float64 {
	if mode == WrapClamp {
		return math.Max(0, math.Min(1, c))
	}
	return c - math.Floor(c)
}

func wrapTexel(x, size int, mode WrapMode) int {
	if mode == WrapClamp {
		return max(0, min(x, size-1))
	}
	x %= size
	if x < 0 {
		x += size
	}
	return x
}

func lerpColor(a, b Color, t float64) Color {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
