// Package config loads viewer settings from a JSON file and command-line
// flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/taigrr/facet/pkg/math3d"
	"github.com/taigrr/facet/pkg/render"
)

// Config holds all viewer and render settings.
type Config struct {
	// Output size: terminal cells for facet, pixels for facetwin and
	// snapshots
	Width       int `json:"width"`
	Height      int `json:"height"`
	Supersample int `json:"supersample"`
	FPS         int `json:"fps"`

	// Render settings
	Workers         int          `json:"workers"`
	ColumnThreshold int          `json:"column_threshold"`
	FillRule        string       `json:"fill_rule"`
	Background      string       `json:"background"`
	Lights          [][3]float64 `json:"lights"`
	FOV             float64      `json:"fov"` // degrees
	CameraDistance  float64      `json:"camera_distance"`

	// Assets
	Texture string `json:"texture"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
}

// Load reads a JSON config file. Fields not set in the file keep their zero
// values until Resolve.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds command-line values that override the config file when
// non-zero.
type Flags struct {
	Width       int
	Height      int
	Supersample int
	FPS         int
	Workers     int
	Threshold   int
	FillRule    string
	Background  string
	Texture     string
	LogLevel    string
	LogFile     string
}

// Resolve applies flag overrides, then fills every unset field with its
// default.
func (c *Config) Resolve(flags Flags) {
	override := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	overrideStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&c.Width, flags.Width)
	override(&c.Height, flags.Height)
	override(&c.Supersample, flags.Supersample)
	override(&c.FPS, flags.FPS)
	override(&c.Workers, flags.Workers)
	override(&c.ColumnThreshold, flags.Threshold)
	overrideStr(&c.FillRule, flags.FillRule)
	overrideStr(&c.Background, flags.Background)
	overrideStr(&c.Texture, flags.Texture)
	overrideStr(&c.LogLevel, flags.LogLevel)
	overrideStr(&c.LogFile, flags.LogFile)

	if c.Width <= 0 {
		c.Width = 160
	}
	if c.Height <= 0 {
		c.Height = 90
	}
	if c.Supersample <= 0 {
		c.Supersample = 1
	}
	if c.FPS <= 0 {
		c.FPS = 60
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ColumnThreshold <= 0 {
		c.ColumnThreshold = render.DefaultColumnThreshold
	}
	if c.FillRule == "" {
		c.FillRule = render.FillTopLeft.String()
	}
	if c.Background == "" {
		c.Background = "30,30,40"
	}
	if c.Lights == nil {
		c.Lights = [][3]float64{{3, 4, 5}, {-4, 2, 3}}
	}
	if c.FOV <= 0 {
		c.FOV = 60
	}
	if c.CameraDistance <= 0 {
		c.CameraDistance = 5
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports every malformed setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Supersample > 8 {
		errs = append(errs, fmt.Errorf("supersample %d exceeds 8", c.Supersample))
	}
	if c.FPS > 240 {
		errs = append(errs, fmt.Errorf("fps %d exceeds 240", c.FPS))
	}
	if c.FOV >= 180 {
		errs = append(errs, fmt.Errorf("fov %.0f must be below 180 degrees", c.FOV))
	}
	if _, err := c.Fill(); err != nil {
		errs = append(errs, err)
	}
	if _, _, _, err := c.BackgroundRGB(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Fill returns the configured fill rule.
func (c *Config) Fill() (render.FillRule, error) {
	switch strings.ToLower(c.FillRule) {
	case "top-left", "topleft":
		return render.FillTopLeft, nil
	case "inclusive":
		return render.FillInclusive, nil
	default:
		return 0, fmt.Errorf("unknown fill rule %q", c.FillRule)
	}
}

// BackgroundRGB parses the background color, written "R,G,B".
func (c *Config) BackgroundRGB() (r, g, b uint8, err error) {
	parts := strings.Split(c.Background, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("background %q: want R,G,B", c.Background)
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("background %q: %w", c.Background, err)
		}
		rgb[i] = uint8(v)
	}
	return rgb[0], rgb[1], rgb[2], nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// LightPositions returns the configured world-space lights.
func (c *Config) LightPositions() []math3d.Vec3 {
	out := make([]math3d.Vec3, len(c.Lights))
	for i, l := range c.Lights {
		out[i] = math3d.V3(l[0], l[1], l[2])
	}
	return out
}

// RenderOptions returns the rasterizer options for the config. Call
// Validate first; invalid settings fall back to defaults.
func (c *Config) RenderOptions() []render.Option {
	fill, err := c.Fill()
	if err != nil {
		fill = render.FillTopLeft
	}
	return []render.Option{
		render.WithColumnThreshold(c.ColumnThreshold),
		render.WithFillRule(fill),
	}
}
