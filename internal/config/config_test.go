package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/taigrr/facet/pkg/render"
)

func TestResolveDefaults(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{})

	if cfg.Width != 160 || cfg.Height != 90 {
		t.Errorf("size = %dx%d, want 160x90", cfg.Width, cfg.Height)
	}
	if cfg.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want %d", cfg.Workers, runtime.NumCPU())
	}
	if cfg.ColumnThreshold != 100 || cfg.FillRule != "top-left" || cfg.FPS != 60 {
		t.Errorf("unexpected render defaults: %+v", cfg)
	}
	if len(cfg.Lights) != 2 {
		t.Errorf("len(Lights) = %d, want 2", len(cfg.Lights))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	r, g, b, err := cfg.BackgroundRGB()
	if err != nil || r != 30 || g != 30 || b != 40 {
		t.Errorf("BackgroundRGB() = %d,%d,%d,%v", r, g, b, err)
	}
}

func TestLoadAndOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facet.json")
	data := `{"width": 80, "height": 24, "fill_rule": "inclusive", "workers": 2, "lights": []}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.Resolve(Flags{Width: 120, Background: "1,2,3"})

	if cfg.Width != 120 {
		t.Errorf("Width = %d, want flag override 120", cfg.Width)
	}
	if cfg.Height != 24 || cfg.Workers != 2 {
		t.Errorf("file values lost: %+v", cfg)
	}
	if fill, _ := cfg.Fill(); fill != render.FillInclusive {
		t.Errorf("Fill() = %v, want inclusive", fill)
	}
	// an explicit empty list disables the default lights
	if len(cfg.LightPositions()) != 0 {
		t.Errorf("LightPositions() = %v, want none", cfg.LightPositions())
	}
	if r, g, b, _ := cfg.BackgroundRGB(); r != 1 || g != 2 || b != 3 {
		t.Errorf("BackgroundRGB() = %d,%d,%d, want 1,2,3", r, g, b)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load() of a missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0o644)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("Load() error = %v, want parse error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"fill rule", func(c *Config) { c.FillRule = "diagonal" }, "fill rule"},
		{"background", func(c *Config) { c.Background = "300,0,0" }, "background"},
		{"background parts", func(c *Config) { c.Background = "1,2" }, "background"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
		{"fps", func(c *Config) { c.FPS = 1000 }, "fps"},
		{"fov", func(c *Config) { c.FOV = 200 }, "fov"},
		{"supersample", func(c *Config) { c.Supersample = 16 }, "supersample"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			cfg.Resolve(Flags{})
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLevel(t *testing.T) {
	cfg := Config{LogLevel: "debug"}
	if l, err := cfg.Level(); err != nil || l != slog.LevelDebug {
		t.Errorf("Level() = %v, %v, want debug", l, err)
	}
}

func TestRenderOptions(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{Threshold: 7})
	if cfg.ColumnThreshold != 7 {
		t.Errorf("ColumnThreshold = %d, want 7", cfg.ColumnThreshold)
	}
	if n := len(cfg.RenderOptions()); n != 2 {
		t.Errorf("len(RenderOptions()) = %d, want 2", n)
	}
}
