package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pixelframe/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantAssets := filepath.Join(tempHome, "pixelframe", "animations")
	if cfg.Paths.AssetsRoot != wantAssets {
		t.Fatalf("unexpected assets root: got %q want %q", cfg.Paths.AssetsRoot, wantAssets)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7590" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Display.PixelFormat != "rgb565" {
		t.Fatalf("unexpected pixel format: %q", cfg.Display.PixelFormat)
	}
	if cfg.Playback.Unthrottled {
		t.Fatal("expected throttled playback by default")
	}
	if !cfg.Playback.ResumeLast {
		t.Fatal("expected resume_last enabled by default")
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := strings.Join([]string{
		"[paths]",
		`assets_root = "` + filepath.Join(dir, "art") + `"`,
		`api_bind = "0.0.0.0:9000"`,
		"[display]",
		`device = "memory"`,
		`pixel_format = "BGR888"`,
		"[playback]",
		"auto_cycle_seconds = 30",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Display.PixelFormat != "bgr888" {
		t.Fatalf("expected normalized pixel format, got %q", cfg.Display.PixelFormat)
	}
	if cfg.Display.Device != "memory" {
		t.Fatalf("unexpected device: %q", cfg.Display.Device)
	}
	if cfg.Playback.AutoCycleSeconds != 30 {
		t.Fatalf("unexpected auto cycle: %d", cfg.Playback.AutoCycleSeconds)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad pixel format", func(c *config.Config) { c.Display.PixelFormat = "argb" }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad bind", func(c *config.Config) { c.Paths.APIBind = "not-a-bind" }},
		{"negative auto cycle", func(c *config.Config) { c.Playback.AutoCycleSeconds = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected overwrite refusal")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[playback]") {
		t.Fatal("sample missing playback section")
	}
}
