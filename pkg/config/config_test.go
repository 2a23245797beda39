package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Plot.VKey != "velocity" {
		t.Errorf("VKey = %q", cfg.Plot.VKey)
	}
	if cfg.Plot.VelocityColorMap != "RdYlGn" || cfg.Plot.ExpressionColorMap != "gnuplot_r" {
		t.Errorf("color maps = %q/%q", cfg.Plot.VelocityColorMap, cfg.Plot.ExpressionColorMap)
	}
	if cfg.Plot.DPI != 80 {
		t.Errorf("DPI = %v", cfg.Plot.DPI)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("cache backend = %q", cfg.Cache.Backend)
	}
	if cfg.Server.Addr != ":8487" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[plot]
basis = "tsne"
dpi = 150

[cache]
backend = "redis"
redis_addr = "localhost:6379"
redis_db = 2

[server]
addr = ":9000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Plot.Basis != "tsne" || cfg.Plot.DPI != 150 {
		t.Errorf("plot = %+v", cfg.Plot)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Plot.VKey != "velocity" {
		t.Errorf("VKey = %q, want default", cfg.Plot.VKey)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "localhost:6379" || cfg.Cache.RedisDB != 2 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
