package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ra2ob/catalog"
	"ra2ob/layout"
)

func TestParseOverridesDefaults(t *testing.T) {
	doc := `
observer:
  install_dir: /opt/ra2
  fetch_interval_ms: 250
  countries:
    YuriCountry: Yuri
  layout:
    game_frame_offset: 0xa8ed90
    factories:
      - {name: infantry, offset: 0x53b0, type_slot: 0x6c4, category: Infantry}
  publish:
    listen: 127.0.0.1:8085
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	Normalize(cfg)

	o := cfg.Observer
	if o.InstallDir != "/opt/ra2" || o.ProcessName != DefaultProcessName {
		t.Errorf("observer = %+v", o)
	}
	if o.FetchInterval() != 250*time.Millisecond || o.AttachInterval() != time.Second {
		t.Errorf("intervals %v %v", o.FetchInterval(), o.AttachInterval())
	}
	if o.Countries["YuriCountry"] != "Yuri" {
		t.Errorf("countries = %v", o.Countries)
	}
	if o.Layout.GameFrameOffset != 0xa8ed90 {
		t.Errorf("game frame = 0x%x", o.Layout.GameFrameOffset)
	}
	if o.Layout.FixedOffset != layout.Default().FixedOffset {
		t.Errorf("fixed offset lost its default: 0x%x", o.Layout.FixedOffset)
	}
	if len(o.Layout.Factories) != 1 {
		t.Errorf("factories = %+v", o.Layout.Factories)
	}
	if o.Publish.Listen != "127.0.0.1:8085" || o.Publish.Path != DefaultPublishPath {
		t.Errorf("publish = %+v", o.Publish)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParseUnknownKey(t *testing.T) {
	if _, err := Parse([]byte("observer:\n  proces_name: x\n")); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ra2ob.yaml")
	if err := os.WriteFile(path, []byte("observer:\n  attach_interval_ms: 2000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Observer.AttachIntervalMs != 2000 {
		t.Fatalf("attach interval = %d", cfg.Observer.AttachIntervalMs)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"non ascii name", func(c *Config) { c.Observer.ProcessName = "gamemd-spawné.exe" }, "ASCII"},
		{"negative attach", func(c *Config) { c.Observer.AttachIntervalMs = -1 }, "attach_interval_ms"},
		{"negative fetch", func(c *Config) { c.Observer.FetchIntervalMs = -5 }, "fetch_interval_ms"},
		{"no catalog", func(c *Config) { c.Observer.Catalog.Units = "" }, "catalog"},
		{"empty country", func(c *Config) { c.Observer.Countries = map[string]string{"Russians": ""} }, "countries"},
		{"bad layout", func(c *Config) { c.Observer.Layout.FixedOffset = 0 }, "fixed_offset"},
		{"bad listen", func(c *Config) { c.Observer.Publish.Listen = "localhost" }, "publish.listen"},
		{"bad path", func(c *Config) { c.Observer.Publish.Path = "ws" }, "publish.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestValidateDoesNotMutate(t *testing.T) {
	cfg := Default()
	cfg.Observer.FetchIntervalMs = 0
	if err := Validate(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Observer.FetchIntervalMs != 0 {
		t.Fatal("Validate changed fetch_interval_ms")
	}
	Normalize(cfg)
	if cfg.Observer.FetchIntervalMs != DefaultFetchIntervalMs {
		t.Fatalf("Normalize set %d", cfg.Observer.FetchIntervalMs)
	}
}

func TestNormalizeClampsFetch(t *testing.T) {
	cfg := Default()
	cfg.Observer.FetchIntervalMs = 1
	Normalize(cfg)
	if cfg.Observer.FetchIntervalMs != minFetchIntervalMs {
		t.Fatalf("fetch interval = %d", cfg.Observer.FetchIntervalMs)
	}
}

func TestShippedFiles(t *testing.T) {
	cfg, err := Load("ra2ob.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	Normalize(cfg)

	// catalog paths are relative to the repository root
	cat, err := catalog.LoadFiles(
		filepath.Join("..", cfg.Observer.Catalog.Panel),
		filepath.Join("..", cfg.Observer.Catalog.Units),
	)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	for _, name := range []string{"Balance", "Credit Spent", "Power Output", "Power Drain"} {
		if _, ok := cat.PanelField(name); !ok {
			t.Errorf("panel field %q missing", name)
		}
	}
	if _, ok := cat.MatchUnit(catalog.Tank, 0xc); !ok {
		t.Error("Rhino Tank missing")
	}
	if len(cat.ForVersion(catalog.Ra2).Units) >= len(cat.Units) {
		t.Error("Ra2 catalog should drop Yuri's Revenge units")
	}
}
