package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"ra2ob/layout"

	"gopkg.in/yaml.v3"
)

const (
	DefaultProcessName      = "gamemd-spawn.exe"
	DefaultAttachIntervalMs = 1000
	DefaultFetchIntervalMs  = 500
	DefaultPanelCatalog     = "config/panel_offsets.json"
	DefaultUnitCatalog      = "config/unit_offsets.json"
	DefaultPublishPath      = "/ws"
)

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Observer: ObserverConfig{
			ProcessName:      DefaultProcessName,
			AttachIntervalMs: DefaultAttachIntervalMs,
			FetchIntervalMs:  DefaultFetchIntervalMs,
			Catalog: CatalogConfig{
				Panel: DefaultPanelCatalog,
				Units: DefaultUnitCatalog,
			},
			Layout: layout.Default(),
			Publish: PublishConfig{
				Path: DefaultPublishPath,
			},
		},
	}
}

// Load reads a YAML file over Default. Unknown keys are an error.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML document over Default.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
