package config

import (
	"time"

	"ra2ob/layout"
)

type Config struct {
	Observer ObserverConfig `yaml:"observer"`
}

type ObserverConfig struct {
	ProcessName      string `yaml:"process_name"`
	InstallDir       string `yaml:"install_dir"` // empty: next to the executable
	AttachIntervalMs int    `yaml:"attach_interval_ms"`
	FetchIntervalMs  int    `yaml:"fetch_interval_ms"`

	Catalog   CatalogConfig     `yaml:"catalog"`
	Countries map[string]string `yaml:"countries"` // added to or replacing the built-in table
	Layout    layout.Layout     `yaml:"layout"`    // keys left out keep their default
	Publish   PublishConfig     `yaml:"publish"`
}

// ---- CATALOG ----

type CatalogConfig struct {
	Panel string `yaml:"panel"`
	Units string `yaml:"units"`
}

// ---- PUBLISH ----

type PublishConfig struct {
	Listen string `yaml:"listen"` // empty disables the websocket hub
	Path   string `yaml:"path"`
}

func (o ObserverConfig) AttachInterval() time.Duration {
	return time.Duration(o.AttachIntervalMs) * time.Millisecond
}

func (o ObserverConfig) FetchInterval() time.Duration {
	return time.Duration(o.FetchIntervalMs) * time.Millisecond
}
