package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	o := &cfg.Observer

	for i := 0; i < len(o.ProcessName); i++ {
		if o.ProcessName[i] > 0x7F {
			return fmt.Errorf("process_name %q must contain ASCII characters only", o.ProcessName)
		}
	}

	if o.AttachIntervalMs < 0 {
		return fmt.Errorf("attach_interval_ms must be >= 0, got %d", o.AttachIntervalMs)
	}
	if o.FetchIntervalMs < 0 {
		return fmt.Errorf("fetch_interval_ms must be >= 0, got %d", o.FetchIntervalMs)
	}

	if o.Catalog.Panel == "" || o.Catalog.Units == "" {
		return fmt.Errorf("catalog: panel and units paths are required")
	}

	for code, name := range o.Countries {
		if strings.TrimSpace(code) == "" || strings.TrimSpace(name) == "" {
			return fmt.Errorf("countries: entry %q -> %q needs a code and a name", code, name)
		}
	}

	if err := o.Layout.Validate(); err != nil {
		return err
	}

	if o.Publish.Listen != "" {
		if _, _, err := net.SplitHostPort(o.Publish.Listen); err != nil {
			return fmt.Errorf("publish.listen %q: %w", o.Publish.Listen, err)
		}
	}
	if o.Publish.Path != "" && !strings.HasPrefix(o.Publish.Path, "/") {
		return fmt.Errorf("publish.path %q must start with /", o.Publish.Path)
	}

	return nil
}
