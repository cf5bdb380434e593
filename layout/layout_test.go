package layout

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultIsValid(t *testing.T) {
	l := Default()
	if err := l.Validate(); err != nil {
		t.Fatalf("default layout invalid: %v", err)
	}
}

func TestOverrideKeepsDefaults(t *testing.T) {
	l := Default()
	doc := "fixed_offset: 0xa8b240\npause_offset: 0x12\n"
	if err := yaml.Unmarshal([]byte(doc), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if l.FixedOffset != 0xa8b240 || l.PauseOffset != 0x12 {
		t.Fatalf("override not applied: 0x%x 0x%x", l.FixedOffset, l.PauseOffset)
	}
	if l.ClassBaseArrayOffset != 0xa8022c || len(l.Factories) != 6 {
		t.Fatalf("defaults lost")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Layout)
		want   string
	}{
		{"missing root", func(l *Layout) { l.FixedOffset = 0 }, "fixed_offset"},
		{"odd name", func(l *Layout) { l.NameSize = 0x1f }, "name_size"},
		{"bad factory", func(l *Layout) { l.Factories[0].Category = "Ship" }, "unknown category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Default()
			tt.mutate(&l)
			err := l.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
