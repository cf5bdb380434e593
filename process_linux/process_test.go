//go:build linux

package process_linux

import (
	"errors"
	"os"
	"testing"

	"ra2ob/process"
)

func TestOpenCloseSelf(t *testing.T) {
	p, err := NewWithPID(process.ProcessID(os.Getpid()))
	if err != nil {
		t.Fatalf("open self: %v", err)
	}
	if p.GetPID() != process.ProcessID(os.Getpid()) {
		t.Fatalf("unexpected pid %d", p.GetPID())
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	if _, err := p.ReadMemory(0x10000, 4); !errors.Is(err, process.ErrProcessNotOpen) {
		t.Fatalf("expected ErrProcessNotOpen, got %v", err)
	}
}

func TestReadMemoryRejectsOutOfRange(t *testing.T) {
	p := New()
	if _, err := p.ReadMemory(0, 4); !errors.Is(err, process.ErrInvalidPointer) {
		t.Fatalf("expected ErrInvalidPointer, got %v", err)
	}
	if _, err := p.ReadMemory(0xFFFFFFFE, 4); !errors.Is(err, process.ErrAddressOutOfRange) {
		t.Fatalf("expected ErrAddressOutOfRange, got %v", err)
	}
}

func TestOpenMissingProcess(t *testing.T) {
	if _, err := NewWithPID(-1); err == nil {
		t.Fatalf("expected error for missing pid")
	}
}
