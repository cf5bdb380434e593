package install

import (
	"os"
	"path/filepath"
	"testing"

	"ra2ob/catalog"
)

func write(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, SpawnFile, "[Settings]\nra2mode=True\nUIMapName=Dry Heat\nReplay=yes\n")
	write(t, dir, VideoFileRa2, "[Video]\nScreenWidth=640\nScreenHeight=480\n")
	write(t, dir, VideoFile, "[Video]\nScreenWidth=1920\nVideo.Windowed=yes\n")
	write(t, dir, DDrawFile, "[ddraw]\nrenderer=opengl\n")

	s := Load(dir)

	if s.Version != catalog.Ra2 {
		t.Fatalf("expected Ra2, got %v", s.Version)
	}
	if !s.Replay || s.MapName != "Dry Heat" {
		t.Fatalf("unexpected spawn settings %+v", s)
	}
	if s.Screen.Width != 1920 || s.Screen.Height != 480 || !s.Screen.Windowed {
		t.Fatalf("unexpected screen %+v", s.Screen)
	}
	if s.Screen.Renderer != "opengl" {
		t.Fatalf("unexpected renderer %q", s.Screen.Renderer)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, SpawnFile, "[Settings]\nScenario=spawnmap.ini\n")

	s := Load(dir)
	want := Defaults()
	want.Dir = dir

	if s != want {
		t.Fatalf("got %+v, want %+v", s, want)
	}
}

func TestDirFromExe(t *testing.T) {
	tests := map[string]string{
		`C:\Games\RA2\gamemd-spawn.exe`: `C:\Games\RA2`,
		"/opt/ra2/gamemd-spawn.exe":     "/opt/ra2",
		"gamemd-spawn.exe":              ".",
		"":                              "",
	}
	for exe, want := range tests {
		if got := DirFromExe(exe); got != want {
			t.Fatalf("DirFromExe(%q) = %q, want %q", exe, got, want)
		}
	}
}

func TestAttributesRoundTrip(t *testing.T) {
	s := Defaults()
	s.Dir = "/opt/ra2"
	s.Version = catalog.Ra2
	s.Replay = true
	s.MapName = "Heck Freezes Over"
	s.Screen = Screen{Width: 1920, Height: 1080, Windowed: true, Renderer: "opengl"}

	if got := FromAttributes(s.Attributes()); got != s {
		t.Fatalf("got %+v, want %+v", got, s)
	}
	if got := FromAttributes(nil); got != Defaults() {
		t.Fatalf("empty attributes gave %+v", got)
	}
}
