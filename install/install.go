// Package install reads the settings files that sit beside the game
// executable. They are read once per attach.
package install

import (
	"path/filepath"
	"strconv"
	"strings"

	"ra2ob/catalog"

	"gopkg.in/ini.v1"
)

const (
	SpawnFile = "spawn.ini"
	VideoFile = "ra2md.ini"
	// VideoFileRa2 is read first so ra2md.ini wins where both exist.
	VideoFileRa2 = "ra2.ini"
	DDrawFile    = "ddraw.ini"
)

// Screen describes the game's display mode.
type Screen struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Windowed bool   `json:"windowed"`
	Renderer string `json:"renderer"`
}

// Settings is what the observer needs from the installation.
type Settings struct {
	Dir     string          `json:"dir"`
	Version catalog.Version `json:"version"`
	Replay  bool            `json:"replay"`
	MapName string          `json:"map_name"`
	Screen  Screen          `json:"screen"`
}

// Defaults are the values used for any key that is absent.
func Defaults() Settings {
	return Settings{
		Version: catalog.Yr,
		Screen: Screen{
			Width:    800,
			Height:   600,
			Renderer: "default",
		},
	}
}

// DirFromExe returns the install directory of an executable path in either
// Windows or Unix form.
func DirFromExe(exe string) string {
	if exe == "" {
		return ""
	}
	if i := strings.LastIndexAny(exe, `\/`); i >= 0 {
		return exe[:i]
	}
	return "."
}

var loadOptions = ini.LoadOptions{
	Insensitive:             true,
	Loose:                   true,
	SkipUnrecognizableLines: true,
}

// Load reads the settings files in dir. Missing files and keys fall back to
// Defaults; Load never fails.
func Load(dir string) Settings {
	s := Defaults()
	s.Dir = dir
	if dir == "" {
		return s
	}

	if f, err := ini.LoadSources(loadOptions, filepath.Join(dir, SpawnFile)); err == nil {
		sec := f.Section("Settings")
		if sec.Key("Ra2Mode").MustBool(false) {
			s.Version = catalog.Ra2
		}
		s.Replay = sec.Key("Replay").MustBool(false)
		s.MapName = sec.Key("UIMapName").String()
	}

	if f, err := ini.LoadSources(loadOptions, filepath.Join(dir, VideoFileRa2), filepath.Join(dir, VideoFile)); err == nil {
		sec := f.Section("Video")
		s.Screen.Width = sec.Key("ScreenWidth").MustInt(s.Screen.Width)
		s.Screen.Height = sec.Key("ScreenHeight").MustInt(s.Screen.Height)
		s.Screen.Windowed = sec.Key("Video.Windowed").MustBool(s.Screen.Windowed)
	}

	if f, err := ini.LoadSources(loadOptions, filepath.Join(dir, DDrawFile)); err == nil {
		if r := f.Section("ddraw").Key("renderer").String(); r != "" {
			s.Screen.Renderer = r
		}
	}

	return s
}

// Attributes flattens s into the string map a recorded dump carries.
func (s Settings) Attributes() map[string]string {
	return map[string]string{
		"dir":      s.Dir,
		"version":  s.Version.String(),
		"replay":   strconv.FormatBool(s.Replay),
		"map":      s.MapName,
		"width":    strconv.Itoa(s.Screen.Width),
		"height":   strconv.Itoa(s.Screen.Height),
		"windowed": strconv.FormatBool(s.Screen.Windowed),
		"renderer": s.Screen.Renderer,
	}
}

// FromAttributes is the inverse of Attributes. Missing or unparsable
// entries keep their default.
func FromAttributes(attrs map[string]string) Settings {
	s := Defaults()
	s.Dir = attrs["dir"]
	if v, err := catalog.ParseVersion(attrs["version"]); err == nil {
		s.Version = v
	}
	if v, err := strconv.ParseBool(attrs["replay"]); err == nil {
		s.Replay = v
	}
	s.MapName = attrs["map"]
	if v, err := strconv.Atoi(attrs["width"]); err == nil {
		s.Screen.Width = v
	}
	if v, err := strconv.Atoi(attrs["height"]); err == nil {
		s.Screen.Height = v
	}
	if v, err := strconv.ParseBool(attrs["windowed"]); err == nil {
		s.Screen.Windowed = v
	}
	if r := attrs["renderer"]; r != "" {
		s.Screen.Renderer = r
	}
	return s
}
