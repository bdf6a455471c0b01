// Package config holds all configurable SnapTrace settings. The merged
// config is built once at process start and passed into the store and the
// compositor; nothing reads it through a global accessor.
package config

import (
	"encoding/json"
	"errors"
	"image/color"
	"os"
	"path/filepath"

	"github.com/fakeyudi/snaptrace/internal/annotate"
)

// Config holds all configurable SnapTrace settings.
type Config struct {
	DataDir         string `json:"data_dir"`         // override $XDG_DATA_HOME/snaptrace
	ExportDir       string `json:"export_dir"`       // default export output dir
	ExportFormat    string `json:"export_format"`    // "markdown" | "pdf"
	MinDragSize     int    `json:"min_drag_size"`    // rectangle commit threshold, px
	StrokeWidth     int    `json:"stroke_width"`     // rectangle outline width, px
	AnnotationColor string `json:"annotation_color"` // hex, e.g. "#FF0000"
	CaptureShortcut string `json:"capture_shortcut"` // preferred portal trigger
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		ExportFormat:    "markdown",
		MinDragSize:     annotate.DefaultMinDragSize,
		StrokeWidth:     3,
		AnnotationColor: "#FF0000",
		CaptureShortcut: "ALT+SHIFT+s",
	}
}

// LoadGlobal reads ~/.config/snaptrace/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".config", "snaptrace", "config.json")
	return loadFile(path)
}

// loadFile reads and parses a JSON config file at path, returning defaults
// when the file is absent.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			d := Defaults()
			return &d, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge fills gaps in loaded with defaults. Zero values fall back.
func Merge(loaded *Config) Config {
	result := Defaults()
	if loaded == nil {
		return result
	}
	if loaded.DataDir != "" {
		result.DataDir = loaded.DataDir
	}
	if loaded.ExportDir != "" {
		result.ExportDir = loaded.ExportDir
	}
	if loaded.ExportFormat != "" {
		result.ExportFormat = loaded.ExportFormat
	}
	if loaded.MinDragSize > 0 {
		result.MinDragSize = loaded.MinDragSize
	}
	if loaded.StrokeWidth > 0 {
		result.StrokeWidth = loaded.StrokeWidth
	}
	if loaded.AnnotationColor != "" {
		result.AnnotationColor = loaded.AnnotationColor
	}
	if loaded.CaptureShortcut != "" {
		result.CaptureShortcut = loaded.CaptureShortcut
	}
	return result
}

// SessionsDir resolves the sessions root: the configured data dir, or the
// XDG data directory.
func (c Config) SessionsDir() (string, error) {
	base := c.DataDir
	if base == "" {
		xdg := os.Getenv("XDG_DATA_HOME")
		if xdg == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			xdg = filepath.Join(home, ".local", "share")
		}
		base = filepath.Join(xdg, "snaptrace")
	}
	return filepath.Join(base, "sessions"), nil
}

// ExportsDir resolves where exported documents land: the configured export
// dir, or an exports/ sibling of the sessions root.
func (c Config) ExportsDir() (string, error) {
	if c.ExportDir != "" {
		return c.ExportDir, nil
	}
	sessions, err := c.SessionsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(sessions), "exports"), nil
}

// Style builds the compositor style from the configured color and stroke
// width. Unparseable colors fall back to the default red.
func (c Config) Style() annotate.Style {
	style := annotate.DefaultStyle()
	if c.StrokeWidth > 0 {
		style.StrokeWidth = c.StrokeWidth
	}
	if col, ok := parseHexColor(c.AnnotationColor); ok {
		style.Color = col
	}
	return style
}

// parseHexColor parses "#RRGGBB".
func parseHexColor(s string) (color.RGBA, bool) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, false
	}
	var out [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := hexNibble(s[1+i*2])
		lo, ok2 := hexNibble(s[2+i*2])
		if !ok1 || !ok2 {
			return color.RGBA{}, false
		}
		out[i] = hi<<4 | lo
	}
	return color.RGBA{R: out[0], G: out[1], B: out[2], A: 0xFF}, true
}

func hexNibble(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
