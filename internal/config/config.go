// Package config loads the viewport list that drives a capture run.
//
// The file is a JSON document of the form
//
//	{ "viewports": [ { "name": "mobile", "width": 375, "height": 667 } ] }
//
// JSON5 extensions (comments, trailing commas) are accepted.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/titanous/json5"
)

// Viewport is a named width x height pair. Name is used in output file names.
type Viewport struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (v Viewport) String() string {
	return fmt.Sprintf("%s (%dx%d)", v.Name, v.Width, v.Height)
}

// Config is the parsed viewport file. Viewports keep file order.
type Config struct {
	Viewports []Viewport
}

// Load reads and validates the viewport file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
		}
		return nil, &ParseError{Msg: fmt.Sprintf("read %q", path), Err: err}
	}
	return Parse(data)
}

// Parse validates a viewport document already in memory.
func Parse(data []byte) (*Config, error) {
	var parsed any
	if err := json5.Unmarshal(data, &parsed); err != nil {
		return nil, &ParseError{Msg: "malformed document", Err: err}
	}
	doc, ok := parsed.(map[string]any)
	if !ok {
		return nil, &SchemaError{Msg: "document must be an object with a viewports array"}
	}

	raw, ok := doc["viewports"].([]any)
	if !ok {
		return nil, &SchemaError{Field: "viewports", Msg: "must be an array"}
	}
	if len(raw) == 0 {
		return nil, &SchemaError{Field: "viewports", Msg: "must not be empty"}
	}

	cfg := &Config{Viewports: make([]Viewport, 0, len(raw))}
	seen := make(map[string]int, len(raw))
	for i, entry := range raw {
		vp, err := decodeViewport(i, entry)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[vp.Name]; dup {
			return nil, &SchemaError{
				Field: fmt.Sprintf("viewports[%d].name", i),
				Msg:   fmt.Sprintf("duplicate of viewports[%d]", prev),
			}
		}
		seen[vp.Name] = i
		cfg.Viewports = append(cfg.Viewports, vp)
	}
	return cfg, nil
}

func decodeViewport(i int, entry any) (Viewport, error) {
	obj, ok := entry.(map[string]any)
	if !ok {
		return Viewport{}, &SchemaError{Field: fmt.Sprintf("viewports[%d]", i), Msg: "must be an object"}
	}

	name, _ := obj["name"].(string)
	if name == "" {
		return Viewport{}, &SchemaError{Field: fmt.Sprintf("viewports[%d].name", i), Msg: "must be a non-empty string"}
	}
	if !plainFileName(name) {
		return Viewport{}, &SchemaError{Field: fmt.Sprintf("viewports[%d].name", i), Msg: "must be a plain file name"}
	}

	width, err := positiveInt(obj["width"])
	if err != nil {
		return Viewport{}, &SchemaError{Field: fmt.Sprintf("viewports[%d].width", i), Msg: err.Error()}
	}
	height, err := positiveInt(obj["height"])
	if err != nil {
		return Viewport{}, &SchemaError{Field: fmt.Sprintf("viewports[%d].height", i), Msg: err.Error()}
	}

	return Viewport{Name: name, Width: width, Height: height}, nil
}

// plainFileName reports whether name stays inside the output directory
// when used as a file name prefix.
func plainFileName(name string) bool {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}

func positiveInt(v any) (int, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case nil:
		return 0, errors.New("is required")
	default:
		return 0, errors.New("must be a number")
	}
	if f != math.Trunc(f) {
		return 0, errors.New("must be an integer")
	}
	if f <= 0 {
		return 0, errors.New("must be positive")
	}
	if f > math.MaxInt32 {
		return 0, errors.New("is too large")
	}
	return int(f), nil
}
