// Package scene loads render scenes from JSON files.
//
// A scene names a vertex and a fragment program, the attribute layout of
// an interleaved vertex buffer, the vertices themselves and the target
// size:
//
//	{
//	  "width": 64, "height": 64,
//	  "vertex": "tri.vert.grsl",
//	  "fragment": "tri.frag.grsl",
//	  "layout": [3, 3],
//	  "vertices": [0, 0, 0, 255, 0, 0,  63, 0, 0, 0, 255, 0,  0, 63, 0, 0, 0, 255],
//	  "clearColor": [0, 0, 0, 1],
//	  "depthCompare": "less"
//	}
//
// Program paths are resolved relative to the scene file.
package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/grsl/raster"
	"github.com/gogpu/grsl/shader"
	"github.com/gogpu/grsl/syntax"
)

// Scene describes one draw.
type Scene struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Vertex is the path of the vertex program. When Fragment is empty it
	// is loaded as a single program serving both stages.
	Vertex   string `json:"vertex"`
	Fragment string `json:"fragment,omitempty"`

	// Layout lists the component count (1-4) of each attribute, in
	// location order.
	Layout   []int     `json:"layout"`
	Vertices []float32 `json:"vertices"`

	// ClearColor is RGBA in 0..1. Unset means transparent black.
	ClearColor *[4]float64 `json:"clearColor,omitempty"`

	// DepthCompare is one of the names in CompareFunctions. Unset means "less".
	DepthCompare string `json:"depthCompare,omitempty"`
	DepthWrite   *bool  `json:"depthWrite,omitempty"`

	// Dir is the directory program paths are resolved against.
	Dir string `json:"-"`
}

// CompareFunctions maps the depthCompare names to compare functions.
var CompareFunctions = map[string]gputypes.CompareFunction{
	"never":         gputypes.CompareFunctionNever,
	"less":          gputypes.CompareFunctionLess,
	"equal":         gputypes.CompareFunctionEqual,
	"less-equal":    gputypes.CompareFunctionLessEqual,
	"greater":       gputypes.CompareFunctionGreater,
	"not-equal":     gputypes.CompareFunctionNotEqual,
	"greater-equal": gputypes.CompareFunctionGreaterEqual,
	"always":        gputypes.CompareFunctionAlways,
}

// Load reads and validates the scene file at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a scene. Program paths are resolved against
// dir.
func Parse(data []byte, dir string) (*Scene, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var s Scene
	if err := dec.Decode(&s); err != nil {
		return nil, syntax.Errorf(syntax.KindConfiguration, syntax.Span{}, "", "decode scene: %v", err)
	}
	s.Dir = dir
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scene for configuration errors that can be found
// without loading the programs.
func (s *Scene) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return configErrorf("size %dx%d must be positive", s.Width, s.Height)
	}
	if s.Vertex == "" {
		return configErrorf("no vertex program")
	}
	layout, err := s.AttribLayout()
	if err != nil {
		return err
	}
	if layout.Len() == 0 {
		return configErrorf("empty attribute layout")
	}
	if n := layout.Stride() * 3; len(s.Vertices)%n != 0 {
		return configErrorf("%d vertex floats is not a whole number of triangles (%d floats each)", len(s.Vertices), n)
	}
	if s.DepthCompare != "" {
		if _, ok := CompareFunctions[s.DepthCompare]; !ok {
			return configErrorf("unknown depth compare %q", s.DepthCompare)
		}
	}
	return nil
}

func configErrorf(format string, args ...any) error {
	return syntax.Errorf(syntax.KindConfiguration, syntax.Span{}, "", format, args...)
}

// Options returns rasterizer options for the scene.
func (s *Scene) Options() raster.Options {
	opts := raster.DefaultOptions()
	opts.Width = s.Width
	opts.Height = s.Height
	if c := s.ClearColor; c != nil {
		opts.ClearColor = gputypes.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
	}
	if f, ok := CompareFunctions[s.DepthCompare]; ok {
		opts.DepthStencil.DepthCompare = f
	}
	if s.DepthWrite != nil {
		opts.DepthStencil.DepthWriteEnabled = *s.DepthWrite
	}
	return opts
}

// AttribLayout returns the attribute layout of the vertex buffer.
func (s *Scene) AttribLayout() (*raster.AttribLayout, error) {
	return raster.NewAttribLayout(s.Layout...)
}

// Path resolves a program path against the scene directory.
func (s *Scene) Path(name string) string {
	if filepath.IsAbs(name) || s.Dir == "" {
		return name
	}
	return filepath.Join(s.Dir, name)
}

// Shader reads and loads the scene's programs.
func (s *Scene) Shader() (*shader.Shader, error) {
	vertPath := s.Path(s.Vertex)
	vert, err := os.ReadFile(vertPath)
	if err != nil {
		return nil, err
	}
	if s.Fragment == "" {
		return shader.LoadSingle(vertPath, string(vert))
	}
	fragPath := s.Path(s.Fragment)
	frag, err := os.ReadFile(fragPath)
	if err != nil {
		return nil, err
	}
	return shader.LoadNamed(vertPath, string(vert), fragPath, string(frag))
}

// Render loads the programs and draws the scene once.
func (s *Scene) Render() (*raster.Rasterizer, error) {
	sh, err := s.Shader()
	if err != nil {
		return nil, err
	}
	layout, err := s.AttribLayout()
	if err != nil {
		return nil, err
	}
	r, err := raster.New(s.Options())
	if err != nil {
		return nil, err
	}
	if err := r.Draw(sh, layout, s.Vertices); err != nil {
		return nil, err
	}
	return r, nil
}
