// Package grsl provides a small shading language with a software
// rasterizer.
//
// A grsl program is a list of declarations and functions. Variables may be
// marked in (bound from runtime inputs), out (read back after a run) or
// layout N (bound from vertex attribute N). Every program has a main
// function:
//
//	layout 0 vec3 i_pos;
//	layout 1 vec3 i_color;
//	out vec3 gr_pos = i_pos;
//	out vec3 v_color;
//
//	void main() {
//	    v_color = i_color * vec3(255.0, 255.0, 255.0);
//	}
//
// A shader pairs a vertex program with a fragment program. Drawing runs
// the vertex program once per vertex, scan-converts each triangle, and
// runs the fragment program once per covered pixel with the vertex
// outputs interpolated:
//
//	sh, err := grsl.Load(vertexSource, fragmentSource)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	layout, _ := raster.NewAttribLayout(3, 3)
//	fb, err := grsl.Draw(sh, layout, vertices, raster.DefaultOptions())
//
// The stages are also available on their own in the syntax, interp,
// shader and raster packages.
package grsl

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/grsl/internal/logging"
	"github.com/gogpu/grsl/raster"
	"github.com/gogpu/grsl/shader"
	"github.com/gogpu/grsl/syntax"
)

// Version is the grsl release.
const Version = "0.1.0-dev"

// Parse parses source into a program and validates it.
func Parse(source string) (*syntax.Program, error) {
	return parseNamed("", source)
}

// ParseFile reads and parses the program at path.
func ParseFile(path string) (*syntax.Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseNamed(path, string(source))
}

func parseNamed(name, source string) (*syntax.Program, error) {
	prog, err := syntax.Parse(name, source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	errs, err := syntax.Validate(prog)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if errs.HasErrors() {
		return nil, fmt.Errorf("validation failed: %w", errs)
	}
	return prog, nil
}

// Load loads a shader from vertex and fragment program sources.
func Load(vertexSource, fragmentSource string) (*shader.Shader, error) {
	return shader.Load(vertexSource, fragmentSource)
}

// LoadFiles loads a shader from program files. An empty fragmentPath
// loads vertexPath as a single program serving both stages.
func LoadFiles(vertexPath, fragmentPath string) (*shader.Shader, error) {
	vert, err := os.ReadFile(vertexPath)
	if err != nil {
		return nil, err
	}
	if fragmentPath == "" {
		return shader.LoadSingle(vertexPath, string(vert))
	}
	frag, err := os.ReadFile(fragmentPath)
	if err != nil {
		return nil, err
	}
	return shader.LoadNamed(vertexPath, string(vert), fragmentPath, string(frag))
}

// Draw renders vertices, an interleaved buffer described by layout,
// through sh into a new framebuffer.
func Draw(sh *shader.Shader, layout *raster.AttribLayout, vertices []float32, opts raster.Options) (*raster.Framebuffer, error) {
	r, err := raster.New(opts)
	if err != nil {
		return nil, err
	}
	if err := r.Draw(sh, layout, vertices); err != nil {
		return nil, fmt.Errorf("draw error: %w", err)
	}
	return r.Framebuffer(), nil
}

// SetLogger configures the logger for grsl and all its sub-packages.
// By default grsl produces no log output. Pass nil to restore that.
//
// Log levels used by grsl:
//   - [slog.LevelDebug]: program loads and per-draw statistics
//   - [slog.LevelInfo]: command lifecycle (scene loaded, image written)
//
// Example:
//
//	grsl.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return logging.Logger()
}
