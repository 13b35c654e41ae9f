package raster

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/grsl/shader"
	"github.com/gogpu/grsl/syntax"
)

const (
	passVertex = `layout 0 vec3 i_pos;
out vec3 gr_pos = i_pos;
void main() {}
`
	redFragment = `in vec3 i_pos;
out vec3 gr_color = vec3(255, 0, 0);
void main() {}
`
	colorVertex = `layout 0 vec3 i_pos;
layout 1 vec3 i_color;
out vec3 gr_pos = i_pos;
out vec3 v_color = i_color;
void main() {}
`
	colorFragment = `in vec3 v_color;
out vec3 gr_color = v_color;
void main() {}
`
)

func loadShader(t *testing.T, vertex, fragment string) *shader.Shader {
	t.Helper()
	sh, err := shader.Load(vertex, fragment)
	if err != nil {
		t.Fatalf("shader.Load: %v", err)
	}
	return sh
}

func newRasterizer(t *testing.T, w, h int) *Rasterizer {
	t.Helper()
	opts := DefaultOptions()
	opts.Width, opts.Height = w, h
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func mustLayout(t *testing.T, counts ...int) *AttribLayout {
	t.Helper()
	l, err := NewAttribLayout(counts...)
	if err != nil {
		t.Fatalf("NewAttribLayout: %v", err)
	}
	return l
}

func checkPixels(t *testing.T, fb *Framebuffer, want map[[2]int]uint32) {
	t.Helper()
	for y := 0; y < fb.Height(); y++ {
		for x := 0; x < fb.Width(); x++ {
			if got := fb.At(x, y); got != want[[2]int{x, y}] {
				t.Errorf("pixel (%d, %d): got %06x, want %06x", x, y, got, want[[2]int{x, y}])
			}
		}
	}
}

func TestDrawSmallTriangle(t *testing.T) {
	r := newRasterizer(t, 4, 4)
	sh := loadShader(t, passVertex, redFragment)

	err := r.Draw(sh, mustLayout(t, 3), []float32{
		0, 0, 0,
		2, 0, 0,
		0, 2, 0,
	})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	checkPixels(t, r.Framebuffer(), map[[2]int]uint32{
		{0, 0}: 0xFF0000,
		{1, 0}: 0xFF0000,
		{0, 1}: 0xFF0000,
	})

	st := r.Stats()
	if st.Vertices != 3 || st.Triangles != 1 || st.Written != 3 {
		t.Errorf("stats: got %+v", st)
	}
	if r.State() != StateIdle {
		t.Errorf("state after Draw: got %s, want Idle", r.State())
	}
}

func TestDrawClipsNegativeColumns(t *testing.T) {
	r := newRasterizer(t, 4, 4)
	sh := loadShader(t, passVertex, redFragment)

	err := r.Draw(sh, mustLayout(t, 3), []float32{
		-2, 0, 0,
		2, 0, 0,
		-2, 4, 0,
	})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	checkPixels(t, r.Framebuffer(), map[[2]int]uint32{
		{0, 0}: 0xFF0000,
		{1, 0}: 0xFF0000,
		{0, 1}: 0xFF0000,
	})
}

func TestDrawOffscreen(t *testing.T) {
	r := newRasterizer(t, 4, 4)
	sh := loadShader(t, passVertex, redFragment)

	err := r.Draw(sh, mustLayout(t, 3), []float32{
		10, 10, 0,
		20, 10, 0,
		10, 20, 0,
	})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	checkPixels(t, r.Framebuffer(), nil)
	if r.Stats().Fragments != 0 {
		t.Errorf("got %d fragments, want 0", r.Stats().Fragments)
	}
}

// coveringTriangle returns a triangle at depth z that covers the top-left
// of a 4x4 framebuffer, pixel (1, 1) included, filled with rgb.
func coveringTriangle(z float32, rgb [3]float32) []float32 {
	return []float32{
		0, 0, z, rgb[0], rgb[1], rgb[2],
		4, 0, z, rgb[0], rgb[1], rgb[2],
		0, 4, z, rgb[0], rgb[1], rgb[2],
	}
}

func TestDepthTestOrderIndependent(t *testing.T) {
	near := coveringTriangle(0.2, [3]float32{255, 0, 0})
	far := coveringTriangle(0.8, [3]float32{0, 0, 255})

	tests := []struct {
		name     string
		vertices []float32
	}{
		{"near first", append(append([]float32(nil), near...), far...)},
		{"far first", append(append([]float32(nil), far...), near...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRasterizer(t, 4, 4)
			sh := loadShader(t, colorVertex, colorFragment)
			if err := r.Draw(sh, mustLayout(t, 3, 3), tt.vertices); err != nil {
				t.Fatalf("Draw: %v", err)
			}
			fb := r.Framebuffer()
			if got := fb.At(1, 1); got != 0xFF0000 {
				t.Errorf("pixel (1, 1): got %06x, want ff0000", got)
			}
			if got := fb.DepthAt(1, 1); got != 0.2 {
				t.Errorf("depth (1, 1): got %v, want 0.2", got)
			}
		})
	}
}

func TestDepthCompareAlways(t *testing.T) {
	opts := DefaultOptions()
	opts.Width, opts.Height = 4, 4
	opts.ClearColor = gputypes.ColorTransparent
	opts.DepthStencil = gputypes.DepthStencilState{
		DepthWriteEnabled: true,
		DepthCompare:      gputypes.CompareFunctionAlways,
	}
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sh := loadShader(t, colorVertex, colorFragment)

	vertices := append(coveringTriangle(0.2, [3]float32{255, 0, 0}), coveringTriangle(0.8, [3]float32{0, 0, 255})...)
	if err := r.Draw(sh, mustLayout(t, 3, 3), vertices); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if got := r.Framebuffer().At(1, 1); got != 0x0000FF {
		t.Errorf("pixel (1, 1) with Always: got %06x, want 0000ff", got)
	}
}

func TestDepthPasses(t *testing.T) {
	tests := []struct {
		f             gputypes.CompareFunction
		depth, stored float32
		want          bool
	}{
		{gputypes.CompareFunctionLess, 0.2, 0.8, true},
		{gputypes.CompareFunctionLess, 0.8, 0.8, false},
		{gputypes.CompareFunctionLessEqual, 0.8, 0.8, true},
		{gputypes.CompareFunctionGreater, 0.8, 0.2, true},
		{gputypes.CompareFunctionGreaterEqual, 0.2, 0.8, false},
		{gputypes.CompareFunctionEqual, 0.5, 0.5, true},
		{gputypes.CompareFunctionNotEqual, 0.5, 0.5, false},
		{gputypes.CompareFunctionNever, 0, 1, false},
		{gputypes.CompareFunctionAlways, 1, 0, true},
	}
	for _, tt := range tests {
		if got := depthPasses(tt.f, tt.depth, tt.stored); got != tt.want {
			t.Errorf("%s(%v, %v): got %v, want %v", tt.f, tt.depth, tt.stored, got, tt.want)
		}
	}
}

func TestDrawLayoutMismatch(t *testing.T) {
	r := newRasterizer(t, 4, 4)
	sh := loadShader(t, passVertex, redFragment)

	err := r.Draw(sh, mustLayout(t, 2), []float32{0, 0, 2, 0, 0, 2})
	if !errors.Is(err, syntax.ErrConfiguration) {
		t.Fatalf("got %v, want configuration error", err)
	}
	checkPixels(t, r.Framebuffer(), nil)
	if r.Stats().Written != 0 {
		t.Errorf("got %d pixels written, want 0", r.Stats().Written)
	}
	if r.State() != StateIdle {
		t.Errorf("state after failed Draw: got %s, want Idle", r.State())
	}
}

func TestDrawNilLayout(t *testing.T) {
	r := newRasterizer(t, 4, 4)
	sh := loadShader(t, passVertex, redFragment)

	err := r.Draw(sh, nil, []float32{0, 0, 0, 2, 0, 0, 0, 2, 0})
	if !errors.Is(err, syntax.ErrConfiguration) {
		t.Fatalf("got %v, want configuration error", err)
	}
	if r.State() != StateIdle {
		t.Errorf("state after failed Draw: got %s, want Idle", r.State())
	}
}

func TestDrawMalformedBuffer(t *testing.T) {
	r := newRasterizer(t, 4, 4)
	sh := loadShader(t, passVertex, redFragment)

	tests := []struct {
		name     string
		vertices []float32
	}{
		{"partial vertex", []float32{0, 0, 0, 1}},
		{"partial triangle", []float32{0, 0, 0, 1, 1, 1}},
	}
	for _, tt := range tests {
		if err := r.Draw(sh, mustLayout(t, 3), tt.vertices); !errors.Is(err, syntax.ErrConfiguration) {
			t.Errorf("%s: got %v, want configuration error", tt.name, err)
		}
	}
}

func TestDrawMissingPosition(t *testing.T) {
	r := newRasterizer(t, 4, 4)
	sh := loadShader(t, "layout 0 vec3 i_pos; out vec3 pos = i_pos; void main() {}", redFragment)

	err := r.Draw(sh, mustLayout(t, 3), []float32{0, 0, 0, 2, 0, 0, 0, 2, 0})
	if !errors.Is(err, syntax.ErrResolution) {
		t.Errorf("got %v, want resolution error", err)
	}
}

func TestNewRejectsEmptySize(t *testing.T) {
	if _, err := New(Options{Width: 0, Height: 4}); !errors.Is(err, syntax.ErrConfiguration) {
		t.Errorf("got %v, want configuration error", err)
	}
}

func TestNewDefaults(t *testing.T) {
	r, err := New(Options{Width: 1, Height: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	o := r.Options()
	if o.PositionOutput != "gr_pos" || o.ColorOutput != "gr_color" {
		t.Errorf("output names: got %q, %q", o.PositionOutput, o.ColorOutput)
	}
	if o.DepthStencil.DepthCompare != gputypes.CompareFunctionLess || !o.DepthStencil.DepthWriteEnabled {
		t.Errorf("depth state: got %+v", o.DepthStencil)
	}
}
