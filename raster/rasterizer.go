// Package raster draws triangle lists through a shader into a software
// framebuffer. Each vertex runs the vertex program; each covered pixel
// runs the fragment program with the vertex outputs interpolated by
// barycentric weights, and survives only if it passes the depth test.
package raster

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/grsl/internal/logging"
	"github.com/gogpu/grsl/shader"
	"github.com/gogpu/grsl/syntax"
)

// State is the phase of a draw call.
type State uint8

const (
	StateIdle State = iota
	StateVertexPass
	StateAssemble
	StateScanline
	StateFragmentPass
	StateComposite
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateVertexPass:
		return "VertexPass"
	case StateAssemble:
		return "Assemble"
	case StateScanline:
		return "Scanline"
	case StateFragmentPass:
		return "FragmentPass"
	case StateComposite:
		return "Composite"
	default:
		return "Unknown"
	}
}

// Options configures a Rasterizer.
type Options struct {
	Width  int
	Height int

	// ClearColor fills the color buffer at the start of every draw.
	ClearColor gputypes.Color

	// DepthStencil selects the depth comparison and whether passing
	// fragments write depth. Stencil fields are ignored.
	DepthStencil gputypes.DepthStencilState

	// Topology must be PrimitiveTopologyTriangleList.
	Topology gputypes.PrimitiveTopology

	// PositionOutput names the vertex output holding the screen position.
	PositionOutput string

	// ColorOutput names the fragment output holding the 0-255 RGB color.
	ColorOutput string
}

// DefaultOptions returns options for a 640x480 target cleared to
// transparent black with a less-than depth test.
func DefaultOptions() Options {
	return Options{
		Width:      640,
		Height:     480,
		ClearColor: gputypes.ColorTransparent,
		DepthStencil: gputypes.DepthStencilState{
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
		},
		Topology:       gputypes.PrimitiveTopologyTriangleList,
		PositionOutput: "gr_pos",
		ColorOutput:    "gr_color",
	}
}

// Stats counts the work done by the last draw.
type Stats struct {
	Vertices      int
	Triangles     int
	Fragments     int // pixels shaded
	Written       int // pixels that passed the depth test
	DepthRejected int
}

// Rasterizer owns a framebuffer and draws into it.
type Rasterizer struct {
	opts  Options
	fb    *Framebuffer
	state State
	stats Stats
}

// New creates a rasterizer. Zero-valued names and depth state fall back
// to DefaultOptions.
func New(opts Options) (*Rasterizer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, syntax.Errorf(syntax.KindConfiguration, syntax.Span{}, "",
			"framebuffer size %dx%d must be positive", opts.Width, opts.Height)
	}
	def := DefaultOptions()
	if opts.PositionOutput == "" {
		opts.PositionOutput = def.PositionOutput
	}
	if opts.ColorOutput == "" {
		opts.ColorOutput = def.ColorOutput
	}
	if opts.DepthStencil.DepthCompare == gputypes.CompareFunctionUndefined {
		opts.DepthStencil.DepthCompare = def.DepthStencil.DepthCompare
		opts.DepthStencil.DepthWriteEnabled = true
	}
	return &Rasterizer{
		opts: opts,
		fb:   NewFramebuffer(opts.Width, opts.Height),
	}, nil
}

// Options returns the rasterizer's effective options.
func (r *Rasterizer) Options() Options { return r.opts }

// Framebuffer returns the render target.
func (r *Rasterizer) Framebuffer() *Framebuffer { return r.fb }

// State returns the current phase. It is StateIdle outside Draw.
func (r *Rasterizer) State() State { return r.state }

// Stats returns the counters of the last draw.
func (r *Rasterizer) Stats() Stats { return r.stats }

// vertFragInfo is one shaded vertex: its screen position and every
// output of the vertex program.
type vertFragInfo struct {
	pos  f32.Vec3
	outs []shader.Output
}

// Draw clears the framebuffer and renders vertices, an interleaved buffer
// described by layout, as a triangle list through sh. All vertices are
// shaded before any pixel is written, so a vertex error leaves only the
// cleared framebuffer behind.
func (r *Rasterizer) Draw(sh *shader.Shader, layout *AttribLayout, vertices []float32) error {
	defer func() { r.state = StateIdle }()
	r.stats = Stats{}

	if r.opts.Topology != gputypes.PrimitiveTopologyTriangleList {
		return syntax.Errorf(syntax.KindConfiguration, syntax.Span{}, "",
			"unsupported primitive topology %s", r.opts.Topology)
	}
	if layout == nil {
		return syntax.Errorf(syntax.KindConfiguration, syntax.Span{}, "", "no attribute layout")
	}
	stride := layout.Stride()
	if stride == 0 {
		return syntax.Errorf(syntax.KindConfiguration, syntax.Span{}, "", "attribute layout is empty")
	}
	if len(vertices)%(stride*3) != 0 {
		return syntax.Errorf(syntax.KindConfiguration, syntax.Span{}, "",
			"vertex buffer of %d floats is not a whole number of triangles (stride %d)", len(vertices), stride)
	}

	r.fb.Clear(r.opts.ClearColor)

	r.state = StateVertexPass
	count := len(vertices) / stride
	infos := make([]vertFragInfo, count)
	for i := range infos {
		info, err := r.shadeVertex(sh, layout.View(vertices, i))
		if err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
		infos[i] = info
	}
	r.stats.Vertices = count

	for t := 0; t+2 < len(infos); t += 3 {
		r.state = StateAssemble
		tri := [3]vertFragInfo{infos[t], infos[t+1], infos[t+2]}
		if err := r.triangle(sh, tri); err != nil {
			return fmt.Errorf("triangle %d: %w", t/3, err)
		}
		r.stats.Triangles++
	}

	if logging.Enabled(slog.LevelDebug) {
		logging.Logger().Debug("raster: draw finished",
			"vertices", r.stats.Vertices,
			"triangles", r.stats.Triangles,
			"fragments", r.stats.Fragments,
			"written", r.stats.Written,
			"depthRejected", r.stats.DepthRejected)
	}
	return nil
}

func (r *Rasterizer) shadeVertex(sh *shader.Shader, view VertexView) (vertFragInfo, error) {
	if err := sh.RunVertex(view); err != nil {
		return vertFragInfo{}, err
	}
	pos, err := sh.ReadOutput(gputypes.ShaderStageVertex, r.opts.PositionOutput)
	if err != nil {
		return vertFragInfo{}, err
	}
	if !pos.Type.IsVector() || len(pos.V) < 3 {
		return vertFragInfo{}, syntax.Errorf(syntax.KindType, syntax.Span{}, "",
			"output %q is %s, want a vector of at least 3 components", r.opts.PositionOutput, pos.Type)
	}
	outs, err := sh.Outputs(gputypes.ShaderStageVertex)
	if err != nil {
		return vertFragInfo{}, err
	}
	return vertFragInfo{pos: f32.Vec3{pos.V[0], pos.V[1], pos.V[2]}, outs: outs}, nil
}

// edge walks one triangle edge from top to bottom.
type edge struct {
	x, z       float64 // at y0
	y0         float64
	dxdy, dzdy float64
}

func newEdge(top, bottom f32.Vec3) edge {
	e := edge{x: float64(top[0]), z: float64(top[2]), y0: float64(top[1])}
	if dy := float64(bottom[1]) - float64(top[1]); dy != 0 {
		e.dxdy = (float64(bottom[0]) - float64(top[0])) / dy
		e.dzdy = (float64(bottom[2]) - float64(top[2])) / dy
	}
	return e
}

func (e edge) at(y float64) (x, z float64) {
	dy := y - e.y0
	return e.x + dy*e.dxdy, e.z + dy*e.dzdy
}

// triangle scan-converts one triangle. The vertices are sorted by y; the
// long edge from the top to the bottom vertex pairs with the upper short
// edge for the first span and the lower one for the second.
func (r *Rasterizer) triangle(sh *shader.Shader, tri [3]vertFragInfo) error {
	if tri[0].pos[1] > tri[1].pos[1] {
		tri[0], tri[1] = tri[1], tri[0]
	}
	if tri[1].pos[1] > tri[2].pos[1] {
		tri[1], tri[2] = tri[2], tri[1]
	}
	if tri[0].pos[1] > tri[1].pos[1] {
		tri[0], tri[1] = tri[1], tri[0]
	}
	a, b, c := tri[0].pos, tri[1].pos, tri[2].pos

	r.state = StateScanline
	long := newEdge(a, c)
	if err := r.span(sh, &tri, long, newEdge(a, b), float64(a[1]), float64(b[1])); err != nil {
		return err
	}
	return r.span(sh, &tri, long, newEdge(b, c), float64(b[1]), float64(c[1]))
}

// span fills the rows from top (inclusive, rounded up) to bottom
// (exclusive) between edges e1 and e2.
func (r *Rasterizer) span(sh *shader.Shader, tri *[3]vertFragInfo, e1, e2 edge, top, bottom float64) error {
	y := int(math.Ceil(top))
	if y < 0 {
		y = 0
	}
	for ; float64(y) < bottom && y < r.fb.height; y++ {
		x1, z1 := e1.at(float64(y))
		x2, z2 := e2.at(float64(y))
		if x1 > x2 {
			x1, x2 = x2, x1
			z1, z2 = z2, z1
		}

		xl, xr := int(math.Round(x1)), int(math.Round(x2))
		dzdx := 0.0
		if xr != xl {
			dzdx = (z2 - z1) / float64(xr-xl)
		}

		z := z1
		if xl < 0 {
			// Skip the columns left of the framebuffer, keeping depth in step.
			z += float64(-xl) * dzdx
			xl = 0
		}
		for x := xl; x < xr && x < r.fb.width; x++ {
			if err := r.fragment(sh, tri, x, y, z); err != nil {
				return err
			}
			z += dzdx
		}
	}
	return nil
}

// fragment shades and composites the pixel (x, y) at depth z.
func (r *Rasterizer) fragment(sh *shader.Shader, tri *[3]vertFragInfo, x, y int, z float64) error {
	p := f32.Vec3{float32(x), float32(y), float32(z)}
	w, ok := Barycentric(tri[0].pos, tri[1].pos, tri[2].pos, p)
	if !ok {
		return nil
	}

	r.state = StateFragmentPass
	inputs, err := Interpolate([3][]shader.Output{tri[0].outs, tri[1].outs, tri[2].outs}, w)
	if err != nil {
		return err
	}
	if err := sh.RunFragment(inputs...); err != nil {
		return fmt.Errorf("pixel (%d, %d): %w", x, y, err)
	}
	col, err := sh.ReadOutput(gputypes.ShaderStageFragment, r.opts.ColorOutput)
	if err != nil {
		return fmt.Errorf("pixel (%d, %d): %w", x, y, err)
	}
	if !col.Type.IsVector() || len(col.V) < 3 {
		return syntax.Errorf(syntax.KindType, syntax.Span{}, "",
			"output %q is %s, want a vector of at least 3 components", r.opts.ColorOutput, col.Type)
	}
	r.stats.Fragments++

	r.state = StateComposite
	depth := float32(z)
	if !depthPasses(r.opts.DepthStencil.DepthCompare, depth, r.fb.DepthAt(x, y)) {
		r.stats.DepthRejected++
		return nil
	}
	stored := r.fb.DepthAt(x, y)
	if r.opts.DepthStencil.DepthWriteEnabled {
		stored = depth
	}
	r.fb.Set(x, y, PackColor(col.V[0], col.V[1], col.V[2]), stored)
	r.stats.Written++
	return nil
}

func depthPasses(f gputypes.CompareFunction, depth, stored float32) bool {
	switch f {
	case gputypes.CompareFunctionNever:
		return false
	case gputypes.CompareFunctionLess:
		return depth < stored
	case gputypes.CompareFunctionEqual:
		return depth == stored
	case gputypes.CompareFunctionLessEqual:
		return depth <= stored
	case gputypes.CompareFunctionGreater:
		return depth > stored
	case gputypes.CompareFunctionNotEqual:
		return depth != stored
	case gputypes.CompareFunctionGreaterEqual:
		return depth >= stored
	default:
		return true
	}
}
