package shader

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/grsl/interp"
	"github.com/gogpu/grsl/syntax"
)

const (
	testVertex = `
layout 0 vec3 i_pos;
layout 1 vec3 i_color;
out vec3 gr_pos = i_pos;
out vec3 v_color;
void main() {
    v_color = i_color * vec3(255.0, 255.0, 255.0)
}
`
	testFragment = `
in vec3 v_color;
out vec3 gr_color = v_color;
void main() {}
`
)

// attrs is a VertexAttributes backed by a map.
type attrs map[int][]float32

func (a attrs) Attribute(location int) ([]float32, bool) {
	c, ok := a[location]
	return c, ok
}

func loadShader(t *testing.T, vert, frag string) *Shader {
	t.Helper()
	sh, err := Load(vert, frag)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return sh
}

func TestRunVertexBindsLayout(t *testing.T) {
	sh := loadShader(t, testVertex, testFragment)

	err := sh.RunVertex(attrs{0: {1, 2, 3}, 1: {1, 0.5, 0}})
	if err != nil {
		t.Fatalf("RunVertex: %v", err)
	}

	pos, err := sh.ReadOutput(gputypes.ShaderStageVertex, "gr_pos")
	if err != nil {
		t.Fatalf("ReadOutput(gr_pos): %v", err)
	}
	if !pos.Equal(interp.VecValue(1, 2, 3)) {
		t.Errorf("gr_pos: got %v, want vec3(1.0, 2.0, 3.0)", pos)
	}

	outs, err := sh.Outputs(gputypes.ShaderStageVertex)
	if err != nil {
		t.Fatalf("Outputs: %v", err)
	}
	if len(outs) != 2 || outs[0].Name != "gr_pos" || outs[1].Name != "v_color" {
		t.Fatalf("got outputs %+v, want gr_pos and v_color", outs)
	}
	if !outs[1].Value.Equal(interp.VecValue(255, 127.5, 0)) {
		t.Errorf("v_color: got %v", outs[1].Value)
	}
}

func TestRunFragmentBindsInputs(t *testing.T) {
	sh := loadShader(t, testVertex, testFragment)

	err := sh.RunFragment(
		Input{Name: "v_color", Value: interp.VecValue(10, 20, 30)},
		Input{Name: "unused", Value: interp.IntValue(1)},
	)
	if err != nil {
		t.Fatalf("RunFragment: %v", err)
	}
	color, err := sh.ReadOutput(gputypes.ShaderStageFragment, "gr_color")
	if err != nil {
		t.Fatalf("ReadOutput: %v", err)
	}
	if !color.Equal(interp.VecValue(10, 20, 30)) {
		t.Errorf("gr_color: got %v", color)
	}
}

func TestAccumulatedInputsAreCleared(t *testing.T) {
	sh := loadShader(t, testVertex, testFragment)

	sh.AddInputVec("v_color", 1, 2, 3)
	if len(sh.Inputs()) != 1 {
		t.Fatalf("got %d pending inputs, want 1", len(sh.Inputs()))
	}
	if err := sh.RunFragment(); err != nil {
		t.Fatalf("RunFragment: %v", err)
	}
	if len(sh.Inputs()) != 0 {
		t.Error("inputs not cleared after a successful run")
	}

	color, _ := sh.ReadOutput(gputypes.ShaderStageFragment, "gr_color")
	if !color.Equal(interp.VecValue(1, 2, 3)) {
		t.Errorf("gr_color: got %v", color)
	}

	// The next run starts from a clean scope with no inputs.
	if err := sh.RunFragment(); err != nil {
		t.Fatalf("RunFragment: %v", err)
	}
	color, _ = sh.ReadOutput(gputypes.ShaderStageFragment, "gr_color")
	if !color.Equal(interp.VecValue(0, 0, 0)) {
		t.Errorf("gr_color after clean run: got %v, want zero", color)
	}
}

func TestInputsClearedAfterFailedRun(t *testing.T) {
	sh := loadShader(t, testVertex, testFragment)

	sh.AddInputFloat("v_color", 1)
	err := sh.RunFragment()
	if !errors.Is(err, syntax.ErrType) {
		t.Fatalf("got %v, want type error", err)
	}
	if len(sh.Inputs()) != 0 {
		t.Error("inputs leaked past a failed run")
	}
}

func TestLayoutMismatch(t *testing.T) {
	sh := loadShader(t, testVertex, testFragment)

	tests := []struct {
		name  string
		attrs attrs
	}{
		{"too few components", attrs{0: {1, 2}, 1: {0, 0, 0}}},
		{"too many components", attrs{0: {1, 2, 3, 4}, 1: {0, 0, 0}}},
		{"missing location", attrs{0: {1, 2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sh.RunVertex(tt.attrs)
			if !errors.Is(err, syntax.ErrConfiguration) {
				t.Errorf("got %v, want configuration error", err)
			}
		})
	}
}

func TestLayoutScalarTypes(t *testing.T) {
	sh := loadShader(t, "layout 0 float w; out float o = w; void main() {}", "void main() {}")
	if err := sh.RunVertex(attrs{0: {0.25}}); err != nil {
		t.Fatalf("RunVertex: %v", err)
	}
	v, _ := sh.ReadOutput(gputypes.ShaderStageVertex, "o")
	if !v.Equal(interp.FloatValue(0.25)) {
		t.Errorf("got %v, want 0.25", v)
	}

	sh = loadShader(t, "layout 0 int w; void main() {}", "void main() {}")
	if err := sh.RunVertex(attrs{0: {1}}); !errors.Is(err, syntax.ErrConfiguration) {
		t.Errorf("int layout: got %v, want configuration error", err)
	}
}

func TestReadOutputMissing(t *testing.T) {
	sh := loadShader(t, testVertex, testFragment)
	if err := sh.RunFragment(); err != nil {
		t.Fatalf("RunFragment: %v", err)
	}
	_, err := sh.ReadOutput(gputypes.ShaderStageFragment, "v_color")
	if !errors.Is(err, syntax.ErrResolution) {
		t.Errorf("reading an in declaration: got %v, want resolution error", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		vert string
		frag string
		want error
	}{
		{"lexical", "int a = #", "void main() {}", syntax.ErrLexical},
		{"syntax", "vec3 v = vec3(1)", "void main() {}", syntax.ErrSyntax},
		{"no main", "void main() {}", "int a", syntax.ErrResolution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.vert, tt.frag)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSingleProgram(t *testing.T) {
	sh, err := LoadSingle("single", "in int n; out int r; void main() { r = n + n + n }")
	if err != nil {
		t.Fatalf("LoadSingle: %v", err)
	}
	if !sh.Single() {
		t.Fatal("Single() = false")
	}
	sh.AddInputInt("n", 7)
	if err := sh.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	r, err := sh.ReadOutput(gputypes.ShaderStageVertex, "r")
	if err != nil {
		t.Fatalf("ReadOutput: %v", err)
	}
	if !r.Equal(interp.IntValue(21)) {
		t.Errorf("got %v, want 21", r)
	}

	split := loadShader(t, testVertex, testFragment)
	if err := split.Run(); !errors.Is(err, syntax.ErrConfiguration) {
		t.Errorf("Run on a split shader: got %v, want configuration error", err)
	}
}

func TestExplicitInputsTakePrecedence(t *testing.T) {
	sh := loadShader(t, testVertex, testFragment)
	sh.AddInputVec("v_color", 1, 1, 1)
	if err := sh.RunFragment(Input{Name: "v_color", Value: interp.VecValue(2, 2, 2)}); err != nil {
		t.Fatalf("RunFragment: %v", err)
	}
	color, _ := sh.ReadOutput(gputypes.ShaderStageFragment, "gr_color")
	if !color.Equal(interp.VecValue(2, 2, 2)) {
		t.Errorf("got %v, want the explicit input", color)
	}
}

func TestSingleProgramFragmentLayout(t *testing.T) {
	sh, err := LoadSingle("single", "layout 0 vec3 i_pos; out vec3 gr_pos = i_pos; out vec3 gr_color = vec3(0, 255, 0); void main() {}")
	if err != nil {
		t.Fatalf("LoadSingle: %v", err)
	}
	if err := sh.RunVertex(attrs{0: {1, 2, 3}}); err != nil {
		t.Fatalf("RunVertex: %v", err)
	}
	pos, _ := sh.ReadOutput(gputypes.ShaderStageVertex, "gr_pos")
	if !pos.Equal(interp.VecValue(1, 2, 3)) {
		t.Errorf("gr_pos: got %v, want vec3(1.0, 2.0, 3.0)", pos)
	}

	// The fragment pass has no attributes; the layout keeps its default.
	if err := sh.RunFragment(); err != nil {
		t.Fatalf("RunFragment: %v", err)
	}
	pos, _ = sh.ReadOutput(gputypes.ShaderStageFragment, "gr_pos")
	if !pos.Equal(interp.VecValue(0, 0, 0)) {
		t.Errorf("gr_pos in fragment pass: got %v, want zero", pos)
	}

	if err := sh.Run(); !errors.Is(err, syntax.ErrConfiguration) {
		t.Errorf("Run without attributes: got %v, want configuration error", err)
	}
}
