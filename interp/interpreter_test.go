package interp

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gogpu/grsl/syntax"
)

// prepare parses source, evaluates its top level and returns the
// interpreter.
func prepare(t *testing.T, source string) *Interpreter {
	t.Helper()
	prog, err := syntax.Parse("test", source)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	in := New(prog, NewScope())
	if err := in.Prepare(); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	return in
}

// valueOf resolves a variable in the interpreter's scope.
func valueOf(t *testing.T, in *Interpreter, name string) Value {
	t.Helper()
	d, err := in.Scope().FindVar(name, true)
	if err != nil {
		t.Fatalf("FindVar(%q): %v", name, err)
	}
	v, err := in.Resolve(d)
	if err != nil {
		t.Fatalf("Resolve(%q): %v", name, err)
	}
	return v
}

func TestDeclarationDefaults(t *testing.T) {
	types := []string{"int", "float", "vec1", "vec2", "vec3", "vec4", "vec9"}
	for _, typ := range types {
		in := prepare(t, typ+" v")
		want, _ := syntax.ParseType(typ)
		if got := valueOf(t, in, "v"); !got.Equal(Zero(want)) {
			t.Errorf("%s default: got %v, want %v", typ, got, Zero(want))
		}
	}
}

func TestAssignmentTypeSafety(t *testing.T) {
	exprs := map[string]string{
		"int":   "1",
		"float": "1.0",
		"vec2":  "vec2(1, 2)",
		"vec3":  "vec3(1, 2, 3)",
		"vec4":  "vec4(1, 2, 3, 4)",
	}
	for declared := range exprs {
		for evaluated, expr := range exprs {
			src := fmt.Sprintf("%s target; void main() { target = %s }", declared, expr)
			in := prepare(t, src)
			_, err := in.Call("main")
			if declared == evaluated {
				if err != nil {
					t.Errorf("%s = %s: unexpected error %v", declared, evaluated, err)
				}
				continue
			}
			if !errors.Is(err, syntax.ErrType) {
				t.Errorf("%s = %s: got %v, want type error", declared, evaluated, err)
			}
		}
	}
}

func TestAssignmentCopies(t *testing.T) {
	in := prepare(t, "vec3 a = vec3(1, 2, 3); vec3 b; b = a; a = vec3(4, 5, 6)")
	if got := valueOf(t, in, "b"); !got.Equal(VecValue(1, 2, 3)) {
		t.Errorf("b: got %v, want vec3(1.0, 2.0, 3.0)", got)
	}
}

func TestBinaryLeftAssociative(t *testing.T) {
	in := prepare(t, "int a = 1; int b = 2; int c = 3; int r = a + b + c")
	if got := valueOf(t, in, "r"); !got.Equal(IntValue(6)) {
		t.Errorf("got %v, want 6", got)
	}

	in = prepare(t, "int r = 10 - 3 - 2")
	if got := valueOf(t, in, "r"); !got.Equal(IntValue(5)) {
		t.Errorf("10 - 3 - 2: got %v, want 5", got)
	}
}

func TestBinaryOperators(t *testing.T) {
	tests := []struct {
		expr string
		want Value
	}{
		{"2 + 3 * 4", IntValue(14)},
		{"(2 + 3) * 4", IntValue(20)},
		{"7 / 2", IntValue(3)},
		{"1.5 + 2.5", FloatValue(4)},
		{"3.0 / 2.0", FloatValue(1.5)},
		{"vec2(1, 2) + vec2(3, 4)", VecValue(4, 6)},
		{"vec3(2, 4, 6) * vec3(0.5, 0.5, 0.5)", VecValue(1, 2, 3)},
	}
	for _, tt := range tests {
		prog, err := syntax.Parse("expr", tt.expr)
		if err != nil {
			t.Fatalf("%q: %v", tt.expr, err)
		}
		got, err := New(prog, NewScope()).Evaluate(prog.Root)
		if err != nil {
			t.Errorf("%q: %v", tt.expr, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("%q: got %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestEvaluationErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"mixed operands", "int r = 1 + 1.0; r", syntax.ErrType},
		{"undefined variable", "missing", syntax.ErrResolution},
		{"undefined function", "missing()", syntax.ErrResolution},
		{"assign undeclared", "x = 1", syntax.ErrResolution},
		{"division by zero", "1 / 0", syntax.ErrRuntime},
		{"member of scalar", "float f; f.x", syntax.ErrType},
		{"member out of range", "vec2 v; v.z", syntax.ErrType},
		{"bad return type", "int f() { 1.0 }; f()", syntax.ErrType},
		{"self reference", "int a = a + 1; a", syntax.ErrRuntime},
		{"recursion", "int f() { f() }; f()", syntax.ErrRuntime},
		{"mutual recursion", "int f() { g() }; int g() { f() }; f()", syntax.ErrRuntime},
		{"initializer cycle", "int a = b; int b = a; a", syntax.ErrRuntime},
		{"initializer mismatch", "float f = 1; f", syntax.ErrType},
		{"vector component", "vec2 v = vec2(vec2(1, 2), 3); v", syntax.ErrType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := syntax.Parse("test", tt.src)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			_, err = New(prog, NewScope()).Evaluate(prog.Root)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRedeclarationReadsShadowed(t *testing.T) {
	tests := []struct {
		src  string
		want Value
	}{
		{"int a = 1; int a = a + 1", IntValue(2)},
		{"int a = 1; int a = a + 1; int a = a * 3", IntValue(6)},
		{"vec2 a = vec2(1, 2); vec2 a = a + a", VecValue(2, 4)},
		{"int a = 1; int f() { a }; int a = f() + 1", IntValue(2)},
	}
	for _, tt := range tests {
		in := prepare(t, tt.src)
		if got := valueOf(t, in, "a"); !got.Equal(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestLongExpression(t *testing.T) {
	const terms = 1000
	in := prepare(t, "int n = "+strings.Repeat("1 + ", terms-1)+"1")
	if got := valueOf(t, in, "n"); !got.Equal(IntValue(terms)) {
		t.Errorf("got %v, want %d", got, terms)
	}
}

func TestMemberAccess(t *testing.T) {
	in := prepare(t, "vec4 v = vec4(1, 2, 3, 4); float x = v.x; float y = v.y; float z = v.z; float w = v.w")
	for i, name := range []string{"x", "y", "z", "w"} {
		if got := valueOf(t, in, name); !got.Equal(FloatValue(float32(i + 1))) {
			t.Errorf("v.%s: got %v, want %d", name, got, i+1)
		}
	}
}

func TestConstructorConversions(t *testing.T) {
	in := prepare(t, "float f = float(2); int i = int(2.75); vec3 c = vec3(255, 0.5, 1 + 1)")
	if got := valueOf(t, in, "f"); !got.Equal(FloatValue(2)) {
		t.Errorf("float(2): got %v", got)
	}
	if got := valueOf(t, in, "i"); !got.Equal(IntValue(2)) {
		t.Errorf("int(2.75): got %v", got)
	}
	if got := valueOf(t, in, "c"); !got.Equal(VecValue(255, 0.5, 2)) {
		t.Errorf("vec3: got %v", got)
	}
}

func TestFunctionCallUsesCallerScope(t *testing.T) {
	in := prepare(t, `
vec3 base = vec3(1, 2, 3);
vec3 tint(vec3 base) { base + vec3(1, 1, 1) }
vec3 result;
void main() { result = tint() }
`)
	if _, err := in.Call("main"); err != nil {
		t.Fatalf("Call(main): %v", err)
	}
	if got := valueOf(t, in, "result"); !got.Equal(VecValue(2, 3, 4)) {
		t.Errorf("got %v, want vec3(2.0, 3.0, 4.0)", got)
	}
}

func TestLazyInitializerTracksBinding(t *testing.T) {
	in := prepare(t, "in vec3 i_pos; out vec3 gr_pos = i_pos")

	d, _ := in.Scope().FindVar("i_pos", true)
	d.Bind(VecValue(4, 5, 6))

	if got := valueOf(t, in, "gr_pos"); !got.Equal(VecValue(4, 5, 6)) {
		t.Errorf("gr_pos: got %v, want the bound input", got)
	}
}

func TestIgnoreFuncDecls(t *testing.T) {
	in := prepare(t, "void main() {}")
	in.Scope().Clear()
	in.IgnoreFuncDecls = true
	if err := in.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if f, _ := in.Scope().FindFunc("main", false); f != nil {
		t.Error("main registered despite IgnoreFuncDecls")
	}
}

func TestCompoundValue(t *testing.T) {
	in := prepare(t, "int f() { int a = 4; a + 1 }; void g() {}")
	v, err := in.Call("f")
	if err != nil {
		t.Fatalf("Call(f): %v", err)
	}
	if !v.Equal(IntValue(5)) {
		t.Errorf("f(): got %v, want 5", v)
	}
	v, err = in.Call("g")
	if err != nil {
		t.Fatalf("Call(g): %v", err)
	}
	if v.Type != syntax.VoidType {
		t.Errorf("g(): got %v, want void", v)
	}
}
