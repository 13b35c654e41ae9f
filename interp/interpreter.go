package interp

import (
	"github.com/gogpu/grsl/syntax"
)

// MaxDepth bounds the evaluation call tree. Self-referential initializers
// and recursive calls are rejected as soon as they happen; the bound only
// guards against pathologically deep sources.
const MaxDepth = 1 << 14

// Interpreter evaluates one program's AST against one Scope.
type Interpreter struct {
	prog  *syntax.Program
	scope *Scope
	depth int

	// IgnoreFuncDecls skips function registration while evaluating, for
	// re-preparing a program whose functions are already registered.
	IgnoreFuncDecls bool
}

// New returns an interpreter for prog bound to scope.
func New(prog *syntax.Program, scope *Scope) *Interpreter {
	return &Interpreter{prog: prog, scope: scope}
}

// Program returns the program being evaluated.
func (in *Interpreter) Program() *syntax.Program { return in.prog }

// Scope returns the bound scope.
func (in *Interpreter) Scope() *Scope { return in.scope }

// Prepare evaluates the program root, registering every top-level
// declaration and function without calling any of them.
func (in *Interpreter) Prepare() error {
	_, err := in.Evaluate(in.prog.Root)
	return err
}

// Call invokes the named function as if by a call expression with no
// arguments.
func (in *Interpreter) Call(name string) (Value, error) {
	fn, err := in.scope.FindFunc(name, true)
	if err != nil {
		return Value{}, err
	}
	return in.call(fn, syntax.Span{})
}

// Resolve returns the current value of d, evaluating its initializer when
// it has not been bound.
func (in *Interpreter) Resolve(d *Decl) (Value, error) {
	if d.bound {
		return d.value.Copy(), nil
	}
	if d.prog == nil {
		return Zero(d.Type), nil
	}
	if d.resolving {
		if d.prev != nil {
			return in.Resolve(d.prev)
		}
		return Value{}, in.errorf(syntax.KindRuntime, d.Span, "initializer of %q refers to itself", d.Name)
	}
	d.resolving = true
	defer func() { d.resolving = false }()

	ev := in
	if d.prog != in.prog {
		ev = &Interpreter{prog: d.prog, scope: in.scope, depth: in.depth}
	}
	v, err := ev.Evaluate(d.init)
	if err != nil {
		return Value{}, err
	}
	if v.Type != d.Type {
		return Value{}, in.errorf(syntax.KindType, d.Span, "variable %q declared %s initialized with %s", d.Name, d.Type, v.Type)
	}
	return v, nil
}

// Evaluate evaluates the node at h.
func (in *Interpreter) Evaluate(h syntax.NodeHandle) (Value, error) {
	in.depth++
	defer func() { in.depth-- }()
	node := in.prog.Node(h)
	if in.depth > MaxDepth {
		return Value{}, in.errorf(syntax.KindRuntime, node.Span, "evaluation exceeds maximum depth %d", MaxDepth)
	}
	span := node.Span

	switch n := node.Kind.(type) {
	case syntax.Int:
		return IntValue(n.Value), nil
	case syntax.Float:
		return FloatValue(n.Value), nil
	case syntax.Void:
		return VoidValue(), nil
	case syntax.Vector:
		return in.vector(n, span)
	case syntax.Compound:
		return in.compound(n)
	case syntax.VarDecl:
		in.scope.AddVar(&Decl{
			Name:     n.Name,
			Type:     n.Type,
			Modifier: n.Modifier,
			Location: n.Location,
			Span:     span,
			prog:     in.prog,
			init:     n.Value,
		})
		return VoidValue(), nil
	case syntax.VarRef:
		return in.varRef(n, span)
	case syntax.FuncCall:
		fn, err := in.scope.FindFunc(n.Name, false)
		if err != nil {
			return Value{}, err
		}
		if fn == nil {
			return Value{}, in.errorf(syntax.KindResolution, span, "undefined function %q", n.Name)
		}
		return in.call(fn, span)
	case syntax.FuncDecl:
		if !in.IgnoreFuncDecls {
			in.scope.AddFunc(&Func{Decl: n, Span: span, prog: in.prog})
		}
		return VoidValue(), nil
	case syntax.Param:
		return in.param(n, span)
	case syntax.Assign:
		return in.assign(n, span)
	case syntax.Constructor:
		return in.constructor(n, span)
	case syntax.BinaryOp:
		return in.binary(n, span)
	}
	return Value{}, in.errorf(syntax.KindRuntime, span, "cannot evaluate %s", syntax.NodeName(node.Kind))
}

func (in *Interpreter) vector(n syntax.Vector, span syntax.Span) (Value, error) {
	comps := make([]float32, len(n.Components))
	for i, c := range n.Components {
		v, err := in.Evaluate(c)
		if err != nil {
			return Value{}, err
		}
		switch {
		case v.Type.Kind == syntax.TypeInt || v.Type.Kind == syntax.TypeFloat:
			comps[i] = v.Float()
		case v.Type == syntax.VecType(1):
			comps[i] = v.V[0]
		default:
			return Value{}, in.errorf(syntax.KindType, span, "vector component %d is %s, want a scalar", i, v.Type)
		}
	}
	return Value{Type: syntax.VecType(len(comps)), V: comps}, nil
}

// compound evaluates each statement in order. The value is that of the
// last statement, or void for an empty list.
func (in *Interpreter) compound(n syntax.Compound) (Value, error) {
	result := VoidValue()
	for _, s := range n.Statements {
		v, err := in.Evaluate(s)
		if err != nil {
			return Value{}, err
		}
		result = v
	}
	return result, nil
}

func (in *Interpreter) varRef(n syntax.VarRef, span syntax.Span) (Value, error) {
	d, err := in.lookup(n.Name, span)
	if err != nil {
		return Value{}, err
	}
	v, err := in.Resolve(d)
	if err != nil {
		return Value{}, err
	}
	if n.Member == "" {
		return v, nil
	}

	idx := n.MemberIndex()
	if !v.Type.IsVector() {
		return Value{}, in.errorf(syntax.KindType, span, "member .%s of %q: %s is not a vector", n.Member, n.Name, v.Type)
	}
	if idx < 0 || idx >= len(v.V) {
		return Value{}, in.errorf(syntax.KindType, span, "member .%s out of range for %q of type %s", n.Member, n.Name, v.Type)
	}
	return FloatValue(v.V[idx]), nil
}

// call evaluates a function body in the caller's scope. Parameters are not
// bound here; a parameter resolves to the same-named variable visible at
// call time.
func (in *Interpreter) call(fn *Func, span syntax.Span) (Value, error) {
	if fn.active {
		if span.IsZero() {
			span = fn.Span
		}
		return Value{}, in.errorf(syntax.KindRuntime, span, "recursive call to %q", fn.Name())
	}
	fn.active = true
	defer func() { fn.active = false }()

	ev := in
	if fn.prog != in.prog {
		ev = &Interpreter{prog: fn.prog, scope: in.scope, depth: in.depth, IgnoreFuncDecls: in.IgnoreFuncDecls}
	}
	v, err := ev.Evaluate(fn.Decl.Body)
	if err != nil {
		return Value{}, err
	}
	if fn.Decl.Return.Kind == syntax.TypeVoid {
		return VoidValue(), nil
	}
	if v.Type != fn.Decl.Return {
		if span.IsZero() {
			span = fn.Span
		}
		return Value{}, in.errorf(syntax.KindType, span, "function %q returns %s, declared %s", fn.Name(), v.Type, fn.Decl.Return)
	}
	return v, nil
}

func (in *Interpreter) param(n syntax.Param, span syntax.Span) (Value, error) {
	d, err := in.scope.FindVar(n.Name, false)
	if err != nil {
		return Value{}, err
	}
	if d == nil {
		return Value{}, in.errorf(syntax.KindResolution, span, "parameter %q has no binding in scope", n.Name)
	}
	v, err := in.Resolve(d)
	if err != nil {
		return Value{}, err
	}
	if v.Type != n.Type {
		return Value{}, in.errorf(syntax.KindType, span, "parameter %q is %s, bound to %s", n.Name, n.Type, v.Type)
	}
	return v, nil
}

func (in *Interpreter) assign(n syntax.Assign, span syntax.Span) (Value, error) {
	target, ok := in.prog.Kind(n.Target).(syntax.VarRef)
	if !ok {
		return Value{}, in.errorf(syntax.KindSyntax, span, "assignment target is %s", syntax.NodeName(in.prog.Kind(n.Target)))
	}
	d, err := in.lookup(target.Name, span)
	if err != nil {
		return Value{}, err
	}
	v, err := in.Evaluate(n.Value)
	if err != nil {
		return Value{}, err
	}
	if v.Type != d.Type {
		return Value{}, in.errorf(syntax.KindType, span, "cannot assign %s to %q of type %s", v.Type, target.Name, d.Type)
	}
	d.Bind(v)
	return VoidValue(), nil
}

// constructor evaluates the value materialized at parse time. Scalar
// constructors convert between int and float.
func (in *Interpreter) constructor(n syntax.Constructor, span syntax.Span) (Value, error) {
	v, err := in.Evaluate(n.Materialized)
	if err != nil {
		return Value{}, err
	}
	if v.Type == n.Type {
		return v, nil
	}

	switch {
	case n.Type.Kind == syntax.TypeInt && v.Type.Kind == syntax.TypeFloat:
		return IntValue(int32(v.F)), nil
	case n.Type.Kind == syntax.TypeFloat && v.Type.Kind == syntax.TypeInt:
		return FloatValue(float32(v.I)), nil
	case n.Type.Kind == syntax.TypeFloat && v.Type == syntax.VecType(1):
		return FloatValue(v.V[0]), nil
	}
	return Value{}, in.errorf(syntax.KindType, span, "cannot construct %s from %s", n.Type, v.Type)
}

func (in *Interpreter) binary(n syntax.BinaryOp, span syntax.Span) (Value, error) {
	l, err := in.Evaluate(n.Left)
	if err != nil {
		return Value{}, err
	}
	r, err := in.Evaluate(n.Right)
	if err != nil {
		return Value{}, err
	}
	if l.Type != r.Type {
		return Value{}, in.errorf(syntax.KindType, span, "mismatched operand types %s %s %s", l.Type, n.Op, r.Type)
	}

	switch l.Type.Kind {
	case syntax.TypeInt:
		if n.Op == syntax.OpDiv && r.I == 0 {
			return Value{}, in.errorf(syntax.KindRuntime, span, "integer division by zero")
		}
		return IntValue(applyInt(n.Op, l.I, r.I)), nil
	case syntax.TypeFloat:
		return FloatValue(applyFloat(n.Op, l.F, r.F)), nil
	case syntax.TypeVec:
		out := make([]float32, len(l.V))
		for i := range out {
			out[i] = applyFloat(n.Op, l.V[i], r.V[i])
		}
		return Value{Type: l.Type, V: out}, nil
	}
	return Value{}, in.errorf(syntax.KindType, span, "operator %s not defined on %s", n.Op, l.Type)
}

func applyInt(op syntax.BinaryOperator, a, b int32) int32 {
	switch op {
	case syntax.OpSub:
		return a - b
	case syntax.OpMul:
		return a * b
	case syntax.OpDiv:
		return a / b
	default:
		return a + b
	}
}

func applyFloat(op syntax.BinaryOperator, a, b float32) float32 {
	switch op {
	case syntax.OpSub:
		return a - b
	case syntax.OpMul:
		return a * b
	case syntax.OpDiv:
		return a / b
	default:
		return a + b
	}
}

func (in *Interpreter) lookup(name string, span syntax.Span) (*Decl, error) {
	d, err := in.scope.FindVar(name, false)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, in.errorf(syntax.KindResolution, span, "undefined variable %q", name)
	}
	return d, nil
}

func (in *Interpreter) errorf(kind syntax.ErrorKind, span syntax.Span, format string, args ...any) error {
	return syntax.Errorf(kind, span, in.prog.Source, format, args...)
}
