package interp

import (
	"github.com/gogpu/grsl/syntax"
)

// Decl is a variable declaration registered in a Scope.
//
// A declaration registered from source holds its initializer as a handle
// into the program arena and evaluates it on every read. Binding a value
// (assignment, runtime input, layout attribute) replaces the initializer
// with an owned copy. An initializer that reads its own name reads the
// declaration this one shadows.
type Decl struct {
	Name     string
	Type     syntax.Type
	Modifier syntax.Modifier
	Location int
	Span     syntax.Span

	value Value
	bound bool
	prog  *syntax.Program
	init  syntax.NodeHandle

	prev      *Decl
	resolving bool
}

// NewDecl returns a plain declaration bound to a copy of v.
func NewDecl(name string, v Value) *Decl {
	return &Decl{Name: name, Type: v.Type, value: v.Copy(), bound: true}
}

// Bind stores an owned copy of v. The caller checks the type.
func (d *Decl) Bind(v Value) {
	d.value = v.Copy()
	d.bound = true
	d.prog = nil
}

// Bound reports whether d holds a concrete value rather than an
// initializer still to be evaluated.
func (d *Decl) Bound() bool {
	return d.bound
}

// Clone returns a copy of d sharing no mutable state with it.
func (d *Decl) Clone() *Decl {
	c := *d
	c.value = d.value.Copy()
	return &c
}

// Func is a function declaration registered in a Scope.
type Func struct {
	Decl syntax.FuncDecl
	Span syntax.Span
	prog *syntax.Program

	active bool
}

// Name returns the function name.
func (f *Func) Name() string {
	return f.Decl.Name
}

type layer struct {
	vars  []*Decl
	index map[string]int
	funcs map[string]*Func
}

func newLayer() *layer {
	return &layer{
		index: make(map[string]int),
		funcs: make(map[string]*Func),
	}
}

// Scope is a stack of lexical layers. It always holds at least one layer.
type Scope struct {
	layers []*layer
}

// NewScope returns a scope with one empty layer.
func NewScope() *Scope {
	return &Scope{layers: []*layer{newLayer()}}
}

// Depth returns the number of layers.
func (s *Scope) Depth() int {
	return len(s.layers)
}

// PushLayer opens a new innermost layer.
func (s *Scope) PushLayer() {
	s.layers = append(s.layers, newLayer())
}

// PopLayer discards the innermost layer. The outermost layer is never
// removed; PopLayer reports false when asked to.
func (s *Scope) PopLayer() bool {
	if len(s.layers) == 1 {
		return false
	}
	s.layers[len(s.layers)-1] = nil
	s.layers = s.layers[:len(s.layers)-1]
	return true
}

// Clear discards every declaration and resets the scope to one empty
// layer.
func (s *Scope) Clear() {
	for i := range s.layers {
		s.layers[i] = nil
	}
	s.layers = append(s.layers[:0], newLayer())
}

// AddVar registers d in the innermost layer. A declaration with the same
// name in that layer is replaced in place, so lookups see the most recent
// one while declaration order is kept. Whatever the name resolved to
// before is remembered as the declaration d shadows.
func (s *Scope) AddVar(d *Decl) {
	if d.prev == nil {
		d.prev, _ = s.FindVar(d.Name, false)
	}
	l := s.layers[len(s.layers)-1]
	if i, ok := l.index[d.Name]; ok {
		l.vars[i] = d
		return
	}
	l.index[d.Name] = len(l.vars)
	l.vars = append(l.vars, d)
}

// AddFunc registers f in the innermost layer.
func (s *Scope) AddFunc(f *Func) {
	s.layers[len(s.layers)-1].funcs[f.Name()] = f
}

// FindVar looks name up from the innermost layer outwards. A miss returns
// nil, or a resolution error when mustExist is set.
func (s *Scope) FindVar(name string, mustExist bool) (*Decl, error) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		l := s.layers[i]
		if j, ok := l.index[name]; ok {
			return l.vars[j], nil
		}
	}
	if mustExist {
		return nil, syntax.Errorf(syntax.KindResolution, syntax.Span{}, "", "undefined variable %q", name)
	}
	return nil, nil
}

// FindFunc looks name up from the innermost layer outwards. A miss returns
// nil, or a resolution error when mustExist is set.
func (s *Scope) FindFunc(name string, mustExist bool) (*Func, error) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if f, ok := s.layers[i].funcs[name]; ok {
			return f, nil
		}
	}
	if mustExist {
		return nil, syntax.Errorf(syntax.KindResolution, syntax.Span{}, "", "undefined function %q", name)
	}
	return nil, nil
}

// Layer returns the variables of layer i in declaration order. Layer 0 is
// the outermost.
func (s *Scope) Layer(i int) []*Decl {
	if i < 0 || i >= len(s.layers) {
		return nil
	}
	return s.layers[i].vars
}

// VarsByModifier collects, outermost layer first, every variable carrying
// mod. With clone set the declarations are cloned so the caller may keep
// them after the scope is cleared or mutated.
func (s *Scope) VarsByModifier(mod syntax.Modifier, clone bool) []*Decl {
	var out []*Decl
	for _, l := range s.layers {
		for _, d := range l.vars {
			if d.Modifier != mod {
				continue
			}
			if clone {
				d = d.Clone()
			}
			out = append(out, d)
		}
	}
	return out
}
