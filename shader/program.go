package shader

import (
	"github.com/gogpu/grsl/interp"
	"github.com/gogpu/grsl/syntax"
)

// run executes the program from a clean scope: declarations are
// re-registered, layout and in declarations are bound, then main is
// called. With requireLayout unset, layout declarations that have neither
// an attribute nor a same-named input keep their default.
func (p *Program) run(attrs VertexAttributes, inputs []Input, requireLayout bool) error {
	p.Scope.Clear()
	if err := p.interp.Prepare(); err != nil {
		return err
	}
	if err := p.bindLayout(attrs, inputs, requireLayout); err != nil {
		return err
	}
	if err := p.bindInputs(inputs); err != nil {
		return err
	}
	_, err := p.interp.Evaluate(p.main)
	return err
}

// bindLayout binds layout declarations to the attribute at their
// location. Without attributes a same-named runtime input is used instead.
func (p *Program) bindLayout(attrs VertexAttributes, inputs []Input, required bool) error {
	for _, d := range p.Scope.VarsByModifier(syntax.ModifierLayout, false) {
		if attrs == nil {
			in, ok := findInput(inputs, d.Name)
			if !ok && !required {
				continue
			}
			if !ok {
				return p.errorf(syntax.KindConfiguration, d.Span,
					"no vertex attributes bound for layout %d %q", d.Location, d.Name)
			}
			if err := p.bind(d, in.Value); err != nil {
				return err
			}
			continue
		}

		comps, ok := attrs.Attribute(d.Location)
		if !ok {
			return p.errorf(syntax.KindConfiguration, d.Span,
				"no attribute at layout location %d for %q", d.Location, d.Name)
		}
		switch d.Type.Kind {
		case syntax.TypeVec:
			if len(comps) != d.Type.Len {
				return p.errorf(syntax.KindConfiguration, d.Span,
					"layout %d %q is %s but the attribute has %d components", d.Location, d.Name, d.Type, len(comps))
			}
			d.Bind(interp.VecValue(comps...))
		case syntax.TypeFloat:
			if len(comps) != 1 {
				return p.errorf(syntax.KindConfiguration, d.Span,
					"layout %d %q is float but the attribute has %d components", d.Location, d.Name, len(comps))
			}
			d.Bind(interp.FloatValue(comps[0]))
		default:
			return p.errorf(syntax.KindConfiguration, d.Span,
				"layout %d %q has type %s, want float or a vector", d.Location, d.Name, d.Type)
		}
	}
	return nil
}

// bindInputs copies each runtime input into the in declaration of the
// same name. Unmatched inputs and unmatched declarations are left alone.
func (p *Program) bindInputs(inputs []Input) error {
	if len(inputs) == 0 {
		return nil
	}
	for _, d := range p.Scope.VarsByModifier(syntax.ModifierIn, false) {
		in, ok := findInput(inputs, d.Name)
		if !ok {
			continue
		}
		if err := p.bind(d, in.Value); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) bind(d *interp.Decl, v interp.Value) error {
	if v.Type != d.Type {
		return p.errorf(syntax.KindType, d.Span, "input %q is %s, declared %s", d.Name, v.Type, d.Type)
	}
	d.Bind(v)
	return nil
}

func findInput(inputs []Input, name string) (Input, bool) {
	for _, in := range inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// ReadOutput returns the current value of the out declaration name in the
// outermost scope layer.
func (p *Program) ReadOutput(name string) (interp.Value, error) {
	for _, d := range p.Scope.Layer(0) {
		if d.Name == name && d.Modifier == syntax.ModifierOut {
			return p.interp.Resolve(d)
		}
	}
	return interp.Value{}, p.errorf(syntax.KindResolution, syntax.Span{}, "no output named %q", name)
}

// Outputs returns every out declaration in the outermost scope layer, in
// declaration order, with its current value.
func (p *Program) Outputs() ([]Output, error) {
	var outs []Output
	for _, d := range p.Scope.Layer(0) {
		if d.Modifier != syntax.ModifierOut {
			continue
		}
		v, err := p.interp.Resolve(d)
		if err != nil {
			return nil, err
		}
		outs = append(outs, Output{Name: d.Name, Value: v})
	}
	return outs, nil
}

func (p *Program) errorf(kind syntax.ErrorKind, span syntax.Span, format string, args ...any) error {
	return syntax.Errorf(kind, span, p.AST.Source, format, args...)
}
