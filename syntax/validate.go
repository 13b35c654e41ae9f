package syntax

import "fmt"

// EntryPoint is the function every shader program must define.
const EntryPoint = "main"

// validator checks a Program for errors the parser cannot see locally.
type validator struct {
	prog      *Program
	errors    Errors
	functions map[string]Span
	locations map[int]string
}

// Validate checks p for duplicate function names, duplicate layout
// locations, duplicate parameter names and a missing zero-parameter main.
// Returns the problems found, or nil if p is valid.
func Validate(p *Program) (Errors, error) {
	if p == nil {
		return nil, fmt.Errorf("program is nil")
	}
	root, ok := p.Kind(p.Root).(Compound)
	if !ok {
		return nil, fmt.Errorf("program root is %s, want Compound", NodeName(p.Kind(p.Root)))
	}

	v := &validator{
		prog:      p,
		functions: make(map[string]Span),
		locations: make(map[int]string),
	}
	v.statements(root.Statements, true)
	v.entryPoint()

	if len(v.errors) > 0 {
		return v.errors, nil
	}
	return nil, nil
}

func (v *validator) add(kind ErrorKind, span Span, format string, args ...any) {
	v.errors.Add(Errorf(kind, span, v.prog.Source, format, args...))
}

func (v *validator) statements(stmts []NodeHandle, topLevel bool) {
	for _, h := range stmts {
		n := v.prog.Node(h)
		switch k := n.Kind.(type) {
		case VarDecl:
			if k.Modifier != ModifierLayout {
				continue
			}
			if k.Location < 0 {
				v.add(KindConfiguration, n.Span, "layout location %d of %q is negative", k.Location, k.Name)
				continue
			}
			if prev, dup := v.locations[k.Location]; dup {
				v.add(KindConfiguration, n.Span, "layout location %d bound to both %q and %q", k.Location, prev, k.Name)
				continue
			}
			v.locations[k.Location] = k.Name

		case FuncDecl:
			if topLevel {
				if _, dup := v.functions[k.Name]; dup {
					v.add(KindResolution, n.Span, "function %q declared more than once", k.Name)
				} else {
					v.functions[k.Name] = n.Span
				}
			}
			v.params(k)
			if body, ok := v.prog.Kind(k.Body).(Compound); ok {
				v.statements(body.Statements, false)
			}
		}
	}
}

func (v *validator) params(fn FuncDecl) {
	seen := make(map[string]bool, len(fn.Params))
	for _, h := range fn.Params {
		param, ok := v.prog.Kind(h).(Param)
		if !ok {
			continue
		}
		if seen[param.Name] {
			v.add(KindSyntax, v.prog.Node(h).Span, "duplicate parameter %q in function %q", param.Name, fn.Name)
		}
		seen[param.Name] = true
	}
}

func (v *validator) entryPoint() {
	span, ok := v.functions[EntryPoint]
	if !ok {
		v.add(KindResolution, Span{}, "function %q is not declared", EntryPoint)
		return
	}
	root := v.prog.Kind(v.prog.Root).(Compound)
	for _, h := range root.Statements {
		if fn, ok := v.prog.Kind(h).(FuncDecl); ok && fn.Name == EntryPoint && len(fn.Params) != 0 {
			v.add(KindResolution, span, "function %q must not take parameters", EntryPoint)
		}
	}
}
