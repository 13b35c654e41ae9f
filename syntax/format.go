package syntax

import (
	"strconv"
	"strings"
)

// Format renders the subtree at h back to source text. Binary operations
// are fully parenthesized so the output reparses to the same tree shape.
func Format(p *Program, h NodeHandle) string {
	var sb strings.Builder
	f := formatter{p: p, sb: &sb}
	if c, ok := p.Kind(h).(Compound); ok && h == p.Root {
		f.statements(c.Statements, 0)
	} else {
		f.node(h, 0)
	}
	return sb.String()
}

// String renders the whole program.
func (p *Program) String() string {
	return Format(p, p.Root)
}

type formatter struct {
	p  *Program
	sb *strings.Builder
}

func (f *formatter) statements(stmts []NodeHandle, depth int) {
	for _, s := range stmts {
		f.indent(depth)
		f.node(s, depth)
		f.sb.WriteString(";\n")
	}
}

func (f *formatter) indent(depth int) {
	for range depth {
		f.sb.WriteString("    ")
	}
}

func (f *formatter) list(hs []NodeHandle, depth int) {
	for i, h := range hs {
		if i > 0 {
			f.sb.WriteString(", ")
		}
		f.node(h, depth)
	}
}

func (f *formatter) node(h NodeHandle, depth int) {
	sb := f.sb
	switch n := f.p.Kind(h).(type) {
	case VarDecl:
		switch n.Modifier {
		case ModifierIn, ModifierOut:
			sb.WriteString(n.Modifier.String())
			sb.WriteByte(' ')
		case ModifierLayout:
			sb.WriteString("layout ")
			sb.WriteString(strconv.Itoa(n.Location))
			sb.WriteByte(' ')
		}
		sb.WriteString(n.Type.String())
		sb.WriteByte(' ')
		sb.WriteString(n.Name)
		if n.HasInit {
			sb.WriteString(" = ")
			f.node(n.Value, depth)
		}
	case VarRef:
		sb.WriteString(n.Name)
		if n.Member != "" {
			sb.WriteByte('.')
			sb.WriteString(n.Member)
		}
	case FuncCall:
		sb.WriteString(n.Name)
		sb.WriteByte('(')
		f.list(n.Args, depth)
		sb.WriteByte(')')
	case FuncDecl:
		sb.WriteString(n.Return.String())
		sb.WriteByte(' ')
		sb.WriteString(n.Name)
		sb.WriteByte('(')
		f.list(n.Params, depth)
		sb.WriteString(") {\n")
		if body, ok := f.p.Kind(n.Body).(Compound); ok {
			f.statements(body.Statements, depth+1)
		}
		f.indent(depth)
		sb.WriteByte('}')
	case Assign:
		f.node(n.Target, depth)
		sb.WriteString(" = ")
		f.node(n.Value, depth)
	case Constructor:
		sb.WriteString(n.Type.String())
		sb.WriteByte('(')
		f.list(n.Args, depth)
		sb.WriteByte(')')
	case Compound:
		sb.WriteString("{\n")
		f.statements(n.Statements, depth+1)
		f.indent(depth)
		sb.WriteByte('}')
	case Param:
		sb.WriteString(n.Type.String())
		sb.WriteByte(' ')
		sb.WriteString(n.Name)
	case BinaryOp:
		sb.WriteByte('(')
		f.node(n.Left, depth)
		sb.WriteByte(' ')
		sb.WriteString(n.Op.String())
		sb.WriteByte(' ')
		f.node(n.Right, depth)
		sb.WriteByte(')')
	case Int:
		sb.WriteString(strconv.FormatInt(int64(n.Value), 10))
	case Float:
		sb.WriteString(FormatFloat(n.Value))
	case Vector:
		sb.WriteString(VecType(len(n.Components)).String())
		sb.WriteByte('(')
		f.list(n.Components, depth)
		sb.WriteByte(')')
	case Void:
		sb.WriteString("void")
	}
}

// FormatFloat renders v as a float literal the lexer accepts back.
func FormatFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
