package syntax

import "fmt"

// NodeHandle is an index into a Program's node arena.
type NodeHandle uint32

// Program is a parsed shading-language program. Nodes live in a single
// arena and refer to their children by handle, so a whole program is
// released by dropping the Program.
type Program struct {
	Name   string // diagnostic name, usually the file name
	Source string
	Nodes  []Node
	Root   NodeHandle // a Compound holding the top-level statements
}

// Node is one entry in the arena.
type Node struct {
	Kind NodeKind
	Span Span
}

// NodeKind is implemented by every node variant.
type NodeKind interface {
	nodeKind()
}

// Add appends a node to the arena and returns its handle.
func (p *Program) Add(kind NodeKind, span Span) NodeHandle {
	h := NodeHandle(len(p.Nodes))
	p.Nodes = append(p.Nodes, Node{Kind: kind, Span: span})
	return h
}

// Node returns the node for h. The pointer is invalidated by Add.
func (p *Program) Node(h NodeHandle) *Node {
	return &p.Nodes[h]
}

// Kind returns the variant stored at h.
func (p *Program) Kind(h NodeHandle) NodeKind {
	return p.Nodes[h].Kind
}

// Valid reports whether h addresses a node of p.
func (p *Program) Valid(h NodeHandle) bool {
	return int(h) < len(p.Nodes)
}

// Reset drops every node.
func (p *Program) Reset() {
	p.Nodes = nil
	p.Root = 0
}

// Clone returns a deep copy of p. No slice is shared with the original.
func (p *Program) Clone() *Program {
	c := &Program{
		Name:   p.Name,
		Source: p.Source,
		Nodes:  make([]Node, len(p.Nodes)),
		Root:   p.Root,
	}
	for i, n := range p.Nodes {
		c.Nodes[i] = Node{Kind: cloneKind(n.Kind), Span: n.Span}
	}
	return c
}

// CopyTree copies the subtree rooted at h in src into p and returns the
// handle of the copy. src may be p itself.
func (p *Program) CopyTree(src *Program, h NodeHandle) NodeHandle {
	n := src.Nodes[h]
	copyAll := func(hs []NodeHandle) []NodeHandle {
		if hs == nil {
			return nil
		}
		out := make([]NodeHandle, len(hs))
		for i, c := range hs {
			out[i] = p.CopyTree(src, c)
		}
		return out
	}

	var kind NodeKind
	switch k := n.Kind.(type) {
	case VarDecl:
		k.Value = p.CopyTree(src, k.Value)
		kind = k
	case FuncCall:
		k.Args = copyAll(k.Args)
		kind = k
	case FuncDecl:
		k.Params = copyAll(k.Params)
		k.Body = p.CopyTree(src, k.Body)
		kind = k
	case Assign:
		k.Target = p.CopyTree(src, k.Target)
		k.Value = p.CopyTree(src, k.Value)
		kind = k
	case Constructor:
		k.Args = copyAll(k.Args)
		k.Materialized = p.CopyTree(src, k.Materialized)
		kind = k
	case Compound:
		k.Statements = copyAll(k.Statements)
		kind = k
	case BinaryOp:
		k.Left = p.CopyTree(src, k.Left)
		k.Right = p.CopyTree(src, k.Right)
		kind = k
	case Vector:
		k.Components = copyAll(k.Components)
		kind = k
	default:
		kind = n.Kind
	}
	return p.Add(kind, n.Span)
}

func cloneHandles(hs []NodeHandle) []NodeHandle {
	if hs == nil {
		return nil
	}
	return append([]NodeHandle(nil), hs...)
}

func cloneKind(kind NodeKind) NodeKind {
	switch k := kind.(type) {
	case FuncCall:
		k.Args = cloneHandles(k.Args)
		return k
	case FuncDecl:
		k.Params = cloneHandles(k.Params)
		return k
	case Constructor:
		k.Args = cloneHandles(k.Args)
		return k
	case Compound:
		k.Statements = cloneHandles(k.Statements)
		return k
	case Vector:
		k.Components = cloneHandles(k.Components)
		return k
	default:
		return kind
	}
}

// VarDecl declares a variable. Value is the initializer, or a zero value
// of Type materialized by the parser when HasInit is false.
type VarDecl struct {
	Name     string
	Type     Type
	Modifier Modifier
	Location int // layout location, valid when Modifier == ModifierLayout
	Value    NodeHandle
	HasInit  bool
}

func (VarDecl) nodeKind() {}

// VarRef reads a variable, optionally a single vector component.
type VarRef struct {
	Name   string
	Member string // "", "x", "y", "z" or "w"
}

func (VarRef) nodeKind() {}

// MemberIndex returns the component index selected by the member, or -1
// when the reference reads the whole variable.
func (r VarRef) MemberIndex() int {
	switch r.Member {
	case "x":
		return 0
	case "y":
		return 1
	case "z":
		return 2
	case "w":
		return 3
	default:
		return -1
	}
}

// FuncCall invokes a function by name.
type FuncCall struct {
	Name string
	Args []NodeHandle
}

func (FuncCall) nodeKind() {}

// FuncDecl declares a function. Params are Param nodes; Body is a Compound.
type FuncDecl struct {
	Name   string
	Return Type
	Params []NodeHandle
	Body   NodeHandle
}

func (FuncDecl) nodeKind() {}

// Assign stores Value into the variable named by Target (a VarRef).
type Assign struct {
	Target NodeHandle
	Value  NodeHandle
}

func (Assign) nodeKind() {}

// Constructor builds a value of Type from Args. Materialized holds the
// value assembled at parse time: a Vector for vector types, a copy of the
// single argument for scalars.
type Constructor struct {
	Type         Type
	Args         []NodeHandle
	Materialized NodeHandle
}

func (Constructor) nodeKind() {}

// Compound is an ordered statement list.
type Compound struct {
	Statements []NodeHandle
}

func (Compound) nodeKind() {}

// Param is a function parameter. It resolves to the same-named variable
// visible at call time.
type Param struct {
	Type Type
	Name string
}

func (Param) nodeKind() {}

// BinaryOp applies Op to Left and Right.
type BinaryOp struct {
	Op    BinaryOperator
	Left  NodeHandle
	Right NodeHandle
}

func (BinaryOp) nodeKind() {}

// Int is an integer literal.
type Int struct {
	Value int32
}

func (Int) nodeKind() {}

// Float is a float literal.
type Float struct {
	Value float32
}

func (Float) nodeKind() {}

// Vector is an ordered list of scalar component expressions.
type Vector struct {
	Components []NodeHandle
}

func (Vector) nodeKind() {}

// Void is the empty value.
type Void struct{}

func (Void) nodeKind() {}

// NodeName returns a short name for the variant, used in diagnostics.
func NodeName(kind NodeKind) string {
	switch kind.(type) {
	case VarDecl:
		return "VarDecl"
	case VarRef:
		return "VarRef"
	case FuncCall:
		return "FuncCall"
	case FuncDecl:
		return "FuncDecl"
	case Assign:
		return "Assign"
	case Constructor:
		return "Constructor"
	case Compound:
		return "Compound"
	case Param:
		return "Param"
	case BinaryOp:
		return "BinaryOp"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case Vector:
		return "Vector"
	case Void:
		return "Void"
	default:
		return fmt.Sprintf("%T", kind)
	}
}
