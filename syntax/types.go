package syntax

import "strconv"

// TypeKind is the category of a declared type.
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeInt
	TypeFloat
	TypeVec
)

// Type is a declared type. Len is the component count of a vector type.
type Type struct {
	Kind TypeKind
	Len  int
}

// Predeclared scalar types.
var (
	VoidType  = Type{Kind: TypeVoid}
	IntType   = Type{Kind: TypeInt}
	FloatType = Type{Kind: TypeFloat}
)

// VecType returns the vector type with n float components.
func VecType(n int) Type {
	return Type{Kind: TypeVec, Len: n}
}

// ParseType resolves a type name: int, float, void or vecN where N is a
// single digit from 1 to 9.
func ParseType(name string) (Type, bool) {
	switch name {
	case "int":
		return IntType, true
	case "float":
		return FloatType, true
	case "void":
		return VoidType, true
	}
	if len(name) == 4 && name[:3] == "vec" && name[3] >= '1' && name[3] <= '9' {
		return VecType(int(name[3] - '0')), true
	}
	return Type{}, false
}

// IsVector reports whether t is a vector type.
func (t Type) IsVector() bool {
	return t.Kind == TypeVec
}

// String returns the type's source spelling.
func (t Type) String() string {
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeVec:
		return "vec" + strconv.Itoa(t.Len)
	default:
		return "unknown"
	}
}

// Modifier qualifies a variable declaration.
type Modifier uint8

const (
	ModifierNone Modifier = iota
	ModifierIn
	ModifierOut
	ModifierLayout
)

// String returns the modifier keyword, or "" for ModifierNone.
func (m Modifier) String() string {
	switch m {
	case ModifierIn:
		return "in"
	case ModifierOut:
		return "out"
	case ModifierLayout:
		return "layout"
	default:
		return ""
	}
}
