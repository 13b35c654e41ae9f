package interp

import (
	"strconv"
	"strings"

	"github.com/gogpu/grsl/syntax"
)

// Value is the result of evaluating an expression. Exactly one payload is
// meaningful, selected by Type: I for int, F for float, V for vectors.
type Value struct {
	Type syntax.Type
	I    int32
	F    float32
	V    []float32
}

// IntValue returns an int value.
func IntValue(v int32) Value {
	return Value{Type: syntax.IntType, I: v}
}

// FloatValue returns a float value.
func FloatValue(v float32) Value {
	return Value{Type: syntax.FloatType, F: v}
}

// VecValue returns a vector value owning a copy of comps.
func VecValue(comps ...float32) Value {
	return Value{Type: syntax.VecType(len(comps)), V: append([]float32(nil), comps...)}
}

// VoidValue returns the empty value.
func VoidValue() Value {
	return Value{Type: syntax.VoidType}
}

// Zero returns the zero value of t.
func Zero(t syntax.Type) Value {
	v := Value{Type: t}
	if t.IsVector() {
		v.V = make([]float32, t.Len)
	}
	return v
}

// Copy returns a deep copy of v.
func (v Value) Copy() Value {
	if v.V != nil {
		v.V = append([]float32(nil), v.V...)
	}
	return v
}

// Float returns a scalar value as float32. Vectors yield their first
// component and void yields zero.
func (v Value) Float() float32 {
	switch v.Type.Kind {
	case syntax.TypeInt:
		return float32(v.I)
	case syntax.TypeFloat:
		return v.F
	case syntax.TypeVec:
		if len(v.V) > 0 {
			return v.V[0]
		}
	}
	return 0
}

// Components returns the value as a float slice: the vector components,
// or a single element for scalars. The slice is shared for vectors.
func (v Value) Components() []float32 {
	switch v.Type.Kind {
	case syntax.TypeVec:
		return v.V
	case syntax.TypeInt, syntax.TypeFloat:
		return []float32{v.Float()}
	default:
		return nil
	}
}

// Equal reports whether v and o have the same type and payload.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type.Kind {
	case syntax.TypeInt:
		return v.I == o.I
	case syntax.TypeFloat:
		return v.F == o.F
	case syntax.TypeVec:
		for i := range v.V {
			if v.V[i] != o.V[i] {
				return false
			}
		}
	}
	return true
}

// String renders the value in source syntax.
func (v Value) String() string {
	switch v.Type.Kind {
	case syntax.TypeInt:
		return strconv.FormatInt(int64(v.I), 10)
	case syntax.TypeFloat:
		return syntax.FormatFloat(v.F)
	case syntax.TypeVec:
		parts := make([]string, len(v.V))
		for i, c := range v.V {
			parts[i] = syntax.FormatFloat(c)
		}
		return v.Type.String() + "(" + strings.Join(parts, ", ") + ")"
	default:
		return "void"
	}
}
