package raster

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/grsl/syntax"
)

// floatSize is the byte size of one attribute component.
const floatSize = 4

// componentFormats maps a component count (1-4) to its vertex format.
var componentFormats = [...]gputypes.VertexFormat{
	gputypes.VertexFormatFloat32,
	gputypes.VertexFormatFloat32x2,
	gputypes.VertexFormatFloat32x3,
	gputypes.VertexFormatFloat32x4,
}

// AttribLayout describes how consecutive floats of an interleaved vertex
// buffer map to layout locations. Element i is bound to location i and
// starts at the running sum of the preceding elements' component counts.
type AttribLayout struct {
	buffer gputypes.VertexBufferLayout
}

// NewAttribLayout returns a layout with one element per count.
func NewAttribLayout(counts ...int) (*AttribLayout, error) {
	l := &AttribLayout{buffer: gputypes.VertexBufferLayout{StepMode: gputypes.VertexStepModeVertex}}
	for _, c := range counts {
		if _, err := l.Add(c); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add appends an element of count float components and returns its
// location.
func (l *AttribLayout) Add(count int) (int, error) {
	if count < 1 || count > len(componentFormats) {
		return 0, syntax.Errorf(syntax.KindConfiguration, syntax.Span{}, "",
			"attribute component count %d out of range 1..%d", count, len(componentFormats))
	}
	location := len(l.buffer.Attributes)
	format := componentFormats[count-1]
	l.buffer.Attributes = append(l.buffer.Attributes, gputypes.VertexAttribute{
		Format:         format,
		Offset:         l.buffer.ArrayStride,
		ShaderLocation: uint32(location),
	})
	l.buffer.ArrayStride += format.Size()
	return location, nil
}

// FromBufferLayout adopts a vertex buffer layout. Every attribute must be
// a 32-bit float format and lie within the stride.
func FromBufferLayout(bl gputypes.VertexBufferLayout) (*AttribLayout, error) {
	if bl.ArrayStride%floatSize != 0 {
		return nil, syntax.Errorf(syntax.KindConfiguration, syntax.Span{}, "",
			"array stride %d is not a multiple of %d", bl.ArrayStride, floatSize)
	}
	for _, a := range bl.Attributes {
		if componentCount(a.Format) == 0 {
			return nil, syntax.Errorf(syntax.KindConfiguration, syntax.Span{}, "",
				"location %d: unsupported vertex format %s", a.ShaderLocation, a.Format)
		}
		if a.Offset%floatSize != 0 || a.Offset+a.Format.Size() > bl.ArrayStride {
			return nil, syntax.Errorf(syntax.KindConfiguration, syntax.Span{}, "",
				"location %d: offset %d does not fit stride %d", a.ShaderLocation, a.Offset, bl.ArrayStride)
		}
	}
	out := bl
	out.Attributes = append([]gputypes.VertexAttribute(nil), bl.Attributes...)
	return &AttribLayout{buffer: out}, nil
}

func componentCount(f gputypes.VertexFormat) int {
	for i, cf := range componentFormats {
		if cf == f {
			return i + 1
		}
	}
	return 0
}

// BufferLayout returns a copy of the underlying vertex buffer layout.
func (l *AttribLayout) BufferLayout() gputypes.VertexBufferLayout {
	out := l.buffer
	out.Attributes = append([]gputypes.VertexAttribute(nil), l.buffer.Attributes...)
	return out
}

// Len returns the number of elements.
func (l *AttribLayout) Len() int {
	return len(l.buffer.Attributes)
}

// Stride returns the number of floats per vertex.
func (l *AttribLayout) Stride() int {
	return int(l.buffer.ArrayStride / floatSize)
}

// Element returns the attribute description of element i.
func (l *AttribLayout) Element(i int) gputypes.VertexAttribute {
	return l.buffer.Attributes[i]
}

// String describes the layout, e.g. "[0:Float32x3@0 1:Float32x2@12]".
func (l *AttribLayout) String() string {
	s := "["
	for i, a := range l.buffer.Attributes {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d:%s@%d", a.ShaderLocation, a.Format, a.Offset)
	}
	return s + "]"
}

// View returns the attributes of vertex i of vertices.
func (l *AttribLayout) View(vertices []float32, i int) VertexView {
	stride := l.Stride()
	return VertexView{layout: l, data: vertices[i*stride : (i+1)*stride]}
}

// VertexView exposes one vertex of an interleaved buffer by layout
// location. It implements shader.VertexAttributes.
type VertexView struct {
	layout *AttribLayout
	data   []float32
}

// Attribute returns the components bound to location.
func (v VertexView) Attribute(location int) ([]float32, bool) {
	for _, a := range v.layout.buffer.Attributes {
		if int(a.ShaderLocation) != location {
			continue
		}
		start := int(a.Offset / floatSize)
		end := start + componentCount(a.Format)
		if end > len(v.data) {
			return nil, false
		}
		return v.data[start:end], true
	}
	return nil, false
}
