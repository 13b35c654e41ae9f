package raster

import (
	"math"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/grsl/interp"
	"github.com/gogpu/grsl/shader"
	"github.com/gogpu/grsl/syntax"
)

type vec3 [3]float64

func widen(v f32.Vec3) vec3 {
	return vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

func (a vec3) sub(b vec3) vec3 {
	return vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (a vec3) cross(b vec3) vec3 {
	return vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a vec3) dot(b vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Barycentric returns the weights of p with respect to the triangle a, b,
// c, computed as ratios of sub-triangle areas to the full area. A point
// equal to a vertex gets exactly that vertex's unit weight. ok is false for
// a degenerate triangle.
func Barycentric(a, b, c, p f32.Vec3) (w f32.Vec3, ok bool) {
	switch p {
	case a:
		return f32.Vec3{1, 0, 0}, true
	case b:
		return f32.Vec3{0, 1, 0}, true
	case c:
		return f32.Vec3{0, 0, 1}, true
	}

	va, vb, vc, vp := widen(a), widen(b), widen(c), widen(p)
	n := vb.sub(va).cross(vc.sub(va))
	area := math.Sqrt(n.dot(n))
	if area == 0 {
		return f32.Vec3{}, false
	}
	// Unit normal, so each dot product below is a signed area.
	n = vec3{n[0] / area, n[1] / area, n[2] / area}

	pa, pb, pc := va.sub(vp), vb.sub(vp), vc.sub(vp)
	wa := n.dot(pb.cross(pc)) / area
	wb := n.dot(pc.cross(pa)) / area
	wc := n.dot(pa.cross(pb)) / area
	return f32.Vec3{float32(wa), float32(wb), float32(wc)}, true
}

// Interpolate blends the outputs of a triangle's three vertices with the
// weights w. Vectors blend component-wise; ints are truncated after
// blending. Outputs are matched by position and must agree in name and
// type across the vertices.
func Interpolate(outs [3][]shader.Output, w f32.Vec3) ([]shader.Input, error) {
	n := len(outs[0])
	if len(outs[1]) != n || len(outs[2]) != n {
		return nil, syntax.Errorf(syntax.KindType, syntax.Span{}, "",
			"vertices produced %d, %d and %d outputs", n, len(outs[1]), len(outs[2]))
	}

	w1, w2 := float64(w[1]), float64(w[2])
	blend := func(a, b, c float32) float64 {
		// Written relative to the first vertex so uniform outputs stay exact.
		base := float64(a)
		return base + w1*(float64(b)-base) + w2*(float64(c)-base)
	}

	inputs := make([]shader.Input, n)
	for i := range n {
		o0, o1, o2 := outs[0][i], outs[1][i], outs[2][i]
		if o1.Name != o0.Name || o2.Name != o0.Name || o1.Value.Type != o0.Value.Type || o2.Value.Type != o0.Value.Type {
			return nil, syntax.Errorf(syntax.KindType, syntax.Span{}, "",
				"output %d disagrees across vertices: %s %s, %s %s, %s %s", i,
				o0.Value.Type, o0.Name, o1.Value.Type, o1.Name, o2.Value.Type, o2.Name)
		}

		var v interp.Value
		switch o0.Value.Type.Kind {
		case syntax.TypeInt:
			v = interp.IntValue(int32(blend(float32(o0.Value.I), float32(o1.Value.I), float32(o2.Value.I))))
		case syntax.TypeFloat:
			v = interp.FloatValue(float32(blend(o0.Value.F, o1.Value.F, o2.Value.F)))
		case syntax.TypeVec:
			comps := make([]float32, len(o0.Value.V))
			for j := range comps {
				comps[j] = float32(blend(o0.Value.V[j], o1.Value.V[j], o2.Value.V[j]))
			}
			v = interp.Value{Type: o0.Value.Type, V: comps}
		default:
			v = o0.Value.Copy()
		}
		inputs[i] = shader.Input{Name: o0.Name, Value: v}
	}
	return inputs, nil
}
