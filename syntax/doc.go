// Package syntax implements the front end of the grsl shading language:
// a lazy lexer, a recursive-descent parser producing an arena-backed AST,
// a source printer and a static validator.
//
// The language is a small GLSL-like subset:
//
//	layout 0 vec3 i_pos;
//	out vec3 gr_pos = i_pos;
//	void main() {
//	    gr_pos = vec3(i_pos.x * 2.0, i_pos.y, i_pos.z);
//	}
//
// Statements are separated by ';'. Types are int, float, void and vecN
// for N from 1 to 9. Declarations may carry an in, out or layout N
// modifier. There is no control flow.
//
// All failures are reported as *Error values whose Kind identifies the
// stage that raised them; use errors.Is with the Err sentinels to test
// for a kind.
package syntax
