// Package shader loads vertex and fragment programs and runs them with
// runtime inputs and vertex attributes bound to their in and layout
// declarations.
package shader

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/grsl/internal/logging"
	"github.com/gogpu/grsl/interp"
	"github.com/gogpu/grsl/syntax"
)

// VertexAttributes supplies the attribute components of the vertex being
// processed, addressed by layout location.
type VertexAttributes interface {
	Attribute(location int) ([]float32, bool)
}

// Input is a named runtime value bound to a matching in declaration.
type Input struct {
	Name  string
	Value interp.Value
}

// Output is the value of an out declaration after a run.
type Output struct {
	Name  string
	Value interp.Value
}

// Program is one parsed program with its own scope.
type Program struct {
	Stage gputypes.ShaderStage
	AST   *syntax.Program
	Scope *interp.Scope

	interp *interp.Interpreter
	main   syntax.NodeHandle // synthesized call to the entry point
}

// Shader owns a vertex and a fragment program. A single-program shader
// uses the same Program for both stages.
type Shader struct {
	Vertex   *Program
	Fragment *Program

	inputs []Input
}

// Load parses, validates and prepares a vertex and a fragment program.
func Load(vertexSource, fragmentSource string) (*Shader, error) {
	return LoadNamed("vertex", vertexSource, "fragment", fragmentSource)
}

// LoadNamed is like Load but records names used in diagnostics.
func LoadNamed(vertexName, vertexSource, fragmentName, fragmentSource string) (*Shader, error) {
	vert, err := newProgram(gputypes.ShaderStageVertex, vertexName, vertexSource)
	if err != nil {
		return nil, err
	}
	frag, err := newProgram(gputypes.ShaderStageFragment, fragmentName, fragmentSource)
	if err != nil {
		return nil, err
	}
	return &Shader{Vertex: vert, Fragment: frag}, nil
}

// LoadSingle loads a shader without a vertex/fragment split.
func LoadSingle(name, source string) (*Shader, error) {
	p, err := newProgram(gputypes.ShaderStagesVertexFragment, name, source)
	if err != nil {
		return nil, err
	}
	return &Shader{Vertex: p, Fragment: p}, nil
}

func newProgram(stage gputypes.ShaderStage, name, source string) (*Program, error) {
	ast, err := syntax.Parse(name, source)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	errs, err := syntax.Validate(ast)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if errs.HasErrors() {
		return nil, fmt.Errorf("load %s: %w", name, errs)
	}

	p := &Program{
		Stage: stage,
		AST:   ast,
		Scope: interp.NewScope(),
		main:  ast.Add(syntax.FuncCall{Name: syntax.EntryPoint}, syntax.Span{}),
	}
	p.interp = interp.New(ast, p.Scope)
	if err := p.interp.Prepare(); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if _, err := p.Scope.FindFunc(syntax.EntryPoint, true); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	logging.Logger().Debug("shader: program loaded",
		"name", name, "stage", stage.String(), "nodes", len(ast.Nodes))
	return p, nil
}

// Program returns the program for stage.
func (s *Shader) Program(stage gputypes.ShaderStage) *Program {
	if stage == gputypes.ShaderStageFragment {
		return s.Fragment
	}
	return s.Vertex
}

// Single reports whether both stages share one program.
func (s *Shader) Single() bool {
	return s.Vertex == s.Fragment
}

// AddInput appends a runtime input used by the next run.
func (s *Shader) AddInput(name string, v interp.Value) {
	s.inputs = append(s.inputs, Input{Name: name, Value: v.Copy()})
}

// AddInputInt appends an int runtime input.
func (s *Shader) AddInputInt(name string, v int32) {
	s.AddInput(name, interp.IntValue(v))
}

// AddInputFloat appends a float runtime input.
func (s *Shader) AddInputFloat(name string, v float32) {
	s.AddInput(name, interp.FloatValue(v))
}

// AddInputVec appends a vector runtime input.
func (s *Shader) AddInputVec(name string, comps ...float32) {
	s.AddInput(name, interp.VecValue(comps...))
}

// Inputs returns the pending runtime inputs.
func (s *Shader) Inputs() []Input {
	return s.inputs
}

// ClearInputs drops the pending runtime inputs.
func (s *Shader) ClearInputs() {
	s.inputs = s.inputs[:0]
}

// RunVertex runs the vertex program with attrs bound to its layout
// declarations. inputs are bound ahead of inputs added with AddInput.
// Pending inputs are cleared whether or not the run succeeds.
func (s *Shader) RunVertex(attrs VertexAttributes, inputs ...Input) error {
	defer s.ClearInputs()
	return s.Vertex.run(attrs, s.merge(inputs), true)
}

// RunFragment runs the fragment program. In a single-program shader,
// layout declarations not matched by an input keep their default.
func (s *Shader) RunFragment(inputs ...Input) error {
	defer s.ClearInputs()
	return s.Fragment.run(nil, s.merge(inputs), !s.Single())
}

// Run runs a single-program shader.
func (s *Shader) Run(inputs ...Input) error {
	defer s.ClearInputs()
	if !s.Single() {
		return syntax.Errorf(syntax.KindConfiguration, syntax.Span{}, "",
			"shader has separate vertex and fragment programs")
	}
	return s.Vertex.run(nil, s.merge(inputs), true)
}

func (s *Shader) merge(explicit []Input) []Input {
	if len(s.inputs) == 0 {
		return explicit
	}
	if len(explicit) == 0 {
		return s.inputs
	}
	all := make([]Input, 0, len(explicit)+len(s.inputs))
	all = append(all, explicit...)
	return append(all, s.inputs...)
}

// ReadOutput returns the current value of the out declaration name in the
// outermost layer of stage's scope.
func (s *Shader) ReadOutput(stage gputypes.ShaderStage, name string) (interp.Value, error) {
	return s.Program(stage).ReadOutput(name)
}

// Outputs returns every out declaration of stage in declaration order.
func (s *Shader) Outputs(stage gputypes.ShaderStage) ([]Output, error) {
	return s.Program(stage).Outputs()
}
