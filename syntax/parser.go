package syntax

import (
	"strconv"
)

// Parser builds a Program from source by recursive descent. It pulls
// tokens from a Lexer one at a time, keeping one token of lookahead and
// the previously consumed token.
type Parser struct {
	lexer  *Lexer
	source string
	cur    Token
	prev   Token
	lexErr error
	prog   *Program
}

// NewParser creates a parser over source. name is recorded on the
// resulting Program for diagnostics.
func NewParser(name, source string) *Parser {
	p := &Parser{
		lexer:  NewLexer(source),
		source: source,
		prog:   &Program{Name: name, Source: source},
	}
	p.advance()
	return p
}

// Parse parses a whole program. The root is a Compound of the top-level
// statements.
func Parse(name, source string) (*Program, error) {
	return NewParser(name, source).Parse()
}

// Parse parses the source into a Program.
func (p *Parser) Parse() (*Program, error) {
	start := p.cur.Span()
	stmts, err := p.statements(TokenEOF)
	if err != nil {
		return nil, err
	}
	if p.lexErr != nil {
		return nil, p.lexErr
	}
	p.prog.Root = p.prog.Add(Compound{Statements: stmts}, start)
	return p.prog, nil
}

// statements parses a ';'-separated statement list up to end. Empty
// statements and a trailing ';' are accepted, and the ';' after a function
// declaration is optional.
func (p *Parser) statements(end TokenKind) ([]NodeHandle, error) {
	var stmts []NodeHandle
	for {
		for p.match(TokenSemicolon) {
		}
		if p.check(end) {
			return stmts, nil
		}
		if p.check(TokenEOF) {
			return nil, p.errorf(p.cur, "expected %s, got EOF", end)
		}

		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		if p.match(TokenSemicolon) {
			continue
		}
		if _, ok := p.prog.Kind(stmt).(FuncDecl); ok {
			// A function body's closing brace also ends the statement.
			continue
		}
		if p.check(end) {
			return stmts, nil
		}
		return nil, p.errorf(p.cur, "expected ';', got %s", describe(p.cur))
	}
}

func (p *Parser) statement() (NodeHandle, error) {
	if p.check(TokenIdent) {
		switch p.cur.Lexeme {
		case "in", "out", "layout":
			return p.modifiedDeclaration()
		}
		if typ, ok := ParseType(p.cur.Lexeme); ok {
			return p.typeLed(typ)
		}
		name := p.advance()
		if p.check(TokenEqual) {
			return p.assignment(name)
		}
		left, err := p.identifierTail(name)
		if err != nil {
			return 0, err
		}
		return p.binaryRest(left, 0)
	}
	return p.expression(0)
}

// modifiedDeclaration parses `in T name`, `out T name` or
// `layout N T name`, each with an optional initializer.
func (p *Parser) modifiedDeclaration() (NodeHandle, error) {
	keyword := p.advance()

	mod := ModifierIn
	location := 0
	switch keyword.Lexeme {
	case "out":
		mod = ModifierOut
	case "layout":
		mod = ModifierLayout
		tok, err := p.expect(TokenIntLiteral)
		if err != nil {
			return 0, err
		}
		loc, convErr := strconv.Atoi(tok.Lexeme)
		if convErr != nil {
			return 0, p.errorf(tok, "invalid layout location %q", tok.Lexeme)
		}
		location = loc
	}

	typeTok, err := p.expect(TokenIdent)
	if err != nil {
		return 0, err
	}
	typ, ok := ParseType(typeTok.Lexeme)
	if !ok {
		return 0, p.errorf(typeTok, "unknown type %q", typeTok.Lexeme)
	}
	nameTok, err := p.expect(TokenIdent)
	if err != nil {
		return 0, err
	}
	return p.varDecl(keyword, typ, nameTok.Lexeme, mod, location)
}

// typeLed parses a statement starting with a type name: a variable
// declaration, a function declaration or a constructor expression.
func (p *Parser) typeLed(typ Type) (NodeHandle, error) {
	typeTok := p.advance()
	if p.check(TokenLeftParen) {
		ctor, err := p.constructor(typeTok, typ)
		if err != nil {
			return 0, err
		}
		return p.binaryRest(ctor, 0)
	}

	nameTok, err := p.expect(TokenIdent)
	if err != nil {
		return 0, err
	}
	if p.check(TokenLeftParen) {
		return p.funcDecl(typeTok, typ, nameTok.Lexeme)
	}
	return p.varDecl(typeTok, typ, nameTok.Lexeme, ModifierNone, 0)
}

func (p *Parser) varDecl(start Token, typ Type, name string, mod Modifier, location int) (NodeHandle, error) {
	if typ.Kind == TypeVoid {
		return 0, p.errorf(start, "variable %q cannot have type void", name)
	}
	decl := VarDecl{
		Name:     name,
		Type:     typ,
		Modifier: mod,
		Location: location,
	}
	if p.match(TokenEqual) {
		value, err := p.expression(0)
		if err != nil {
			return 0, err
		}
		decl.Value = value
		decl.HasInit = true
	} else {
		decl.Value = p.zeroValue(typ, start.Span())
	}
	return p.prog.Add(decl, start.Span()), nil
}

// zeroValue materializes the default value of typ.
func (p *Parser) zeroValue(typ Type, span Span) NodeHandle {
	switch typ.Kind {
	case TypeInt:
		return p.prog.Add(Int{}, span)
	case TypeFloat:
		return p.prog.Add(Float{}, span)
	case TypeVec:
		comps := make([]NodeHandle, typ.Len)
		for i := range comps {
			comps[i] = p.prog.Add(Float{}, span)
		}
		return p.prog.Add(Vector{Components: comps}, span)
	default:
		return p.prog.Add(Void{}, span)
	}
}

func (p *Parser) funcDecl(start Token, ret Type, name string) (NodeHandle, error) {
	p.advance() // (

	var params []NodeHandle
	if !p.check(TokenRightParen) {
		for {
			typeTok, err := p.expect(TokenIdent)
			if err != nil {
				return 0, err
			}
			typ, ok := ParseType(typeTok.Lexeme)
			if !ok || typ.Kind == TypeVoid {
				return 0, p.errorf(typeTok, "invalid parameter type %q", typeTok.Lexeme)
			}
			nameTok, err := p.expect(TokenIdent)
			if err != nil {
				return 0, err
			}
			params = append(params, p.prog.Add(Param{Type: typ, Name: nameTok.Lexeme}, typeTok.Span()))
			if !p.match(TokenComma) {
				break
			}
		}
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return 0, err
	}

	brace, err := p.expect(TokenLeftBrace)
	if err != nil {
		return 0, err
	}
	stmts, err := p.statements(TokenRightBrace)
	if err != nil {
		return 0, err
	}
	p.advance() // }
	body := p.prog.Add(Compound{Statements: stmts}, brace.Span())

	return p.prog.Add(FuncDecl{
		Name:   name,
		Return: ret,
		Params: params,
		Body:   body,
	}, start.Span()), nil
}

func (p *Parser) assignment(name Token) (NodeHandle, error) {
	p.advance() // =
	target := p.prog.Add(VarRef{Name: name.Lexeme}, name.Span())
	value, err := p.expression(0)
	if err != nil {
		return 0, err
	}
	return p.prog.Add(Assign{Target: target, Value: value}, name.Span()), nil
}

// expression parses a binary expression whose operators bind at least as
// tightly as minPrec.
func (p *Parser) expression(minPrec int) (NodeHandle, error) {
	left, err := p.primary()
	if err != nil {
		return 0, err
	}
	return p.binaryRest(left, minPrec)
}

// binaryRest extends left with any following operators of precedence
// minPrec or higher. Operators of equal precedence associate to the left.
func (p *Parser) binaryRest(left NodeHandle, minPrec int) (NodeHandle, error) {
	for p.check(TokenBinaryOp) && p.cur.Op.precedence() >= minPrec {
		opTok := p.advance()
		right, err := p.expression(opTok.Op.precedence() + 1)
		if err != nil {
			return 0, err
		}
		span := p.prog.Nodes[left].Span
		left = p.prog.Add(BinaryOp{Op: opTok.Op, Left: left, Right: right}, span)
	}
	return left, nil
}

func (p *Parser) primary() (NodeHandle, error) {
	tok := p.cur
	switch tok.Kind {
	case TokenIntLiteral:
		p.advance()
		v, err := strconv.ParseInt(tok.Lexeme, 10, 32)
		if err != nil {
			return 0, p.errorf(tok, "integer literal %s out of range", tok.Lexeme)
		}
		return p.prog.Add(Int{Value: int32(v)}, tok.Span()), nil

	case TokenFloatLiteral:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme, 32)
		if err != nil {
			return 0, p.errorf(tok, "invalid float literal %s", tok.Lexeme)
		}
		return p.prog.Add(Float{Value: float32(v)}, tok.Span()), nil

	case TokenLeftParen:
		p.advance()
		inner, err := p.expression(0)
		if err != nil {
			return 0, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return 0, err
		}
		return inner, nil

	case TokenIdent:
		switch tok.Lexeme {
		case "in", "out", "layout":
			return 0, p.errorf(tok, "declaration not allowed in an expression")
		}
		if typ, ok := ParseType(tok.Lexeme); ok {
			p.advance()
			if !p.check(TokenLeftParen) {
				return 0, p.errorf(tok, "declaration not allowed in an expression")
			}
			return p.constructor(tok, typ)
		}
		p.advance()
		return p.identifierTail(tok)
	}

	return 0, p.errorf(tok, "unexpected %s", describe(tok))
}

// identifierTail parses what follows a plain identifier: a call, or a
// variable reference with an optional member.
func (p *Parser) identifierTail(name Token) (NodeHandle, error) {
	if p.check(TokenLeftParen) {
		args, err := p.arguments()
		if err != nil {
			return 0, err
		}
		return p.prog.Add(FuncCall{Name: name.Lexeme, Args: args}, name.Span()), nil
	}

	ref := VarRef{Name: name.Lexeme}
	if p.match(TokenDot) {
		member, err := p.expect(TokenIdent)
		if err != nil {
			return 0, err
		}
		switch member.Lexeme {
		case "x", "y", "z", "w":
			ref.Member = member.Lexeme
		default:
			return 0, p.errorf(member, "invalid member %q, expected x, y, z or w", member.Lexeme)
		}
	}
	return p.prog.Add(ref, name.Span()), nil
}

// arguments parses a parenthesized, comma-separated expression list.
func (p *Parser) arguments() ([]NodeHandle, error) {
	p.advance() // (
	var args []NodeHandle
	if p.match(TokenRightParen) {
		return args, nil
	}
	for {
		arg, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return args, nil
}

// constructor parses `T(args...)` and materializes its value.
func (p *Parser) constructor(typeTok Token, typ Type) (NodeHandle, error) {
	args, err := p.arguments()
	if err != nil {
		return 0, err
	}

	span := typeTok.Span()
	var materialized NodeHandle
	switch typ.Kind {
	case TypeVoid:
		return 0, p.errorf(typeTok, "void has no constructor")
	case TypeVec:
		if len(args) != typ.Len {
			return 0, p.errorf(typeTok, "%s constructor expects %d arguments, got %d", typ, typ.Len, len(args))
		}
		comps := make([]NodeHandle, len(args))
		for i, a := range args {
			comps[i] = p.prog.CopyTree(p.prog, a)
		}
		materialized = p.prog.Add(Vector{Components: comps}, span)
	default:
		if len(args) != 1 {
			return 0, p.errorf(typeTok, "%s constructor expects 1 argument, got %d", typ, len(args))
		}
		materialized = p.prog.CopyTree(p.prog, args[0])
	}

	return p.prog.Add(Constructor{Type: typ, Args: args, Materialized: materialized}, span), nil
}

// Token stream helpers.

func (p *Parser) advance() Token {
	p.prev = p.cur
	if p.lexErr != nil {
		return p.prev
	}
	tok, err := p.lexer.Next()
	if err != nil {
		if p.lexErr == nil {
			p.lexErr = err
		}
		tok = Token{Kind: TokenEOF, Line: p.lexer.line, Column: p.lexer.column}
	}
	p.cur = tok
	return p.prev
}

func (p *Parser) check(kind TokenKind) bool {
	return p.cur.Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	return Token{}, p.errorf(p.cur, "expected %s, got %s", kind, describe(p.cur))
}

// errorf builds a syntax error at tok. A pending lexical error takes
// precedence since it is the root cause of whatever the parser tripped on.
func (p *Parser) errorf(tok Token, format string, args ...any) error {
	if p.lexErr != nil {
		return p.lexErr
	}
	return Errorf(KindSyntax, tok.Span(), p.source, format, args...)
}

func describe(tok Token) string {
	switch tok.Kind {
	case TokenEOF:
		return "EOF"
	case TokenIdent, TokenIntLiteral, TokenFloatLiteral, TokenBinaryOp:
		return strconv.Quote(tok.Lexeme)
	default:
		return "'" + tok.Kind.String() + "'"
	}
}
