package syntax

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota

	// Literals
	TokenIdent
	TokenIntLiteral
	TokenFloatLiteral

	// Operators
	TokenBinaryOp // + - * /
	TokenEqual    // =
	TokenDot      // .
	TokenComma    // ,
	TokenSemicolon

	// Delimiters
	TokenLeftParen  // (
	TokenRightParen // )
	TokenLeftBrace  // {
	TokenRightBrace // }
)

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenIdent:
		return "Ident"
	case TokenIntLiteral:
		return "IntLiteral"
	case TokenFloatLiteral:
		return "FloatLiteral"
	case TokenBinaryOp:
		return "BinaryOp"
	case TokenEqual:
		return "="
	case TokenDot:
		return "."
	case TokenComma:
		return ","
	case TokenSemicolon:
		return ";"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	case TokenLeftBrace:
		return "{"
	case TokenRightBrace:
		return "}"
	default:
		return "Unknown"
	}
}

// BinaryOperator is the operator carried by a TokenBinaryOp token and by
// BinaryOp nodes.
type BinaryOperator uint8

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
)

// String returns the operator's source spelling.
func (op BinaryOperator) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "?"
	}
}

// precedence returns the binding power of op. Higher binds tighter.
func (op BinaryOperator) precedence() int {
	switch op {
	case OpMul, OpDiv:
		return 2
	default:
		return 1
	}
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Op     BinaryOperator // valid when Kind == TokenBinaryOp
	Line   int
	Column int
}

// Span returns the position the token starts at.
func (t Token) Span() Span {
	return Span{Line: t.Line, Column: t.Column}
}

// Span represents a source code location.
type Span struct {
	Line   int
	Column int
}

// IsZero reports whether the span carries no location.
func (s Span) IsZero() bool {
	return s.Line == 0
}
