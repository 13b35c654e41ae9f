package syntax

import "unicode/utf8"

// Lexer produces tokens from shading-language source on demand.
type Lexer struct {
	source string
	pos    int
	line   int
	column int

	startLine   int
	startColumn int
	start       int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
	}
}

// Tokenize returns all tokens from the source, ending with TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	// Estimate ~1 token per 4 characters of source.
	tokens := make([]Token, 0, len(l.source)/4+1)
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens, nil
		}
	}
}

// Next returns the next token. Once the source is exhausted every call
// returns a TokenEOF token.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	l.start = l.pos
	l.startLine = l.line
	l.startColumn = l.column

	if l.isAtEnd() {
		return l.token(TokenEOF), nil
	}

	c := l.advance()
	switch c {
	case ';':
		return l.token(TokenSemicolon), nil
	case '(':
		return l.token(TokenLeftParen), nil
	case ')':
		return l.token(TokenRightParen), nil
	case '{':
		return l.token(TokenLeftBrace), nil
	case '}':
		return l.token(TokenRightBrace), nil
	case '=':
		return l.token(TokenEqual), nil
	case ',':
		return l.token(TokenComma), nil
	case '.':
		return l.token(TokenDot), nil
	case '+':
		return l.operator(OpAdd), nil
	case '-':
		return l.operator(OpSub), nil
	case '*':
		return l.operator(OpMul), nil
	case '/':
		return l.operator(OpDiv), nil
	}

	switch {
	case isDigit(c):
		return l.number(), nil
	case isIdentStart(c):
		for isIdentPart(l.peek()) {
			l.advance()
		}
		return l.token(TokenIdent), nil
	}

	r, _ := utf8.DecodeRuneInString(l.source[l.start:])
	return Token{}, Errorf(KindLexical, Span{Line: l.startLine, Column: l.startColumn}, l.source,
		"unrecognized character %q on line %d", r, l.startLine)
}

// number scans an integer or float literal. A digit run followed by '.'
// is a float; the fractional digits are optional.
func (l *Lexer) number() Token {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() != '.' {
		return l.token(TokenIntLiteral)
	}
	l.advance()
	for isDigit(l.peek()) {
		l.advance()
	}
	return l.token(TokenFloatLiteral)
}

func (l *Lexer) operator(op BinaryOperator) Token {
	tok := l.token(TokenBinaryOp)
	tok.Op = op
	return tok
}

func (l *Lexer) token(kind TokenKind) Token {
	return Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.startLine,
		Column: l.startColumn,
	}
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		switch l.source[l.pos] {
		case ' ', '\t', '\r', '\n', '\v', '\f':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) advance() byte {
	c := l.source[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
