package syntax

import (
	"strings"
	"unicode"
)

// keywords maps lower-cased source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"program":   PROGRAM,
	"const":     CONST,
	"var":       VAR,
	"array":     ARRAY,
	"of":        OF,
	"procedure": PROCEDURE,
	"function":  FUNCTION,
	"begin":     BEGIN,
	"end":       END,
	"if":        IF,
	"then":      THEN,
	"else":      ELSE,
	"while":     WHILE,
	"do":        DO,
	"repeat":    REPEAT,
	"until":     UNTIL,
	"for":       FOR,
	"to":        TO,
	"downto":    DOWNTO,
	"div":       DIV,
	"mod":       MOD,
	"and":       AND,
	"or":        OR,
	"not":       NOT,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
	}
	return r
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipLineComment discards everything from the current position to end-of-line.
func (l *Lexer) skipLineComment() {
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
}

// skipBraceComment discards a { ... } comment. The opening brace must
// already have been consumed.
func (l *Lexer) skipBraceComment() error {
	startLine := l.line
	for !l.atEnd() {
		if l.advance() == '}' {
			return nil
		}
	}
	return incompletef(startLine, "unterminated comment (opened on line %d)", startLine)
}

// skipParenComment discards a (* ... *) comment. The opening "(*" must
// already have been consumed.
func (l *Lexer) skipParenComment() error {
	startLine := l.line
	for !l.atEnd() {
		if l.peek() == '*' && l.peek2() == ')' {
			l.advance()
			l.advance()
			return nil
		}
		l.advance()
	}
	return incompletef(startLine, "unterminated comment (opened on line %d)", startLine)
}

// scanIdent collects a full identifier or keyword token. Both are
// case-insensitive and reported lower-cased.
func (l *Lexer) scanIdent() Token {
	line := l.line
	start := l.pos
	for !l.atEnd() {
		r := l.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.advance()
	}
	lexeme := strings.ToLower(string(l.src[start:l.pos]))
	tt := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Line: line}
}

// scanNumber collects an integer or real literal. A '.' only starts a
// fraction when a digit follows, so "1..5" scans as 1, .., 5.
func (l *Lexer) scanNumber() (Token, error) {
	line := l.line
	start := l.pos
	tt := INTEGER

	for !l.atEnd() && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && unicode.IsDigit(l.peek2()) {
		tt = REAL
		l.advance()
		for !l.atEnd() && unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	if r := l.peek(); r == 'e' || r == 'E' {
		save, saveLine := l.pos, l.line
		l.advance()
		if r := l.peek(); r == '+' || r == '-' {
			l.advance()
		}
		if !unicode.IsDigit(l.peek()) {
			// Not an exponent after all; leave 'e' for the next token.
			l.pos, l.line = save, saveLine
		} else {
			tt = REAL
			for !l.atEnd() && unicode.IsDigit(l.peek()) {
				l.advance()
			}
		}
	}
	if unicode.IsLetter(l.peek()) || l.peek() == '_' {
		return Token{}, errorf(line, "malformed number %q", string(l.src[start:l.pos+1]))
	}
	return Token{Type: tt, Lexeme: string(l.src[start:l.pos]), Line: line}, nil
}

// scanString collects a quoted literal '...'. A doubled quote stands for
// one quote character.
func (l *Lexer) scanString() (Token, error) {
	line := l.line
	l.advance() // consume opening '
	var val []rune

	for {
		if l.atEnd() {
			return Token{}, incompletef(line, "unterminated string literal")
		}
		r := l.peek()
		if r == '\n' {
			return Token{}, errorf(line, "unterminated string literal")
		}
		l.advance()
		if r == '\'' {
			if l.peek() == '\'' {
				l.advance()
				val = append(val, '\'')
				continue
			}
			break
		}
		val = append(val, r)
	}
	return Token{Type: STRING, Lexeme: string(val), Line: line}, nil
}

// nextToken skips whitespace/comments and returns the next Token.
func (l *Lexer) nextToken() (Token, error) {
	for {
		l.skipWhitespace()
		if l.atEnd() {
			return Token{Type: EOF, Lexeme: "", Line: l.line}, nil
		}
		switch {
		case l.peek() == '/' && l.peek2() == '/':
			l.advance()
			l.advance()
			l.skipLineComment()
			continue
		case l.peek() == '{':
			l.advance()
			if err := l.skipBraceComment(); err != nil {
				return Token{}, err
			}
			continue
		case l.peek() == '(' && l.peek2() == '*':
			l.advance()
			l.advance()
			if err := l.skipParenComment(); err != nil {
				return Token{}, err
			}
			continue
		}
		break
	}

	ch := l.peek()
	line := l.line

	if unicode.IsLetter(ch) || ch == '_' {
		return l.scanIdent(), nil
	}
	if unicode.IsDigit(ch) {
		return l.scanNumber()
	}
	if ch == '\'' {
		return l.scanString()
	}

	l.advance() // consume the character before the switch
	switch ch {
	case '(':
		return Token{LPAREN, "(", line}, nil
	case ')':
		return Token{RPAREN, ")", line}, nil
	case '[':
		return Token{LBRACKET, "[", line}, nil
	case ']':
		return Token{RBRACKET, "]", line}, nil
	case '.':
		if l.peek() == '.' {
			l.advance()
			return Token{DOTDOT, "..", line}, nil
		}
		return Token{DOT, ".", line}, nil
	case ';':
		return Token{SEMICOLON, ";", line}, nil
	case ',':
		return Token{COMMA, ",", line}, nil
	case ':':
		if l.peek() == '=' {
			l.advance()
			return Token{ASSIGN, ":=", line}, nil
		}
		return Token{COLON, ":", line}, nil
	case '+':
		return Token{PLUS, "+", line}, nil
	case '-':
		return Token{MINUS, "-", line}, nil
	case '*':
		return Token{STAR, "*", line}, nil
	case '/':
		return Token{SLASH, "/", line}, nil
	case '=':
		return Token{EQUALS, "=", line}, nil
	case '<':
		if l.peek() == '=' {
			l.advance()
			return Token{LESS_EQ, "<=", line}, nil
		}
		if l.peek() == '>' {
			l.advance()
			return Token{NOT_EQ, "<>", line}, nil
		}
		return Token{LESS, "<", line}, nil
	case '>':
		if l.peek() == '=' {
			l.advance()
			return Token{GREATER_EQ, ">=", line}, nil
		}
		return Token{GREATER, ">", line}, nil
	default:
		return Token{}, errorf(line, "unexpected character %q", ch)
	}
}

// Lex tokenizes src and returns the token slice, always terminated by EOF.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}
	return tokens, nil
}
