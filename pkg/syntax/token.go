package syntax

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // variable / routine / type name
	INTEGER    // decimal integer literal
	REAL       // real literal: 1.5, 2e3
	STRING     // quoted literal '...'

	// Keywords
	PROGRAM
	CONST
	VAR
	ARRAY
	OF
	PROCEDURE
	FUNCTION
	BEGIN
	END
	IF
	THEN
	ELSE
	WHILE
	DO
	REPEAT
	UNTIL
	FOR
	TO
	DOWNTO
	DIV
	MOD
	AND
	OR
	NOT

	// Delimiters
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]

	// Punctuation
	DOT       // .
	DOTDOT    // ..
	SEMICOLON // ;
	COMMA     // ,
	COLON     // :
	ASSIGN    // :=

	// Operators
	PLUS       // +
	MINUS      // -
	STAR       // *
	SLASH      // /
	EQUALS     // =
	NOT_EQ     // <>
	LESS       // <
	LESS_EQ    // <=
	GREATER    // >
	GREATER_EQ // >=
)

var tokenNames = [...]string{
	EOF:        "EOF",
	IDENTIFIER: "IDENTIFIER",
	INTEGER:    "INTEGER",
	REAL:       "REAL",
	STRING:     "STRING",
	PROGRAM:    "PROGRAM",
	CONST:      "CONST",
	VAR:        "VAR",
	ARRAY:      "ARRAY",
	OF:         "OF",
	PROCEDURE:  "PROCEDURE",
	FUNCTION:   "FUNCTION",
	BEGIN:      "BEGIN",
	END:        "END",
	IF:         "IF",
	THEN:       "THEN",
	ELSE:       "ELSE",
	WHILE:      "WHILE",
	DO:         "DO",
	REPEAT:     "REPEAT",
	UNTIL:      "UNTIL",
	FOR:        "FOR",
	TO:         "TO",
	DOWNTO:     "DOWNTO",
	DIV:        "DIV",
	MOD:        "MOD",
	AND:        "AND",
	OR:         "OR",
	NOT:        "NOT",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	LBRACKET:   "LBRACKET",
	RBRACKET:   "RBRACKET",
	DOT:        "DOT",
	DOTDOT:     "DOTDOT",
	SEMICOLON:  "SEMICOLON",
	COMMA:      "COMMA",
	COLON:      "COLON",
	ASSIGN:     "ASSIGN",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	STAR:       "STAR",
	SLASH:      "SLASH",
	EQUALS:     "EQUALS",
	NOT_EQ:     "NOT_EQ",
	LESS:       "LESS",
	LESS_EQ:    "LESS_EQ",
	GREATER:    "GREATER",
	GREATER_EQ: "GREATER_EQ",
}

// Compile-time guard: tokenNames must cover every TokenType.
var _ = tokenNames[GREATER_EQ]

func (t TokenType) String() string {
	if t < 0 || int(t) >= len(tokenNames) {
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
	return tokenNames[t]
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // lower-cased for identifiers and keywords, unquoted for strings
	Line   int    // 1-based source line
}

func (t Token) String() string {
	return fmt.Sprintf("Token{%s, %q, line %d}", t.Type, t.Lexeme, t.Line)
}
