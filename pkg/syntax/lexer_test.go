package syntax

import (
	"reflect"
	"testing"
)

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
		wantErr  bool
	}{
		{
			name:  "Empty",
			input: "",
			expected: []Token{
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Operators",
			input: "+ - * / = <> < <= > >= := : ; , . ..",
			expected: []Token{
				{Type: PLUS, Lexeme: "+", Line: 1},
				{Type: MINUS, Lexeme: "-", Line: 1},
				{Type: STAR, Lexeme: "*", Line: 1},
				{Type: SLASH, Lexeme: "/", Line: 1},
				{Type: EQUALS, Lexeme: "=", Line: 1},
				{Type: NOT_EQ, Lexeme: "<>", Line: 1},
				{Type: LESS, Lexeme: "<", Line: 1},
				{Type: LESS_EQ, Lexeme: "<=", Line: 1},
				{Type: GREATER, Lexeme: ">", Line: 1},
				{Type: GREATER_EQ, Lexeme: ">=", Line: 1},
				{Type: ASSIGN, Lexeme: ":=", Line: 1},
				{Type: COLON, Lexeme: ":", Line: 1},
				{Type: SEMICOLON, Lexeme: ";", Line: 1},
				{Type: COMMA, Lexeme: ",", Line: 1},
				{Type: DOT, Lexeme: ".", Line: 1},
				{Type: DOTDOT, Lexeme: "..", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Keywords are case-insensitive",
			input: "BEGIN End wHiLe Total",
			expected: []Token{
				{Type: BEGIN, Lexeme: "begin", Line: 1},
				{Type: END, Lexeme: "end", Line: 1},
				{Type: WHILE, Lexeme: "while", Line: 1},
				{Type: IDENTIFIER, Lexeme: "total", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Numbers",
			input: "42 3.14 1e3 2.5E-2",
			expected: []Token{
				{Type: INTEGER, Lexeme: "42", Line: 1},
				{Type: REAL, Lexeme: "3.14", Line: 1},
				{Type: REAL, Lexeme: "1e3", Line: 1},
				{Type: REAL, Lexeme: "2.5E-2", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Range is not a real",
			input: "1..10",
			expected: []Token{
				{Type: INTEGER, Lexeme: "1", Line: 1},
				{Type: DOTDOT, Lexeme: "..", Line: 1},
				{Type: INTEGER, Lexeme: "10", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Strings with doubled quote",
			input: "'it''s' 'x'",
			expected: []Token{
				{Type: STRING, Lexeme: "it's", Line: 1},
				{Type: STRING, Lexeme: "x", Line: 1},
				{Type: EOF, Lexeme: "", Line: 1},
			},
		},
		{
			name:  "Comments and lines",
			input: "a { one }\n(* two\nthree *) b // four\nc",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "a", Line: 1},
				{Type: IDENTIFIER, Lexeme: "b", Line: 3},
				{Type: IDENTIFIER, Lexeme: "c", Line: 4},
				{Type: EOF, Lexeme: "", Line: 4},
			},
		},
		{
			name:    "Unexpected character",
			input:   "a ? b",
			wantErr: true,
		},
		{
			name:    "Malformed number",
			input:   "12ab",
			wantErr: true,
		},
		{
			name:    "Unterminated string",
			input:   "'abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Lex() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(tokens, tt.expected) {
				t.Errorf("Lex() =\n%v\nwant\n%v", tokens, tt.expected)
			}
		})
	}
}

func TestLex_Incomplete(t *testing.T) {
	for _, src := range []string{"'abc", "{ open", "(* open"} {
		_, err := Lex(src)
		if err == nil {
			t.Fatalf("Lex(%q) succeeded, want error", src)
		}
		if !IsIncomplete(err) {
			t.Errorf("Lex(%q) error %v not marked incomplete", src, err)
		}
	}

	_, err := Lex("'abc\n'")
	if err == nil || IsIncomplete(err) {
		t.Errorf("string broken by newline should be a hard error, got %v", err)
	}
}
