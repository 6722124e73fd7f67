package syntax

import (
	"strings"
)

// Parser consumes the flat token slice produced by the Lexer and builds a
// syntax tree.
//
// Grammar:
//
//	program    = ["program" IDENT ["(" idents ")"] ";"] block "."
//	block      = { constSect | varSect | subDecl } compound
//	constSect  = "const" (IDENT "=" constant ";")+
//	varSect    = "var" (idents ":" type ";")+
//	subDecl    = ("procedure" IDENT [params] | "function" IDENT [params] ":" type) ";" block ";"
//	params     = "(" group {";" group} ")"
//	group      = ["var"] idents ":" type
//	type       = IDENT | "array" "[" range {"," range} "]" "of" type
//	range      = bound ".." bound
//	bound      = ["+"|"-"] INTEGER
//	compound   = "begin" stmt {";" stmt} "end"
//	stmt       = [ assign | call | compound | if | while | repeat | for ]
//	expression = simple [relop simple]
//	simple     = ["+"|"-"] term {("+"|"-"|"or") term}
//	term       = factor {("*"|"/"|"div"|"mod"|"and") factor}
//	factor     = INTEGER | REAL | STRING | "not" factor | "(" expression ")"
//	           | IDENT ["[" expression {"," expression} "]" | "(" [args] ")"]
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
}

func NewParser(tokens []Token, rawSource string) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(rawSource, "\n")}
}

// Parse builds the syntax tree for a whole program.
func Parse(tokens []Token, src string) (*Program, error) {
	return NewParser(tokens, src).ParseProgram()
}

// ParseSource lexes and parses src.
func ParseSource(src string) (*Program, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, src)
}

// fmtError builds an error at tok, quoting the source line it appears on.
// Errors at EOF are marked incomplete.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	e := errorf(tok.Line, format, args...)
	lineIdx := tok.Line - 1
	if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
		e.Snippet = strings.TrimSpace(p.sourceLines[lineIdx])
	}
	e.Incomplete = tok.Type == EOF
	return e
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		line := 1
		if n := len(p.tokens); n > 0 {
			line = p.tokens[n-1].Line
		}
		return Token{Type: EOF, Line: line}
	}
	return p.tokens[p.pos]
}

// peekAt returns the token at the given offset from the current position.
func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos+offset]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.fmtError(tok, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	return p.advance(), nil
}

func (p *Parser) accept(tt TokenType) bool {
	if p.peek().Type == tt {
		p.advance()
		return true
	}
	return false
}

// ParseProgram parses a complete source file.
func (p *Parser) ParseProgram() (*Program, error) {
	prog := &Program{Name: "main", Line: p.peek().Line}
	if p.peek().Type == PROGRAM {
		p.advance()
		name, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		prog.Name = name.Lexeme
		prog.Line = name.Line
		if p.accept(LPAREN) {
			if _, err := p.parseIdents(); err != nil {
				return nil, err
			}
			if _, err := p.expect(RPAREN); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
	}

	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	prog.Block = block
	if _, err := p.expect(DOT); err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != EOF {
		return nil, p.fmtError(tok, "unexpected %s (%q) after end of program", tok.Type, tok.Lexeme)
	}
	return prog, nil
}

func (p *Parser) parseBlock() (*Block, error) {
	b := &Block{}
	for {
		switch p.peek().Type {
		case CONST:
			consts, err := p.parseConstSection()
			if err != nil {
				return nil, err
			}
			b.Consts = append(b.Consts, consts...)
		case VAR:
			vars, err := p.parseVarSection()
			if err != nil {
				return nil, err
			}
			b.Vars = append(b.Vars, vars...)
		case PROCEDURE, FUNCTION:
			sub, err := p.parseSubDecl()
			if err != nil {
				return nil, err
			}
			b.Subs = append(b.Subs, sub)
		default:
			body, err := p.parseCompound()
			if err != nil {
				return nil, err
			}
			b.Body = body
			return b, nil
		}
	}
}

func (p *Parser) parseIdents() ([]Ident, error) {
	var names []Ident
	for {
		tok, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		names = append(names, Ident{Name: tok.Lexeme, Line: tok.Line})
		if !p.accept(COMMA) {
			return names, nil
		}
	}
}

func (p *Parser) parseConstSection() ([]*ConstDecl, error) {
	p.advance() // const
	var out []*ConstDecl
	for p.peek().Type == IDENTIFIER {
		name := p.advance()
		if _, err := p.expect(EQUALS); err != nil {
			return nil, err
		}
		val, err := p.parseConstant()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		out = append(out, &ConstDecl{Name: name.Lexeme, Line: name.Line, Value: val})
	}
	if len(out) == 0 {
		tok := p.peek()
		return nil, p.fmtError(tok, "expected constant declaration, got %s (%q)", tok.Type, tok.Lexeme)
	}
	return out, nil
}

// parseConstant accepts a literal, a signed number, or a name.
func (p *Parser) parseConstant() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case PLUS, MINUS:
		p.advance()
		next := p.peek()
		if next.Type != INTEGER && next.Type != REAL && next.Type != IDENTIFIER {
			return nil, p.fmtError(next, "expected number after sign, got %s (%q)", next.Type, next.Lexeme)
		}
		operand, err := p.parseConstant()
		if err != nil {
			return nil, err
		}
		return &Unary{Line: tok.Line, Op: tok.Type, Operand: operand}, nil
	case INTEGER:
		p.advance()
		return &IntLit{Line: tok.Line, Digits: tok.Lexeme}, nil
	case REAL:
		p.advance()
		return &RealLit{Line: tok.Line, Text: tok.Lexeme}, nil
	case STRING:
		p.advance()
		return &StrLit{Line: tok.Line, Value: tok.Lexeme}, nil
	case IDENTIFIER:
		p.advance()
		return &Name{Line: tok.Line, Name: tok.Lexeme}, nil
	}
	return nil, p.fmtError(tok, "expected constant, got %s (%q)", tok.Type, tok.Lexeme)
}

func (p *Parser) parseVarSection() ([]*VarDecl, error) {
	p.advance() // var
	var out []*VarDecl
	for p.peek().Type == IDENTIFIER {
		names, err := p.parseIdents()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		out = append(out, &VarDecl{Names: names, Type: typ})
	}
	if len(out) == 0 {
		tok := p.peek()
		return nil, p.fmtError(tok, "expected variable declaration, got %s (%q)", tok.Type, tok.Lexeme)
	}
	return out, nil
}

func (p *Parser) parseType() (*TypeSpec, error) {
	tok := p.peek()
	if tok.Type == IDENTIFIER {
		p.advance()
		return &TypeSpec{Name: tok.Lexeme, Line: tok.Line}, nil
	}
	if tok.Type != ARRAY {
		return nil, p.fmtError(tok, "expected type, got %s (%q)", tok.Type, tok.Lexeme)
	}
	p.advance()
	if _, err := p.expect(LBRACKET); err != nil {
		return nil, err
	}
	spec := &TypeSpec{Line: tok.Line}
	for {
		lo, err := p.parseBound()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(DOTDOT); err != nil {
			return nil, err
		}
		hi, err := p.parseBound()
		if err != nil {
			return nil, err
		}
		spec.Ranges = append(spec.Ranges, IndexRange{Lo: lo, Hi: hi})
		if !p.accept(COMMA) {
			break
		}
	}
	if _, err := p.expect(RBRACKET); err != nil {
		return nil, err
	}
	if _, err := p.expect(OF); err != nil {
		return nil, err
	}
	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}
	spec.Elem = elem
	return spec, nil
}

func (p *Parser) parseBound() (Bound, error) {
	b := Bound{Line: p.peek().Line}
	switch p.peek().Type {
	case MINUS:
		p.advance()
		b.Neg = true
	case PLUS:
		p.advance()
	}
	tok, err := p.expect(INTEGER)
	if err != nil {
		return Bound{}, err
	}
	b.Digits = tok.Lexeme
	return b, nil
}

func (p *Parser) parseSubDecl() (*SubDecl, error) {
	kw := p.advance()
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	sub := &SubDecl{Name: name.Lexeme, Line: name.Line, IsFunction: kw.Type == FUNCTION}

	if p.accept(LPAREN) {
		for {
			group := &ParamGroup{}
			group.ByRef = p.accept(VAR)
			if group.Names, err = p.parseIdents(); err != nil {
				return nil, err
			}
			if _, err := p.expect(COLON); err != nil {
				return nil, err
			}
			if group.Type, err = p.parseType(); err != nil {
				return nil, err
			}
			sub.Params = append(sub.Params, group)
			if !p.accept(SEMICOLON) {
				break
			}
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
	}

	if sub.IsFunction {
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		if sub.Result, err = p.parseType(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	if sub.Block, err = p.parseBlock(); err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return sub, nil
}

func (p *Parser) parseCompound() (*Compound, error) {
	begin, err := p.expect(BEGIN)
	if err != nil {
		return nil, err
	}
	stmts, err := p.parseStmtList(END)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(END); err != nil {
		return nil, err
	}
	return &Compound{Line: begin.Line, Stmts: stmts}, nil
}

// parseStmtList parses statements separated by semicolons up to (not
// including) the terminator token.
func (p *Parser) parseStmtList(terminator TokenType) ([]Stmt, error) {
	var stmts []Stmt
	for {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		if p.accept(SEMICOLON) {
			continue
		}
		if tok := p.peek(); tok.Type != terminator {
			return nil, p.fmtError(tok, "expected ; or %s, got %s (%q)", terminator, tok.Type, tok.Lexeme)
		}
		return stmts, nil
	}
}

func (p *Parser) parseStatement() (Stmt, error) {
	tok := p.peek()
	switch tok.Type {
	case BEGIN:
		return p.parseCompound()
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case REPEAT:
		return p.parseRepeat()
	case FOR:
		return p.parseFor()
	case IDENTIFIER:
		next := p.peekAt(1).Type
		if next == ASSIGN || next == LBRACKET {
			return p.parseAssign()
		}
		return p.parseCall()
	case SEMICOLON, END, UNTIL, ELSE:
		return &Empty{Line: tok.Line}, nil
	}
	return nil, p.fmtError(tok, "unexpected %s (%q) at start of statement", tok.Type, tok.Lexeme)
}

func (p *Parser) parseAssign() (Stmt, error) {
	target, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	op, err := p.expect(ASSIGN)
	if err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Assign{Line: op.Line, Target: target, Value: value}, nil
}

func (p *Parser) parseCall() (Stmt, error) {
	name := p.advance()
	call := &Call{Line: name.Line, Name: name.Lexeme}
	if p.peek().Type == LPAREN {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		call.Args = args
	}
	return call, nil
}

// parseArgs parses "(" [expression {"," expression}] ")".
func (p *Parser) parseArgs() ([]Expr, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	var args []Expr
	if p.accept(RPAREN) {
		return args, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.accept(COMMA) {
			break
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseIf() (Stmt, error) {
	kw := p.advance()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(THEN); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	s := &If{Line: kw.Line, Cond: cond, Then: then}
	if p.accept(ELSE) {
		if s.Else, err = p.parseStatement(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *Parser) parseWhile() (Stmt, error) {
	kw := p.advance()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(DO); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &While{Line: kw.Line, Cond: cond, Body: body}, nil
}

func (p *Parser) parseRepeat() (Stmt, error) {
	kw := p.advance()
	body, err := p.parseStmtList(UNTIL)
	if err != nil {
		return nil, err
	}
	p.advance() // until
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Repeat{Line: kw.Line, Body: body, Cond: cond}, nil
}

func (p *Parser) parseFor() (Stmt, error) {
	kw := p.advance()
	v, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	start, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	s := &For{Line: kw.Line, Var: Ident{Name: v.Lexeme, Line: v.Line}, Start: start}
	switch tok := p.advance(); tok.Type {
	case TO:
	case DOWNTO:
		s.Down = true
	default:
		return nil, p.fmtError(tok, "expected TO or DOWNTO, got %s (%q)", tok.Type, tok.Lexeme)
	}
	if s.Limit, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if _, err := p.expect(DO); err != nil {
		return nil, err
	}
	if s.Body, err = p.parseStatement(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	left, err := p.parseSimple()
	if err != nil {
		return nil, err
	}
	switch p.peek().Type {
	case EQUALS, NOT_EQ, LESS, LESS_EQ, GREATER, GREATER_EQ:
		op := p.advance()
		right, err := p.parseSimple()
		if err != nil {
			return nil, err
		}
		return &Binary{Line: op.Line, Op: op.Type, Left: left, Right: right}, nil
	}
	return left, nil
}

// parseSimple handles an optional leading sign and the additive operators.
func (p *Parser) parseSimple() (Expr, error) {
	var sign *Token
	if tt := p.peek().Type; tt == PLUS || tt == MINUS {
		tok := p.advance()
		sign = &tok
	}
	expr, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if sign != nil {
		expr = &Unary{Line: sign.Line, Op: sign.Type, Operand: expr}
	}
	for {
		tt := p.peek().Type
		if tt != PLUS && tt != MINUS && tt != OR {
			return expr, nil
		}
		op := p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		expr = &Binary{Line: op.Line, Op: op.Type, Left: expr, Right: right}
	}
}

// parseTerm handles the multiplicative operators.
func (p *Parser) parseTerm() (Expr, error) {
	expr, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		tt := p.peek().Type
		if tt != STAR && tt != SLASH && tt != DIV && tt != MOD && tt != AND {
			return expr, nil
		}
		op := p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		expr = &Binary{Line: op.Line, Op: op.Type, Left: expr, Right: right}
	}
}

func (p *Parser) parseFactor() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case INTEGER:
		p.advance()
		return &IntLit{Line: tok.Line, Digits: tok.Lexeme}, nil
	case REAL:
		p.advance()
		return &RealLit{Line: tok.Line, Text: tok.Lexeme}, nil
	case STRING:
		p.advance()
		return &StrLit{Line: tok.Line, Value: tok.Lexeme}, nil
	case NOT:
		p.advance()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &Unary{Line: tok.Line, Op: NOT, Operand: operand}, nil
	case LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case IDENTIFIER:
		p.advance()
		switch p.peek().Type {
		case LBRACKET:
			p.advance()
			idx := &Index{Line: tok.Line, Name: tok.Lexeme}
			for {
				e, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				idx.Indices = append(idx.Indices, e)
				if !p.accept(COMMA) {
					break
				}
			}
			if _, err := p.expect(RBRACKET); err != nil {
				return nil, err
			}
			return idx, nil
		case LPAREN:
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &CallExpr{Line: tok.Line, Name: tok.Lexeme, Args: args}, nil
		}
		return &Name{Line: tok.Line, Name: tok.Lexeme}, nil
	}
	return nil, p.fmtError(tok, "unexpected %s (%q) in expression", tok.Type, tok.Lexeme)
}
